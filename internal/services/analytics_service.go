package services

import (
	"context"
	"errors"
	"time"

	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
)

const (
	DailyDefaultDays     = 7
	DailyMaxDays         = 90
	MonthlyDefaultMonths = 6
	MonthlyMaxMonths     = 24
)

var ErrRangeOutOfBounds = errors.New("range out of bounds")

type AnalyticsService interface {
	Dashboard(ctx context.Context, userID int) (*models.DashboardStats, error)
	Daily(ctx context.Context, userID, days int) ([]models.DailyStats, error)
	Monthly(ctx context.Context, userID, months int) ([]models.MonthlyStats, error)
	Yearly(ctx context.Context, userID int) (*models.YearlyStats, error)
	History(ctx context.Context, userID, limit, offset int) ([]*models.Transaction, int64, error)
}

type analyticsService struct {
	repo  repositories.AnalyticsRepository
	subs  repositories.SubscriptionRepository
	users repositories.UserRepository
	txs   repositories.TransactionRepository
	now   Clock
}

func NewAnalyticsService(repo repositories.AnalyticsRepository, subs repositories.SubscriptionRepository, users repositories.UserRepository, txs repositories.TransactionRepository, now Clock) AnalyticsService {
	return &analyticsService{repo: repo, subs: subs, users: users, txs: txs, now: now}
}

func (s *analyticsService) Dashboard(ctx context.Context, userID int) (*models.DashboardStats, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.ComicTotals(ctx, userID, nil, nil)
	if err != nil {
		return nil, err
	}
	earnings, err := s.repo.CreditEarnings(ctx, userID, nil, nil)
	if err != nil {
		return nil, err
	}
	_, _, err = s.subs.GetActiveSubscription(ctx, userID, s.now())
	active := err == nil
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	return &models.DashboardStats{
		TotalComics:        totals.Comics,
		TotalViews:         totals.Views,
		TotalLikes:         totals.Likes,
		TotalComments:      totals.Comments,
		TotalEarnings:      earnings,
		ActiveSubscription: active,
		PublishQuota:       u.PublishQuota,
		CurrentBalance:     u.Balance,
		CurrentCredits:     u.Kredit,
	}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Daily returns one row per UTC day, oldest first, today included.
func (s *analyticsService) Daily(ctx context.Context, userID, days int) ([]models.DailyStats, error) {
	if days < 1 || days > DailyMaxDays {
		return nil, ErrRangeOutOfBounds
	}
	first := startOfDay(s.now()).AddDate(0, 0, -(days - 1))
	out := make([]models.DailyStats, 0, days)
	for i := 0; i < days; i++ {
		from := first.AddDate(0, 0, i)
		to := from.AddDate(0, 0, 1)
		t, err := s.repo.ComicTotals(ctx, userID, &from, &to)
		if err != nil {
			return nil, err
		}
		out = append(out, models.DailyStats{
			Date:     from.Format("2006-01-02"),
			Views:    t.Views,
			Likes:    t.Likes,
			Comments: t.Comments,
		})
	}
	return out, nil
}

// Monthly walks calendar months back from the current one, returned oldest first.
func (s *analyticsService) Monthly(ctx context.Context, userID, months int) ([]models.MonthlyStats, error) {
	if months < 1 || months > MonthlyMaxMonths {
		return nil, ErrRangeOutOfBounds
	}
	now := s.now().UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.MonthlyStats, 0, months)
	for i := months - 1; i >= 0; i-- {
		from := current.AddDate(0, -i, 0)
		to := from.AddDate(0, 1, 0)
		t, err := s.repo.ComicTotals(ctx, userID, &from, &to)
		if err != nil {
			return nil, err
		}
		earnings, err := s.repo.CreditEarnings(ctx, userID, &from, &to)
		if err != nil {
			return nil, err
		}
		out = append(out, models.MonthlyStats{
			Month:    from.Format("2006-01"),
			Views:    t.Views,
			Likes:    t.Likes,
			Comments: t.Comments,
			Earnings: earnings,
		})
	}
	return out, nil
}

func (s *analyticsService) Yearly(ctx context.Context, userID int) (*models.YearlyStats, error) {
	year := s.now().UTC().Year()
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	t, err := s.repo.ComicTotals(ctx, userID, &from, &to)
	if err != nil {
		return nil, err
	}
	earnings, err := s.repo.CreditEarnings(ctx, userID, &from, &to)
	if err != nil {
		return nil, err
	}
	return &models.YearlyStats{
		Year:          year,
		TotalComics:   t.Comics,
		TotalViews:    t.Views,
		TotalLikes:    t.Likes,
		TotalComments: t.Comments,
		TotalEarnings: earnings,
	}, nil
}

func (s *analyticsService) History(ctx context.Context, userID, limit, offset int) ([]*models.Transaction, int64, error) {
	return s.txs.ListByUser(ctx, userID, limit, offset)
}
