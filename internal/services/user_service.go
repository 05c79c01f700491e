package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
	"mamastoria/internal/utils"
)

var (
	ErrWrongPassword      = errors.New("old password is incorrect")
	ErrStorageDisabled    = errors.New("file storage is not configured")
	ErrInsufficientKredit = errors.New("insufficient credits")
	ErrProfileQuota       = errors.New("profile update quota exceeded")
)

const TxReferralBonus = "referral_bonus"

// Смены имени и username ограничены квотой на скользящее окно.
const (
	ProfileUpdateQuota   = 3
	ProfileQuotaWindow   = 30 * 24 * time.Hour
	profileFieldName     = "full_name"
	profileFieldUsername = "username"
)

type UserService interface {
	GetProfile(ctx context.Context, userID int) (*models.User, error)
	UpdateDetails(ctx context.Context, userID int, req models.UpdateProfileRequest) (*models.User, error)
	UpdatePhoto(ctx context.Context, userID int, file io.Reader, size int64, contentType string) (*models.User, error)
	PhotoURL(ctx context.Context, user *models.User) string
	UpdateKredit(ctx context.Context, userID int, req models.UpdateKreditRequest) (int64, error)
	ReferralInfo(ctx context.Context, userID int) (*models.ReferralInfo, error)
	Rating(ctx context.Context, userID int) (*models.ProfileRating, error)
	ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error
	UpdateWatermark(ctx context.Context, userID int, on bool) (bool, error)
	UpdateQuota(ctx context.Context, userID int) (*models.UpdateQuota, error)
	Referrals(ctx context.Context, referrerID int) ([]*models.Referral, error)
}

type userService struct {
	repo      repositories.UserRepository
	txRepo    repositories.TransactionRepository
	analytics repositories.AnalyticsRepository
	storage   StorageService
	hasher    PasswordHasher
	now       Clock
}

func NewUserService(repo repositories.UserRepository, txRepo repositories.TransactionRepository, analytics repositories.AnalyticsRepository, storage StorageService, hasher PasswordHasher, now Clock) UserService {
	if now == nil {
		now = time.Now
	}
	return &userService{
		repo:      repo,
		txRepo:    txRepo,
		analytics: analytics,
		storage:   storage,
		hasher:    hasher,
		now:       now,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// UpdateDetails меняет только переданные поля; код верификации не трогается.
// Смена full_name/username расходует квоту.
func (s *userService) UpdateDetails(ctx context.Context, userID int, req models.UpdateProfileRequest) (*models.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	var changed []string
	if req.FullName != nil {
		if name := strings.TrimSpace(*req.FullName); name != u.FullName {
			u.FullName = name
			changed = append(changed, profileFieldName)
		}
	}
	if req.Username != nil {
		if name := strings.TrimSpace(*req.Username); name != u.Username {
			u.Username = name
			changed = append(changed, profileFieldUsername)
		}
	}
	if len(changed) > 0 {
		q, err := s.UpdateQuota(ctx, userID)
		if err != nil {
			return nil, err
		}
		if q.RemainingQuota < len(changed) {
			return nil, ErrProfileQuota
		}
	}
	if req.Email != nil {
		u.Email = utils.NormalizeEmail(*req.Email)
	}
	if req.Region != nil {
		u.Region = req.Region
	}
	if req.City != nil {
		u.City = req.City
	}
	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	for _, field := range changed {
		if err := s.repo.LogProfileUpdate(ctx, userID, field); err != nil {
			log.Warn().Err(err).Int("user_id", userID).Str("field", field).Msg("[profile][update] quota log failed")
		}
	}
	return u, nil
}

func (s *userService) UpdatePhoto(ctx context.Context, userID int, file io.Reader, size int64, contentType string) (*models.User, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	key, err := s.storage.UploadProfilePhoto(ctx, userID, file, size, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePhotoPath(ctx, userID, key); err != nil {
		_ = s.storage.DeleteObject(ctx, key)
		return nil, err
	}
	if u.ProfilePhotoPath != nil {
		if err := s.storage.DeleteObject(ctx, *u.ProfilePhotoPath); err != nil {
			log.Warn().Err(err).Int("user_id", userID).Msg("[profile][photo] old object not removed")
		}
	}
	u.ProfilePhotoPath = &key
	return u, nil
}

func (s *userService) PhotoURL(ctx context.Context, user *models.User) string {
	if s.storage == nil || user.ProfilePhotoPath == nil {
		return ""
	}
	u, err := s.storage.PhotoURL(ctx, *user.ProfilePhotoPath)
	if err != nil {
		log.Warn().Err(err).Int("user_id", user.ID).Msg("[profile][photo] presign failed")
		return ""
	}
	return u
}

func (s *userService) UpdateKredit(ctx context.Context, userID int, req models.UpdateKreditRequest) (int64, error) {
	delta := req.Amount
	if req.Operation == "subtract" {
		delta = -delta
	}
	bal, err := s.repo.AdjustKredit(ctx, userID, delta)
	switch {
	case errors.Is(err, repositories.ErrInsufficientCredit):
		return bal, ErrInsufficientKredit
	case errors.Is(err, repositories.ErrNotFound):
		return 0, ErrUserNotFound
	case err != nil:
		return 0, fmt.Errorf("adjust kredit: %w", err)
	}
	return bal, nil
}

func (s *userService) ReferralInfo(ctx context.Context, userID int) (*models.ReferralInfo, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.CountReferrals(ctx, u.ReferralCode)
	if err != nil {
		return nil, err
	}
	bonus, err := s.txRepo.SumByType(ctx, userID, TxReferralBonus)
	if err != nil {
		return nil, err
	}
	return &models.ReferralInfo{
		ReferralCode:     u.ReferralCode,
		TotalReferrals:   n,
		TotalBonusEarned: bonus,
	}, nil
}

func (s *userService) Rating(ctx context.Context, userID int) (*models.ProfileRating, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	totals, err := s.analytics.ComicTotals(ctx, userID, nil, nil)
	if err != nil {
		return nil, err
	}
	return &models.ProfileRating{
		Rating:      u.PreviousRating,
		RatingName:  u.PreviousRatingName,
		TotalComics: totals.Comics,
		TotalViews:  totals.Views,
		TotalLikes:  totals.Likes,
	}, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.CheckPassword(u.PasswordHash, oldPassword) {
		return ErrWrongPassword
	}
	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, hash)
}

func (s *userService) UpdateWatermark(ctx context.Context, userID int, on bool) (bool, error) {
	err := s.repo.UpdateWatermark(ctx, userID, on)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, err
	}
	return on, nil
}

// UpdateQuota: остаток смен имени в текущем окне; окно сдвигается
// от самой старой смены внутри него.
func (s *userService) UpdateQuota(ctx context.Context, userID int) (*models.UpdateQuota, error) {
	now := s.now().UTC()
	used, oldest, err := s.repo.ProfileUpdatesSince(ctx, userID, now.Add(-ProfileQuotaWindow))
	if err != nil {
		return nil, fmt.Errorf("count profile updates: %w", err)
	}
	q := &models.UpdateQuota{RemainingQuota: ProfileUpdateQuota - used}
	if q.RemainingQuota < 0 {
		q.RemainingQuota = 0
	}
	if oldest != nil {
		resets := oldest.UTC().Add(ProfileQuotaWindow)
		q.QuotaResetsAt = &resets
	}
	return q, nil
}

func (s *userService) Referrals(ctx context.Context, referrerID int) ([]*models.Referral, error) {
	if _, err := s.GetProfile(ctx, referrerID); err != nil {
		return nil, err
	}
	return s.repo.ListReferrals(ctx, referrerID)
}
