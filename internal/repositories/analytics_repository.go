package repositories

import (
	"context"
	"database/sql"
	"time"

	"mamastoria/internal/models"
)

// AnalyticsRepository aggregates over a creator's comics and wallet.
// Nil bounds mean "unbounded"; ranges are [from, to).
type AnalyticsRepository interface {
	ComicTotals(ctx context.Context, userID int, from, to *time.Time) (models.ComicTotals, error)
	CreditEarnings(ctx context.Context, userID int, from, to *time.Time) (int64, error)
}

type analyticsRepository struct {
	DB *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{DB: db}
}

func (r *analyticsRepository) ComicTotals(ctx context.Context, userID int, from, to *time.Time) (models.ComicTotals, error) {
	var t models.ComicTotals
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(total_views), 0),
			COALESCE(SUM(total_likes), 0),
			COALESCE(SUM(total_comments), 0)
		FROM comics
		WHERE user_id=$1
			AND ($2::timestamptz IS NULL OR created_at >= $2)
			AND ($3::timestamptz IS NULL OR created_at < $3)
	`, userID, nullTime(from), nullTime(to)).Scan(&t.Comics, &t.Views, &t.Likes, &t.Comments)
	return t, err
}

func (r *analyticsRepository) CreditEarnings(ctx context.Context, userID int, from, to *time.Time) (int64, error) {
	var sum int64
	err := r.DB.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id=$1 AND type='credit'
			AND ($2::timestamptz IS NULL OR created_at >= $2)
			AND ($3::timestamptz IS NULL OR created_at < $3)
	`, userID, nullTime(from), nullTime(to)).Scan(&sum)
	return sum, err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
