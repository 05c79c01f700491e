package repositories

import (
	"context"
	"database/sql"

	"mamastoria/internal/models"
)

type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction) error
	ListByUser(ctx context.Context, userID, limit, offset int) ([]*models.Transaction, int64, error)
	Exists(ctx context.Context, userID int, txType string) (bool, error)
	SumByType(ctx context.Context, userID int, txType string) (int64, error)
}

type transactionRepository struct {
	DB *sql.DB
}

func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{DB: db}
}

func (r *transactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO transactions (user_id, type, amount, description, reference_id)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at
	`, t.UserID, t.Type, t.Amount, t.Description, t.ReferenceID).Scan(&t.ID, &t.CreatedAt)
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]*models.Transaction, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, type, amount, description, reference_id, created_at
		FROM transactions WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	res := []*models.Transaction{}
	for rows.Next() {
		t := &models.Transaction{}
		var desc, ref sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &desc, &ref, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		t.Description = stringPtr(desc)
		t.ReferenceID = stringPtr(ref)
		res = append(res, t)
	}
	return res, total, rows.Err()
}

func (r *transactionRepository) Exists(ctx context.Context, userID int, txType string) (bool, error) {
	var ok bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE user_id=$1 AND type=$2)`, userID, txType).Scan(&ok)
	return ok, err
}

func (r *transactionRepository) SumByType(ctx context.Context, userID int, txType string) (int64, error) {
	var sum int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id=$1 AND type=$2`, userID, txType).Scan(&sum)
	return sum, err
}
