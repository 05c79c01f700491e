package repositories

import (
	"context"
	"database/sql"

	"mamastoria/internal/models"
)

// LedgerRepository: комиссии и заявки на вывод средств.
type LedgerRepository interface {
	CreateCommission(ctx context.Context, c *models.Commission) error
	ListCommissions(ctx context.Context, userID int) ([]*models.Commission, int64, error)
	CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error
	ListWithdrawals(ctx context.Context, userID int) ([]*models.Withdrawal, int64, error)
}

type ledgerRepository struct {
	DB *sql.DB
}

func NewLedgerRepository(db *sql.DB) LedgerRepository {
	return &ledgerRepository{DB: db}
}

func (r *ledgerRepository) CreateCommission(ctx context.Context, c *models.Commission) error {
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO commissions (id_user, kredit, keterangan)
		VALUES ($1,$2,$3)
		RETURNING id, created_at, updated_at
	`, c.UserID, c.Kredit, c.Keterangan).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// ListCommissions returns the user's rows and the sum of their kredit.
func (r *ledgerRepository) ListCommissions(ctx context.Context, userID int) ([]*models.Commission, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(kredit), 0) FROM commissions WHERE id_user=$1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, id_user, kredit, keterangan, created_at, updated_at
		FROM commissions WHERE id_user=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	res := []*models.Commission{}
	for rows.Next() {
		c := &models.Commission{}
		var kredit sql.NullInt64
		var note sql.NullString
		if err := rows.Scan(&c.ID, &c.UserID, &kredit, &note, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		c.Kredit = intPtr(kredit)
		c.Keterangan = stringPtr(note)
		res = append(res, c)
	}
	return res, total, rows.Err()
}

func (r *ledgerRepository) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO withdrawals (id_user, amount, status, bank_name, account_number, account_name)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at
	`, w.UserID, w.Amount, w.Status, w.BankName, w.AccountNumber, w.AccountName,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

// ListWithdrawals returns the user's rows and the sum of all amounts.
func (r *ledgerRepository) ListWithdrawals(ctx context.Context, userID int) ([]*models.Withdrawal, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM withdrawals WHERE id_user=$1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, id_user, amount, status, bank_name, account_number, account_name, created_at, updated_at
		FROM withdrawals WHERE id_user=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	res := []*models.Withdrawal{}
	for rows.Next() {
		w := &models.Withdrawal{}
		var bank, number, name sql.NullString
		if err := rows.Scan(&w.ID, &w.UserID, &w.Amount, &w.Status, &bank, &number, &name, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, 0, err
		}
		w.BankName = stringPtr(bank)
		w.AccountNumber = stringPtr(number)
		w.AccountName = stringPtr(name)
		res = append(res, w)
	}
	return res, total, rows.Err()
}
