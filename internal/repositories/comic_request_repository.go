package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"mamastoria/internal/models"
)

const TxComicRequest = "comic_request"

type ComicRequestRepository interface {
	CreateCharged(ctx context.Context, req *models.ComicRequest, cost int64) (int64, error)
	ListByUser(ctx context.Context, userID, limit, offset int) ([]*models.ComicRequest, int64, error)
}

type comicRequestRepository struct {
	DB *sql.DB
}

func NewComicRequestRepository(db *sql.DB) ComicRequestRepository {
	return &comicRequestRepository{DB: db}
}

// CreateCharged списывает cost кредитов и создаёт заказ в одной транзакции.
// Возвращает остаток; при нехватке ErrInsufficientCredit и текущий баланс.
func (r *comicRequestRepository) CreateCharged(ctx context.Context, req *models.ComicRequest, cost int64) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var kredit int64
	if err := tx.QueryRowContext(ctx,
		`SELECT kredit FROM users WHERE id_users=$1 FOR UPDATE`, req.UserID,
	).Scan(&kredit); err != nil {
		return 0, notFound(err)
	}
	if kredit < cost {
		return kredit, ErrInsufficientCredit
	}
	left := kredit - cost
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET kredit=$1, updated_at=NOW() WHERE id_users=$2`, left, req.UserID,
	); err != nil {
		return 0, err
	}

	req.Status = models.ComicRequestPending
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO comic_requests (user_id, recipient_name, phone_number, shipping_address, notes, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at
	`, req.UserID, req.RecipientName, req.PhoneNumber, req.ShippingAddress, req.Notes, req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, type, amount, description, reference_id)
		VALUES ($1,$2,$3,$4,$5)
	`, req.UserID, TxComicRequest, -cost, "Souvenir comic order", fmt.Sprintf("comic_request:%d", req.ID)); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return left, nil
}

func (r *comicRequestRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]*models.ComicRequest, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM comic_requests WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, recipient_name, phone_number, shipping_address, notes, status, created_at, updated_at
		FROM comic_requests WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	res := []*models.ComicRequest{}
	for rows.Next() {
		cr := &models.ComicRequest{}
		var notes sql.NullString
		if err := rows.Scan(&cr.ID, &cr.UserID, &cr.RecipientName, &cr.PhoneNumber, &cr.ShippingAddress,
			&notes, &cr.Status, &cr.CreatedAt, &cr.UpdatedAt); err != nil {
			return nil, 0, err
		}
		cr.Notes = stringPtr(notes)
		res = append(res, cr)
	}
	return res, total, rows.Err()
}
