package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"mamastoria/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id int) (*models.Notification, error)
	ListByUser(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, userID int) (int64, error)
	MarkRead(ctx context.Context, userID int, ids []int) (int64, error)
	MarkAllRead(ctx context.Context, userID int) (int64, error)
	Delete(ctx context.Context, userID, id int) error
}

type notificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{DB: db}
}

func scanNotification(row scanner) (*models.Notification, error) {
	n := &models.Notification{}
	var data sql.NullString
	var readAt sql.NullTime
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &readAt, &n.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	n.Data = stringPtr(data)
	n.ReadAt = timePtr(readAt)
	return n, nil
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, type, title, message, data)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at
	`, n.UserID, n.Type, n.Title, n.Message, n.Data).Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) GetByID(ctx context.Context, id int) (*models.Notification, error) {
	return scanNotification(r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, type, title, message, data, read_at, created_at
		FROM notifications WHERE id=$1
	`, id))
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]*models.Notification, int64, error) {
	cond := `user_id = $1`
	if unreadOnly {
		cond += ` AND read_at IS NULL`
	}
	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE `+cond, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, type, title, message, data, read_at, created_at
		FROM notifications WHERE `+cond+`
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	res := []*models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, n)
	}
	return res, total, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID int) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND read_at IS NULL`, userID).Scan(&n)
	return n, err
}

// MarkRead только непрочитанные уведомления владельца; возвращает число обновлённых.
func (r *notificationRepository) MarkRead(ctx context.Context, userID int, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ids64 := make([]int64, len(ids))
	for i, id := range ids {
		ids64[i] = int64(id)
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE notifications SET read_at = NOW()
		WHERE user_id=$1 AND id = ANY($2) AND read_at IS NULL
	`, userID, pq.Array(ids64))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE notifications SET read_at = NOW() WHERE user_id=$1 AND read_at IS NULL`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM notifications WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
