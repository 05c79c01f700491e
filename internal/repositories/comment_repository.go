package repositories

import (
	"context"
	"database/sql"

	"mamastoria/internal/models"
)

type CommentRepository interface {
	ListByComic(ctx context.Context, comicID, limit, offset int) ([]*models.Comment, int64, error)
	Create(ctx context.Context, c *models.Comment) error
	GetByID(ctx context.Context, id int) (*models.Comment, error)
	Delete(ctx context.Context, c *models.Comment) error
}

type commentRepository struct {
	DB *sql.DB
}

func NewCommentRepository(db *sql.DB) CommentRepository {
	return &commentRepository{DB: db}
}

func (r *commentRepository) ListByComic(ctx context.Context, comicID, limit, offset int) ([]*models.Comment, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE comic_id=$1`, comicID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT cm.id, cm.comic_id, cm.user_id, cm.body, COALESCE(u.full_name, ''), cm.created_at, cm.updated_at
		FROM comments cm
		LEFT JOIN users u ON u.id_users = cm.user_id
		WHERE cm.comic_id = $1
		ORDER BY cm.created_at DESC
		LIMIT $2 OFFSET $3
	`, comicID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	res := []*models.Comment{}
	for rows.Next() {
		c := &models.Comment{}
		if err := rows.Scan(&c.ID, &c.ComicID, &c.UserID, &c.Body, &c.UserName, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		res = append(res, c)
	}
	return res, total, rows.Err()
}

// Create inserts the comment and bumps comics.total_comments in one tx.
func (r *commentRepository) Create(ctx context.Context, c *models.Comment) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE comics SET total_comments = total_comments + 1 WHERE id=$1`, c.ComicID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO comments (comic_id, user_id, body) VALUES ($1,$2,$3)
		RETURNING id, created_at, updated_at
	`, c.ComicID, c.UserID, c.Body).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *commentRepository) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	c := &models.Comment{}
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, comic_id, user_id, body, created_at, updated_at FROM comments WHERE id=$1
	`, id).Scan(&c.ID, &c.ComicID, &c.UserID, &c.Body, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *commentRepository) Delete(ctx context.Context, c *models.Comment) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id=$1`, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE comics SET total_comments = GREATEST(total_comments - 1, 0) WHERE id=$1`, c.ComicID); err != nil {
		return err
	}
	return tx.Commit()
}
