package repositories

import (
	"context"
	"database/sql"

	"mamastoria/internal/models"
)

type LikeRepository interface {
	// Like returns the comic's new total_likes; ErrAlreadyExists on a repeat.
	Like(ctx context.Context, comicID, userID int) (int64, error)
	// Unlike returns the comic's new total_likes; ErrNotFound when not liked.
	Unlike(ctx context.Context, comicID, userID int) (int64, error)
	IsLiked(ctx context.Context, comicID, userID int) (bool, error)
	ListByComic(ctx context.Context, comicID, limit, offset int) ([]*models.Like, int64, error)
}

type likeRepository struct {
	DB *sql.DB
}

func NewLikeRepository(db *sql.DB) LikeRepository {
	return &likeRepository{DB: db}
}

func (r *likeRepository) Like(ctx context.Context, comicID, userID int) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO comic_user (comic_id, user_id) VALUES ($1,$2)
		ON CONFLICT (comic_id, user_id) DO NOTHING
	`, comicID, userID)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrAlreadyExists
	}

	var total int64
	err = tx.QueryRowContext(ctx,
		`UPDATE comics SET total_likes = total_likes + 1 WHERE id=$1 RETURNING total_likes`, comicID).Scan(&total)
	if err != nil {
		return 0, notFound(err)
	}
	return total, tx.Commit()
}

func (r *likeRepository) Unlike(ctx context.Context, comicID, userID int) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM comic_user WHERE comic_id=$1 AND user_id=$2`, comicID, userID)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrNotFound
	}

	var total int64
	err = tx.QueryRowContext(ctx,
		`UPDATE comics SET total_likes = GREATEST(total_likes - 1, 0) WHERE id=$1 RETURNING total_likes`, comicID).Scan(&total)
	if err != nil {
		return 0, notFound(err)
	}
	return total, tx.Commit()
}

func (r *likeRepository) IsLiked(ctx context.Context, comicID, userID int) (bool, error) {
	var ok bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM comic_user WHERE comic_id=$1 AND user_id=$2)`, comicID, userID).Scan(&ok)
	return ok, err
}

func (r *likeRepository) ListByComic(ctx context.Context, comicID, limit, offset int) ([]*models.Like, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM comic_user WHERE comic_id=$1`, comicID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT cu.comic_id, cu.user_id, COALESCE(u.full_name, ''), cu.created_at
		FROM comic_user cu
		LEFT JOIN users u ON u.id_users = cu.user_id
		WHERE cu.comic_id = $1
		ORDER BY cu.created_at DESC
		LIMIT $2 OFFSET $3
	`, comicID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	res := []*models.Like{}
	for rows.Next() {
		l := &models.Like{}
		if err := rows.Scan(&l.ComicID, &l.UserID, &l.UserName, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		res = append(res, l)
	}
	return res, total, rows.Err()
}
