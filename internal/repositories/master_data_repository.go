package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"mamastoria/internal/models"
)

type MasterDataRepository interface {
	ListGenres(ctx context.Context) ([]*models.MasterItem, error)
	ListStyles(ctx context.Context) ([]*models.MasterItem, error)
	ListBackgrounds(ctx context.Context) ([]*models.MasterItem, error)
	GenreNamesByIDs(ctx context.Context, ids []int64) ([]string, error)
	StyleByID(ctx context.Context, id int64) (*models.MasterItem, error)
	CountBackgrounds(ctx context.Context, ids []int64) (int, error)
}

type masterDataRepository struct {
	DB *sql.DB
}

func NewMasterDataRepository(db *sql.DB) MasterDataRepository {
	return &masterDataRepository{DB: db}
}

func (r *masterDataRepository) list(ctx context.Context, q string) ([]*models.MasterItem, error) {
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []*models.MasterItem{}
	for rows.Next() {
		it := &models.MasterItem{}
		var desc, img sql.NullString
		if err := rows.Scan(&it.ID, &it.Name, &desc, &img); err != nil {
			return nil, err
		}
		it.Description = stringPtr(desc)
		it.ImageURL = stringPtr(img)
		res = append(res, it)
	}
	return res, rows.Err()
}

func (r *masterDataRepository) ListGenres(ctx context.Context) ([]*models.MasterItem, error) {
	return r.list(ctx, `SELECT id, name, description, NULL::text FROM genres ORDER BY name`)
}

func (r *masterDataRepository) ListStyles(ctx context.Context) ([]*models.MasterItem, error) {
	return r.list(ctx, `SELECT id, name, description, image_url FROM styles ORDER BY name`)
}

func (r *masterDataRepository) ListBackgrounds(ctx context.Context) ([]*models.MasterItem, error) {
	return r.list(ctx, `SELECT id, name, description_prompt, image_url FROM backgrounds ORDER BY id`)
}

// GenreNamesByIDs returns names only for ids that exist.
func (r *masterDataRepository) GenreNamesByIDs(ctx context.Context, ids []int64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT name FROM genres WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (r *masterDataRepository) StyleByID(ctx context.Context, id int64) (*models.MasterItem, error) {
	it := &models.MasterItem{}
	var desc, img sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, description, image_url FROM styles WHERE id=$1`, id).Scan(&it.ID, &it.Name, &desc, &img)
	if err != nil {
		return nil, notFound(err)
	}
	it.Description = stringPtr(desc)
	it.ImageURL = stringPtr(img)
	return it, nil
}

func (r *masterDataRepository) CountBackgrounds(ctx context.Context, ids []int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM backgrounds WHERE id = ANY($1)`, pq.Array(ids)).Scan(&n)
	return n, err
}
