package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"mamastoria/internal/models"
)

type ComicRepository interface {
	Create(ctx context.Context, comic *models.Comic) error
	GetByID(ctx context.Context, id int) (*models.Comic, error)
	Update(ctx context.Context, comic *models.Comic) error
	Delete(ctx context.Context, id int) error
	ListPublished(ctx context.Context, f models.ComicFilter, limit, offset int) ([]*models.Comic, int64, error)
	ListDrafts(ctx context.Context, userID, limit, offset int) ([]*models.Comic, int64, error)
	ListSimilar(ctx context.Context, comic *models.Comic, limit int) ([]*models.Comic, error)
	ListLastRead(ctx context.Context, userID, limit int) ([]*models.Comic, error)
	TrackRead(ctx context.Context, comicID int, userID *int) error
	UpdateDraftJob(ctx context.Context, comicID int, jobID, status string) error
}

type comicRepository struct {
	DB *sql.DB
}

func NewComicRepository(db *sql.DB) ComicRepository {
	return &comicRepository{DB: db}
}

const comicColumns = `
	c.id, c.user_id, c.story_idea, c.summary, c.theme, c.keywords,
	c.style, c.mood, c.page_count,
	c.selected_character_key, c.selected_backgrounds,
	c.title, c.publisher, c.genre, c.synopsis, c.tags,
	c.cover_url, c.preview_video_url, c.pdf_url, c.narration_audio_url,
	c.draft_job_id, c.draft_job_status, c.layout,
	c.total_views, c.total_likes, c.total_comments,
	c.created_at, c.updated_at`

const publishedClause = `c.title IS NOT NULL AND c.title <> '' AND c.cover_url IS NOT NULL AND c.cover_url <> ''`

func scanComic(row scanner) (*models.Comic, error) {
	c := &models.Comic{}
	var (
		storyIdea, summary, theme, style, mood sql.NullString
		charKey, title, publisher, synopsis    sql.NullString
		tags, cover, video, pdfURL, audio      sql.NullString
		jobID, jobStatus, layout               sql.NullString
		pageCount                              sql.NullInt64
		keywords, genre                        pq.StringArray
		backgrounds                            pq.Int64Array
	)
	err := row.Scan(
		&c.ID, &c.UserID, &storyIdea, &summary, &theme, &keywords,
		&style, &mood, &pageCount,
		&charKey, &backgrounds,
		&title, &publisher, &genre, &synopsis, &tags,
		&cover, &video, &pdfURL, &audio,
		&jobID, &jobStatus, &layout,
		&c.TotalViews, &c.TotalLikes, &c.TotalComments,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	c.StoryIdea = stringPtr(storyIdea)
	c.Summary = stringPtr(summary)
	c.Theme = stringPtr(theme)
	c.Keywords = []string(keywords)
	c.Style = stringPtr(style)
	c.Mood = stringPtr(mood)
	c.PageCount = intPtr(pageCount)
	c.SelectedCharacterKey = stringPtr(charKey)
	c.SelectedBackgrounds = []int64(backgrounds)
	c.Title = stringPtr(title)
	c.Publisher = stringPtr(publisher)
	c.Genre = []string(genre)
	if c.Genre == nil {
		c.Genre = []string{}
	}
	c.Synopsis = stringPtr(synopsis)
	c.Tags = stringPtr(tags)
	c.CoverURL = stringPtr(cover)
	c.PreviewVideoURL = stringPtr(video)
	c.PDFURL = stringPtr(pdfURL)
	c.NarrationAudioURL = stringPtr(audio)
	c.DraftJobID = stringPtr(jobID)
	c.DraftJobStatus = stringPtr(jobStatus)
	c.Layout = stringPtr(layout)
	return c, nil
}

func scanComics(rows *sql.Rows) ([]*models.Comic, error) {
	defer rows.Close()
	res := []*models.Comic{}
	for rows.Next() {
		c, err := scanComic(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *comicRepository) Create(ctx context.Context, comic *models.Comic) error {
	const q = `
		INSERT INTO comics (user_id, story_idea, page_count, genre, style, draft_job_status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, total_views, total_likes, total_comments, created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, q,
		comic.UserID,
		comic.StoryIdea,
		comic.PageCount,
		pq.Array(comic.Genre),
		comic.Style,
		comic.DraftJobStatus,
	).Scan(&comic.ID, &comic.TotalViews, &comic.TotalLikes, &comic.TotalComments, &comic.CreatedAt, &comic.UpdatedAt)
}

func (r *comicRepository) GetByID(ctx context.Context, id int) (*models.Comic, error) {
	q := `SELECT ` + comicColumns + ` FROM comics c WHERE c.id = $1`
	return scanComic(r.DB.QueryRowContext(ctx, q, id))
}

// Update writes the fields the creation wizard and publish step can change.
func (r *comicRepository) Update(ctx context.Context, comic *models.Comic) error {
	const q = `
		UPDATE comics
		SET summary=$1, selected_character_key=$2, selected_backgrounds=$3,
			title=$4, synopsis=$5, publisher=$6, updated_at=NOW()
		WHERE id=$7
	`
	res, err := r.DB.ExecContext(ctx, q,
		comic.Summary,
		comic.SelectedCharacterKey,
		pq.Array(comic.SelectedBackgrounds),
		comic.Title,
		comic.Synopsis,
		comic.Publisher,
		comic.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *comicRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM comics WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *comicRepository) ListPublished(ctx context.Context, f models.ComicFilter, limit, offset int) ([]*models.Comic, int64, error) {
	where := []string{publishedClause}
	args := []any{}
	if f.Genre != "" {
		args = append(args, pq.Array([]string{f.Genre}))
		where = append(where, fmt.Sprintf("c.genre @> $%d", len(args)))
	}
	if f.Style != "" {
		args = append(args, f.Style)
		where = append(where, fmt.Sprintf("c.style = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(c.title ILIKE $%d OR c.synopsis ILIKE $%d)", len(args), len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM comics c WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	q := fmt.Sprintf(`SELECT %s FROM comics c WHERE %s ORDER BY c.total_views DESC, c.id DESC LIMIT $%d OFFSET $%d`,
		comicColumns, cond, len(args)-1, len(args))
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanComics(rows)
	return items, total, err
}

func (r *comicRepository) ListDrafts(ctx context.Context, userID, limit, offset int) ([]*models.Comic, int64, error) {
	const cond = `c.user_id = $1 AND NOT (` + publishedClause + `)`
	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM comics c WHERE `+cond, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+comicColumns+` FROM comics c WHERE `+cond+` ORDER BY c.updated_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanComics(rows)
	return items, total, err
}

// ListSimilar matches on style or any shared genre among published comics.
func (r *comicRepository) ListSimilar(ctx context.Context, comic *models.Comic, limit int) ([]*models.Comic, error) {
	style := ""
	if comic.Style != nil {
		style = *comic.Style
	}
	if style == "" && len(comic.Genre) == 0 {
		return []*models.Comic{}, nil
	}
	q := `SELECT ` + comicColumns + ` FROM comics c
		WHERE c.id <> $1 AND ` + publishedClause + `
		AND (($2 <> '' AND c.style = $2) OR c.genre && $3)
		ORDER BY c.total_views DESC
		LIMIT $4`
	rows, err := r.DB.QueryContext(ctx, q, comic.ID, style, pq.Array(comic.Genre), limit)
	if err != nil {
		return nil, err
	}
	return scanComics(rows)
}

func (r *comicRepository) ListLastRead(ctx context.Context, userID, limit int) ([]*models.Comic, error) {
	q := `SELECT ` + comicColumns + ` FROM comics c
		JOIN comic_views v ON v.comic_id = c.id
		WHERE v.user_id = $1
		ORDER BY v.updated_at DESC
		LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	return scanComics(rows)
}

// TrackRead bumps total_views and, for signed-in readers, the read history.
func (r *comicRepository) TrackRead(ctx context.Context, comicID int, userID *int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE comics SET total_views = total_views + 1 WHERE id=$1`, comicID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if userID != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO comic_views (comic_id, user_id) VALUES ($1,$2)
			ON CONFLICT (comic_id, user_id) DO UPDATE SET updated_at = NOW()
		`, comicID, *userID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *comicRepository) UpdateDraftJob(ctx context.Context, comicID int, jobID, status string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE comics
		SET draft_job_id = COALESCE(NULLIF($1, ''), draft_job_id), draft_job_status=$2, updated_at=NOW()
		WHERE id=$3
	`, jobID, status, comicID)
	return err
}
