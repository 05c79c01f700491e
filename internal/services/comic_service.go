package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
)

var (
	ErrComicNotFound      = errors.New("comic not found")
	ErrComicForbidden     = errors.New("comic not found or you don't have permission")
	ErrInvalidGenres      = errors.New("invalid genre IDs")
	ErrInvalidStyle       = errors.New("invalid style ID")
	ErrInvalidBackgrounds = errors.New("invalid background IDs")
	ErrNoDraftJob         = errors.New("no draft job submitted for this comic")
)

const (
	SimilarDefaultLimit = 10
	SimilarMaxLimit     = 50
	LastReadLimit       = 20
)

type ComicService interface {
	List(ctx context.Context, f models.ComicFilter, limit, offset int) ([]*models.Comic, int64, error)
	Show(ctx context.Context, id int, viewerID *int) (*models.Comic, error)
	CreateFromStoryIdea(ctx context.Context, userID int, req models.CreateStoryIdeaRequest) (*models.Comic, error)
	UpdateSummary(ctx context.Context, userID, comicID int, summary string) (*models.Comic, error)
	UpdateCharacter(ctx context.Context, userID, comicID int, key string) (*models.Comic, error)
	UpdateBackgrounds(ctx context.Context, userID, comicID int, ids []int64) (*models.Comic, error)
	Drafts(ctx context.Context, userID, limit, offset int) ([]*models.Comic, int64, error)
	Publish(ctx context.Context, userID, comicID int, req models.PublishComicRequest) (*models.Comic, error)
	TrackRead(ctx context.Context, comicID int, viewerID *int) error
	Similar(ctx context.Context, comicID, limit int) ([]*models.Comic, error)
	LastRead(ctx context.Context, userID int) ([]*models.Comic, error)
	Delete(ctx context.Context, userID, comicID int) error
	GenerateDraft(ctx context.Context, userID, comicID int) (*models.Comic, error)
	DraftStatus(ctx context.Context, userID, comicID int) (*models.DraftJob, error)
}

type comicService struct {
	repo      repositories.ComicRepository
	master    repositories.MasterDataRepository
	users     repositories.UserRepository
	generator DraftGenerator
}

func NewComicService(repo repositories.ComicRepository, master repositories.MasterDataRepository, users repositories.UserRepository, generator DraftGenerator) ComicService {
	return &comicService{
		repo:      repo,
		master:    master,
		users:     users,
		generator: generator,
	}
}

func (s *comicService) List(ctx context.Context, f models.ComicFilter, limit, offset int) ([]*models.Comic, int64, error) {
	f.Genre = strings.TrimSpace(f.Genre)
	f.Style = strings.TrimSpace(f.Style)
	f.Search = strings.TrimSpace(f.Search)
	return s.repo.ListPublished(ctx, f, limit, offset)
}

func (s *comicService) get(ctx context.Context, id int) (*models.Comic, error) {
	c, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrComicNotFound
	}
	return c, err
}

// owned returns the comic only if userID created it.
func (s *comicService) owned(ctx context.Context, userID, comicID int) (*models.Comic, error) {
	c, err := s.repo.GetByID(ctx, comicID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrComicForbidden
	}
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrComicForbidden
	}
	return c, nil
}

func (s *comicService) Show(ctx context.Context, id int, viewerID *int) (*models.Comic, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.TrackRead(ctx, id, viewerID); err != nil {
		log.Warn().Err(err).Int("comic_id", id).Msg("[comics][show] view not tracked")
	} else {
		c.TotalViews++
	}
	return c, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *comicService) CreateFromStoryIdea(ctx context.Context, userID int, req models.CreateStoryIdeaRequest) (*models.Comic, error) {
	ids := uniqueIDs(req.GenreIDs)
	names, err := s.master.GenreNamesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(names) != len(ids) {
		return nil, ErrInvalidGenres
	}
	style, err := s.master.StyleByID(ctx, req.StyleID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidStyle
	}
	if err != nil {
		return nil, err
	}

	idea := strings.TrimSpace(req.StoryIdea)
	pages := req.PageCount
	status := models.DraftJobPending
	c := &models.Comic{
		UserID:         userID,
		StoryIdea:      &idea,
		PageCount:      &pages,
		Genre:          names,
		Style:          &style.Name,
		DraftJobStatus: &status,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comic: %w", err)
	}
	log.Info().Int("comic_id", c.ID).Int("user_id", userID).Msg("[comics][story-idea] draft created")
	return c, nil
}

func (s *comicService) UpdateSummary(ctx context.Context, userID, comicID int, summary string) (*models.Comic, error) {
	c, err := s.owned(ctx, userID, comicID)
	if err != nil {
		return nil, err
	}
	c.Summary = &summary
	return c, s.repo.Update(ctx, c)
}

func (s *comicService) UpdateCharacter(ctx context.Context, userID, comicID int, key string) (*models.Comic, error) {
	c, err := s.owned(ctx, userID, comicID)
	if err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	c.SelectedCharacterKey = &key
	return c, s.repo.Update(ctx, c)
}

func (s *comicService) UpdateBackgrounds(ctx context.Context, userID, comicID int, ids []int64) (*models.Comic, error) {
	c, err := s.owned(ctx, userID, comicID)
	if err != nil {
		return nil, err
	}
	ids = uniqueIDs(ids)
	n, err := s.master.CountBackgrounds(ctx, ids)
	if err != nil {
		return nil, err
	}
	if n != len(ids) {
		return nil, ErrInvalidBackgrounds
	}
	c.SelectedBackgrounds = ids
	return c, s.repo.Update(ctx, c)
}

func (s *comicService) Drafts(ctx context.Context, userID, limit, offset int) ([]*models.Comic, int64, error) {
	return s.repo.ListDrafts(ctx, userID, limit, offset)
}

func (s *comicService) Publish(ctx context.Context, userID, comicID int, req models.PublishComicRequest) (*models.Comic, error) {
	c, err := s.owned(ctx, userID, comicID)
	if err != nil {
		return nil, err
	}
	if t := strings.TrimSpace(req.Title); t != "" {
		c.Title = &t
	}
	if syn := strings.TrimSpace(req.Synopsis); syn != "" {
		c.Synopsis = &syn
	}
	if c.Publisher == nil || *c.Publisher == "" {
		if u, err := s.users.GetByID(ctx, c.UserID); err == nil {
			name := u.DisplayName()
			c.Publisher = &name
		}
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	log.Info().Int("comic_id", c.ID).Bool("public", c.IsPublished()).Msg("[comics][publish] updated")
	return c, nil
}

func (s *comicService) TrackRead(ctx context.Context, comicID int, viewerID *int) error {
	err := s.repo.TrackRead(ctx, comicID, viewerID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrComicNotFound
	}
	return err
}

func (s *comicService) Similar(ctx context.Context, comicID, limit int) ([]*models.Comic, error) {
	if limit <= 0 {
		limit = SimilarDefaultLimit
	}
	if limit > SimilarMaxLimit {
		limit = SimilarMaxLimit
	}
	c, err := s.get(ctx, comicID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSimilar(ctx, c, limit)
}

func (s *comicService) LastRead(ctx context.Context, userID int) ([]*models.Comic, error) {
	return s.repo.ListLastRead(ctx, userID, LastReadLimit)
}

func (s *comicService) Delete(ctx context.Context, userID, comicID int) error {
	if _, err := s.owned(ctx, userID, comicID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, comicID)
}

func (s *comicService) GenerateDraft(ctx context.Context, userID, comicID int) (*models.Comic, error) {
	c, err := s.owned(ctx, userID, comicID)
	if err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, ErrGeneratorDisabled
	}
	job, err := s.generator.SubmitDraft(ctx, c)
	if err != nil {
		return nil, err
	}
	status := job.Status
	if status == "" {
		status = models.DraftJobQueued
	}
	if err := s.repo.UpdateDraftJob(ctx, c.ID, job.JobID, status); err != nil {
		return nil, err
	}
	c.DraftJobID = &job.JobID
	c.DraftJobStatus = &status
	log.Info().Int("comic_id", c.ID).Str("job_id", job.JobID).Msg("[comics][generate-draft] submitted")
	return c, nil
}

func (s *comicService) DraftStatus(ctx context.Context, userID, comicID int) (*models.DraftJob, error) {
	c, err := s.owned(ctx, userID, comicID)
	if err != nil {
		return nil, err
	}
	if c.DraftJobID == nil || *c.DraftJobID == "" {
		return nil, ErrNoDraftJob
	}
	if s.generator == nil {
		return nil, ErrGeneratorDisabled
	}
	job, err := s.generator.DraftStatus(ctx, *c.DraftJobID)
	if err != nil {
		return nil, err
	}
	if job.JobID == "" {
		job.JobID = *c.DraftJobID
	}
	current := ""
	if c.DraftJobStatus != nil {
		current = *c.DraftJobStatus
	}
	switch {
	case current == job.Status:
	case canTransition(current, job.Status, DraftJobTransitions):
		if err := s.repo.UpdateDraftJob(ctx, c.ID, "", job.Status); err != nil {
			return nil, err
		}
	default:
		log.Warn().Int("comic_id", c.ID).Str("from", current).Str("to", job.Status).
			Msg("[comics][draft-status] unexpected transition, not stored")
	}
	return job, nil
}
