package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
)

var (
	ErrAlreadyLiked = errors.New("comic already liked")
	ErrNotLiked     = errors.New("comic not liked yet")
)

// LikeMilestones are the like counts at which the author gets a milestone notification.
var LikeMilestones = []int64{10, 50, 100, 500, 1000, 5000, 10000}

const (
	likeNotificationTitle      = "Seseorang menyukai komikmu! ❤️"
	milestoneNotificationTitle = "Milestone Tercapai! 🏆"
)

type LikeService interface {
	Like(ctx context.Context, userID, comicID int) (int64, error)
	Unlike(ctx context.Context, userID, comicID int) (int64, error)
	Status(ctx context.Context, userID, comicID int) (bool, int64, error)
	List(ctx context.Context, comicID, limit, offset int) ([]*models.Like, int64, error)
}

type likeService struct {
	repo          repositories.LikeRepository
	comics        repositories.ComicRepository
	users         repositories.UserRepository
	notifications NotificationService
}

func NewLikeService(repo repositories.LikeRepository, comics repositories.ComicRepository, users repositories.UserRepository, notifications NotificationService) LikeService {
	return &likeService{repo: repo, comics: comics, users: users, notifications: notifications}
}

func (s *likeService) comic(ctx context.Context, id int) (*models.Comic, error) {
	c, err := s.comics.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrComicNotFound
	}
	return c, err
}

func isMilestone(n int64) bool {
	for _, m := range LikeMilestones {
		if n == m {
			return true
		}
	}
	return false
}

func (s *likeService) Like(ctx context.Context, userID, comicID int) (int64, error) {
	c, err := s.comic(ctx, comicID)
	if err != nil {
		return 0, err
	}
	total, err := s.repo.Like(ctx, comicID, userID)
	switch {
	case errors.Is(err, repositories.ErrAlreadyExists):
		return c.TotalLikes, ErrAlreadyLiked
	case errors.Is(err, repositories.ErrNotFound):
		return 0, ErrComicNotFound
	case err != nil:
		return 0, err
	}

	// уведомления не должны ломать сам лайк
	s.notifyAuthor(ctx, c, userID, total)
	return total, nil
}

func (s *likeService) notifyAuthor(ctx context.Context, c *models.Comic, likerID int, total int64) {
	if s.notifications == nil {
		return
	}
	title := "Unknown"
	if c.Title != nil && *c.Title != "" {
		title = *c.Title
	}

	if c.UserID != likerID {
		name := "Someone"
		if u, err := s.users.GetByID(ctx, likerID); err == nil {
			name = u.DisplayName()
		}
		msg := fmt.Sprintf("%s menyukai komik '%s'", name, title)
		data := map[string]any{"comic_id": c.ID, "user_id": likerID}
		if err := s.notifications.Notify(ctx, c.UserID, models.NotificationEngagement, likeNotificationTitle, msg, data); err != nil {
			log.Warn().Err(err).Int("comic_id", c.ID).Msg("[likes][notify] engagement failed")
		}
	}

	if isMilestone(total) {
		msg := fmt.Sprintf("Selamat! Komik '%s' sudah mencapai %d likes!", title, total)
		data := map[string]any{"comic_id": c.ID, "likes": total}
		if err := s.notifications.Notify(ctx, c.UserID, models.NotificationMilestone, milestoneNotificationTitle, msg, data); err != nil {
			log.Warn().Err(err).Int("comic_id", c.ID).Msg("[likes][notify] milestone failed")
		}
	}
}

func (s *likeService) Unlike(ctx context.Context, userID, comicID int) (int64, error) {
	if _, err := s.comic(ctx, comicID); err != nil {
		return 0, err
	}
	total, err := s.repo.Unlike(ctx, comicID, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, ErrNotLiked
	}
	return total, err
}

func (s *likeService) Status(ctx context.Context, userID, comicID int) (bool, int64, error) {
	c, err := s.comic(ctx, comicID)
	if err != nil {
		return false, 0, err
	}
	liked, err := s.repo.IsLiked(ctx, comicID, userID)
	return liked, c.TotalLikes, err
}

func (s *likeService) List(ctx context.Context, comicID, limit, offset int) ([]*models.Like, int64, error) {
	if _, err := s.comic(ctx, comicID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByComic(ctx, comicID, limit, offset)
}
