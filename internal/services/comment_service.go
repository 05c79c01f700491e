package services

import (
	"context"
	"errors"
	"strings"

	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
)

var (
	ErrCommentNotFound  = errors.New("comment not found")
	ErrCommentForbidden = errors.New("you can only delete your own comments")
)

type CommentService interface {
	List(ctx context.Context, comicID, limit, offset int) ([]*models.Comment, int64, error)
	Create(ctx context.Context, userID, comicID int, body string) (*models.Comment, error)
	Delete(ctx context.Context, userID, commentID int) error
}

type commentService struct {
	repo   repositories.CommentRepository
	comics repositories.ComicRepository
}

func NewCommentService(repo repositories.CommentRepository, comics repositories.ComicRepository) CommentService {
	return &commentService{repo: repo, comics: comics}
}

func (s *commentService) List(ctx context.Context, comicID, limit, offset int) ([]*models.Comment, int64, error) {
	if _, err := s.comics.GetByID(ctx, comicID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, 0, ErrComicNotFound
		}
		return nil, 0, err
	}
	return s.repo.ListByComic(ctx, comicID, limit, offset)
}

func (s *commentService) Create(ctx context.Context, userID, comicID int, body string) (*models.Comment, error) {
	c := &models.Comment{ComicID: comicID, UserID: userID, Body: strings.TrimSpace(body)}
	err := s.repo.Create(ctx, c)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrComicNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *commentService) Delete(ctx context.Context, userID, commentID int) error {
	c, err := s.repo.GetByID(ctx, commentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrCommentNotFound
	}
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return ErrCommentForbidden
	}
	return s.repo.Delete(ctx, c)
}
