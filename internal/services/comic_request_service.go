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

// ComicRequestCost: цена заказа печатного комикса в кредитах.
const ComicRequestCost int64 = 20

// InsufficientCreditsError несёт цену и доступный остаток для ответа клиенту.
type InsufficientCreditsError struct {
	Cost, Available int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("Insufficient credits. Cost: %d, Available: %d", e.Cost, e.Available)
}

func (e *InsufficientCreditsError) Is(target error) bool { return target == ErrInsufficientKredit }

type ComicRequestService interface {
	Create(ctx context.Context, userID int, req models.CreateComicRequestRequest) (*models.ComicRequest, int64, error)
	List(ctx context.Context, userID, limit, offset int) ([]*models.ComicRequest, int64, error)
}

type comicRequestService struct {
	repo repositories.ComicRequestRepository
}

func NewComicRequestService(repo repositories.ComicRequestRepository) ComicRequestService {
	return &comicRequestService{repo: repo}
}

func (s *comicRequestService) Create(ctx context.Context, userID int, req models.CreateComicRequestRequest) (*models.ComicRequest, int64, error) {
	cr := &models.ComicRequest{
		UserID:          userID,
		RecipientName:   strings.TrimSpace(req.RecipientName),
		PhoneNumber:     strings.TrimSpace(req.PhoneNumber),
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		Notes:           req.Notes,
	}
	left, err := s.repo.CreateCharged(ctx, cr, ComicRequestCost)
	switch {
	case errors.Is(err, repositories.ErrInsufficientCredit):
		return nil, left, &InsufficientCreditsError{Cost: ComicRequestCost, Available: left}
	case errors.Is(err, repositories.ErrNotFound):
		return nil, 0, ErrUserNotFound
	case err != nil:
		return nil, 0, fmt.Errorf("create comic request: %w", err)
	}
	log.Info().Int("user_id", userID).Int64("request_id", cr.ID).Int64("kredit_left", left).Msg("[comic-requests][create] order placed")
	return cr, left, nil
}

func (s *comicRequestService) List(ctx context.Context, userID, limit, offset int) ([]*models.ComicRequest, int64, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
