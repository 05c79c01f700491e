package services

import (
	"context"

	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
)

type MasterDataService interface {
	Genres(ctx context.Context) ([]*models.MasterItem, error)
	Styles(ctx context.Context) ([]*models.MasterItem, error)
	Backgrounds(ctx context.Context) ([]*models.MasterItem, error)
}

type masterDataService struct {
	repo repositories.MasterDataRepository
}

func NewMasterDataService(repo repositories.MasterDataRepository) MasterDataService {
	return &masterDataService{repo: repo}
}

func (s *masterDataService) Genres(ctx context.Context) ([]*models.MasterItem, error) {
	return s.repo.ListGenres(ctx)
}

func (s *masterDataService) Styles(ctx context.Context) ([]*models.MasterItem, error) {
	return s.repo.ListStyles(ctx)
}

func (s *masterDataService) Backgrounds(ctx context.Context) ([]*models.MasterItem, error) {
	return s.repo.ListBackgrounds(ctx)
}
