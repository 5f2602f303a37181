package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/propernest/lettings/internal/domain"
	"github.com/propernest/lettings/internal/repository"
)

// ToggleResult reports which way a favorite toggle went.
type ToggleResult struct {
	Added    bool             `json:"added"`
	Favorite *domain.Favorite `json:"favorite,omitempty"`
}

type FavoriteService interface {
	Toggle(ctx context.Context, userID, propertyID int64) (*ToggleResult, error)
	List(ctx context.Context, userID int64) ([]domain.FavoriteWithProperty, error)
}

type favoriteService struct {
	favoriteRepo repository.FavoriteRepository
	propertyRepo repository.PropertyRepository
}

func NewFavoriteService(favoriteRepo repository.FavoriteRepository, propertyRepo repository.PropertyRepository) FavoriteService {
	return &favoriteService{
		favoriteRepo: favoriteRepo,
		propertyRepo: propertyRepo,
	}
}

// Toggle adds the property to the user's favorites, or removes it when
// it is already there.
func (s *favoriteService) Toggle(ctx context.Context, userID, propertyID int64) (*ToggleResult, error) {
	property, err := s.propertyRepo.FindByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to find property: %w", err)
	}
	if property == nil {
		return nil, fmt.Errorf("%w: property", domain.ErrNotFound)
	}

	existing, err := s.favoriteRepo.Find(ctx, userID, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check favorite: %w", err)
	}

	if existing != nil {
		if err := s.favoriteRepo.Delete(ctx, userID, propertyID); err != nil {
			return nil, fmt.Errorf("failed to remove favorite: %w", err)
		}
		return &ToggleResult{Added: false}, nil
	}

	favorite, err := s.favoriteRepo.Create(ctx, userID, propertyID)
	if err != nil {
		// A concurrent toggle beat us to it; treat as already added.
		if errors.Is(err, domain.ErrConflict) {
			return &ToggleResult{Added: true}, nil
		}
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}

	return &ToggleResult{Added: true, Favorite: favorite}, nil
}

func (s *favoriteService) List(ctx context.Context, userID int64) ([]domain.FavoriteWithProperty, error) {
	favorites, err := s.favoriteRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}
