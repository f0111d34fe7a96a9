package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/postgres"
)

type SpaceService struct {
	spaceRepo *postgres.SpaceRepository
}

func NewSpaceService(spaceRepo *postgres.SpaceRepository) *SpaceService {
	return &SpaceService{spaceRepo: spaceRepo}
}

// GetSpace возвращает метаданные пространства по ID.
// Пространство с нулевой или отрицательной стороной считается непригодным
// для подключения, даже если строка есть в базе.
func (s *SpaceService) GetSpace(ctx context.Context, id string) (domain.Space, error) {
	sp, err := s.spaceRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSpaceNotFound) {
			return domain.Space{}, domain.ErrSpaceNotFound
		}
		return domain.Space{}, fmt.Errorf("spaceRepo.Get: %w", err)
	}
	if sp.Width <= 0 || sp.Height <= 0 {
		return domain.Space{}, domain.ErrInvalidSpaceSize
	}
	return *sp, nil
}
