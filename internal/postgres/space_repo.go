package postgres

import (
	"context"

	"github.com/cwrk-planet/space-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SpaceRepository читает метаданные пространств, созданных CRUD-сервисом.
// Ядро никогда не пишет в эту таблицу.
type SpaceRepository struct {
	db *pgxpool.Pool
}

func NewSpaceRepository(db *pgxpool.Pool) *SpaceRepository {
	return &SpaceRepository{db: db}
}

func (r *SpaceRepository) Get(ctx context.Context, id string) (*domain.Space, error) {
	var sp domain.Space
	query := `SELECT id, name, width, height, thumbnail, created_at FROM spaces WHERE id=$1`
	err := r.db.QueryRow(ctx, query, id).
		Scan(&sp.ID, &sp.Name, &sp.Width, &sp.Height, &sp.Thumbnail, &sp.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSpaceNotFound
		}
		return nil, err
	}
	return &sp, nil
}
