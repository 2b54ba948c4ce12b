package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atendesk/atendesk/internal/domain"
)

// ClassificationRepository manages closing classifications.
type ClassificationRepository interface {
	Create(ctx context.Context, classification *domain.Classification) error
	Deactivate(ctx context.Context, id string) error
	GetByName(ctx context.Context, name string) (*domain.Classification, error)
	ListActive(ctx context.Context) ([]domain.Classification, error)
}

type classificationRepository struct {
	pool *pgxpool.Pool
}

// NewClassificationRepository constructs repository.
func NewClassificationRepository(pool *pgxpool.Pool) ClassificationRepository {
	return &classificationRepository{pool: pool}
}

func (r *classificationRepository) Create(ctx context.Context, classification *domain.Classification) error {
	const query = `
        INSERT INTO classifications (name, color, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		classification.Name,
		classification.Color,
		classification.IsActive,
	).Scan(&classification.ID, &classification.CreatedAt)
}

// Deactivate soft-deletes a classification so closed conversations keep
// referencing its name.
func (r *classificationRepository) Deactivate(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE classifications SET is_active=FALSE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *classificationRepository) GetByName(ctx context.Context, name string) (*domain.Classification, error) {
	const query = `SELECT id, name, color, is_active, created_at FROM classifications WHERE name=$1`
	var classification domain.Classification
	if err := r.pool.QueryRow(ctx, query, name).Scan(
		&classification.ID,
		&classification.Name,
		&classification.Color,
		&classification.IsActive,
		&classification.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &classification, nil
}

func (r *classificationRepository) ListActive(ctx context.Context) ([]domain.Classification, error) {
	const query = `SELECT id, name, color, is_active, created_at FROM classifications WHERE is_active=TRUE ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Classification
	for rows.Next() {
		var classification domain.Classification
		if err := rows.Scan(
			&classification.ID,
			&classification.Name,
			&classification.Color,
			&classification.IsActive,
			&classification.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, classification)
	}
	return result, rows.Err()
}
