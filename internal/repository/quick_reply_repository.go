package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atendesk/atendesk/internal/domain"
)

// QuickReplyRepository manages persistence for canned replies.
type QuickReplyRepository interface {
	Create(ctx context.Context, reply *domain.QuickReply) error
	Update(ctx context.Context, reply *domain.QuickReply) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.QuickReply, error)
	ListActive(ctx context.Context, teamID *string) ([]domain.QuickReply, error)
}

type quickReplyRepository struct {
	pool *pgxpool.Pool
}

// NewQuickReplyRepository constructs repository.
func NewQuickReplyRepository(pool *pgxpool.Pool) QuickReplyRepository {
	return &quickReplyRepository{pool: pool}
}

const quickReplyColumns = `id, title, content, shortcut, team_id, is_active, created_at, updated_at`

func (r *quickReplyRepository) Create(ctx context.Context, reply *domain.QuickReply) error {
	const query = `
        INSERT INTO quick_replies (title, content, shortcut, team_id, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		reply.Title,
		reply.Content,
		reply.Shortcut,
		reply.TeamID,
		reply.IsActive,
	).Scan(&reply.ID, &reply.CreatedAt, &reply.UpdatedAt)
}

func (r *quickReplyRepository) Update(ctx context.Context, reply *domain.QuickReply) error {
	const query = `
        UPDATE quick_replies SET title=$1, content=$2, shortcut=$3, team_id=$4, is_active=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		reply.Title,
		reply.Content,
		reply.Shortcut,
		reply.TeamID,
		reply.IsActive,
		reply.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *quickReplyRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM quick_replies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *quickReplyRepository) GetByID(ctx context.Context, id string) (*domain.QuickReply, error) {
	var reply domain.QuickReply
	if err := r.pool.QueryRow(ctx, `SELECT `+quickReplyColumns+` FROM quick_replies WHERE id=$1`, id).Scan(
		&reply.ID,
		&reply.Title,
		&reply.Content,
		&reply.Shortcut,
		&reply.TeamID,
		&reply.IsActive,
		&reply.CreatedAt,
		&reply.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ListActive returns active replies; with teamID set, team-scoped replies
// plus global ones.
func (r *quickReplyRepository) ListActive(ctx context.Context, teamID *string) ([]domain.QuickReply, error) {
	query := `SELECT ` + quickReplyColumns + ` FROM quick_replies WHERE is_active=TRUE`
	args := []any{}
	if teamID != nil {
		query += ` AND (team_id=$1 OR team_id IS NULL)`
		args = append(args, *teamID)
	}
	query += ` ORDER BY title`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.QuickReply
	for rows.Next() {
		var reply domain.QuickReply
		if err := rows.Scan(
			&reply.ID,
			&reply.Title,
			&reply.Content,
			&reply.Shortcut,
			&reply.TeamID,
			&reply.IsActive,
			&reply.CreatedAt,
			&reply.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, reply)
	}
	return result, rows.Err()
}
