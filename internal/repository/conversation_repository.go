package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atendesk/atendesk/internal/domain"
)

// ConversationFilter captures listing parameters.
type ConversationFilter struct {
	Status         *domain.ConversationStatus
	TeamID         *string
	AssignedUserID *string
	Limit          int
	Offset         int
}

// ConversationRepository encapsulates conversation persistence.
type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	Update(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	GetByProtocol(ctx context.Context, protocol string) (*domain.Conversation, error)
	FindOpenByContact(ctx context.Context, contactID string) (*domain.Conversation, error)
	ListWithFilter(ctx context.Context, filter ConversationFilter) ([]domain.Conversation, int, error)
	CountByStatus(ctx context.Context) (map[domain.ConversationStatus]int, error)
}

type conversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository instantiates repository.
func NewConversationRepository(pool *pgxpool.Pool) ConversationRepository {
	return &conversationRepository{pool: pool}
}

const conversationColumns = `id, protocol, contact_id, status, team_id, assigned_user_id,
               classification, rating, closing_comments, closed_by_id, closed_at,
               first_response_at, created_at, updated_at`

func (r *conversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	const query = `
        INSERT INTO conversations (protocol, contact_id, status, team_id, assigned_user_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		conv.Protocol,
		conv.ContactID,
		conv.Status,
		conv.TeamID,
		conv.AssignedUserID,
	).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
}

func (r *conversationRepository) Update(ctx context.Context, conv *domain.Conversation) error {
	const query = `
        UPDATE conversations SET status=$1, team_id=$2, assigned_user_id=$3, classification=$4,
            rating=$5, closing_comments=$6, closed_by_id=$7, closed_at=$8, first_response_at=$9,
            updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		conv.Status,
		conv.TeamID,
		conv.AssignedUserID,
		conv.Classification,
		conv.Rating,
		conv.ClosingComments,
		conv.ClosedByID,
		conv.ClosedAt,
		conv.FirstResponseAt,
		conv.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	query := fmt.Sprintf(`SELECT %s FROM conversations WHERE id=$1`, conversationColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *conversationRepository) GetByProtocol(ctx context.Context, protocol string) (*domain.Conversation, error) {
	query := fmt.Sprintf(`SELECT %s FROM conversations WHERE protocol=$1`, conversationColumns)
	return r.fetchSingle(ctx, query, protocol)
}

// FindOpenByContact returns the contact's non-closed conversation, if any.
// Inbound messages attach to it instead of opening a second ticket.
func (r *conversationRepository) FindOpenByContact(ctx context.Context, contactID string) (*domain.Conversation, error) {
	query := fmt.Sprintf(`SELECT %s FROM conversations WHERE contact_id=$1 AND status<>'closed'
        ORDER BY created_at DESC LIMIT 1`, conversationColumns)
	return r.fetchSingle(ctx, query, contactID)
}

func (r *conversationRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&conv.ID,
		&conv.Protocol,
		&conv.ContactID,
		&conv.Status,
		&conv.TeamID,
		&conv.AssignedUserID,
		&conv.Classification,
		&conv.Rating,
		&conv.ClosingComments,
		&conv.ClosedByID,
		&conv.ClosedAt,
		&conv.FirstResponseAt,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) ListWithFilter(ctx context.Context, filter ConversationFilter) ([]domain.Conversation, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		clauses = append(clauses, fmt.Sprintf("team_id=$%d", len(args)))
	}
	if filter.AssignedUserID != nil {
		args = append(args, *filter.AssignedUserID)
		clauses = append(clauses, fmt.Sprintf("assigned_user_id=$%d", len(args)))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM conversations WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM conversations WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		conversationColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := scanConversations(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *conversationRepository) CountByStatus(ctx context.Context) (map[domain.ConversationStatus]int, error) {
	const query = `SELECT status, COUNT(*) FROM conversations GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ConversationStatus]int)
	for rows.Next() {
		var status domain.ConversationStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func scanConversations(rows pgx.Rows) ([]domain.Conversation, error) {
	var result []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(
			&conv.ID,
			&conv.Protocol,
			&conv.ContactID,
			&conv.Status,
			&conv.TeamID,
			&conv.AssignedUserID,
			&conv.Classification,
			&conv.Rating,
			&conv.ClosingComments,
			&conv.ClosedByID,
			&conv.ClosedAt,
			&conv.FirstResponseAt,
			&conv.CreatedAt,
			&conv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, conv)
	}
	return result, rows.Err()
}
