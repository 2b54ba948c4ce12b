package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atendesk/atendesk/internal/domain"
)

// MessageRepository encapsulates message persistence.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByConversation(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
	GetByWhatsAppID(ctx context.Context, whatsappID string) (*domain.Message, error)
	UpdateDeliveryStatus(ctx context.Context, whatsappID string, status domain.DeliveryStatus) error
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository instantiates repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

const messageColumns = `id, conversation_id, whatsapp_id, remote_jid, from_me, message_type,
               content, media_url, media_mimetype, media_filename, quoted_message_id,
               delivery_status, timestamp`

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (conversation_id, whatsapp_id, remote_jid, from_me, message_type,
            content, media_url, media_mimetype, media_filename, quoted_message_id, delivery_status, timestamp)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		msg.ConversationID,
		msg.WhatsAppID,
		msg.RemoteJID,
		msg.FromMe,
		msg.Type,
		msg.Content,
		msg.MediaURL,
		msg.MediaMimeType,
		msg.MediaFilename,
		msg.QuotedMessageID,
		msg.DeliveryStatus,
		msg.Timestamp,
	).Scan(&msg.ID)
}

// ListByConversation returns the thread ordered oldest first.
func (r *messageRepository) ListByConversation(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 200
	}
	query := `SELECT ` + messageColumns + ` FROM (
            SELECT ` + messageColumns + ` FROM messages WHERE conversation_id=$1
            ORDER BY timestamp DESC LIMIT $2
        ) latest ORDER BY timestamp ASC`
	rows, err := r.pool.Query(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *messageRepository) GetByWhatsAppID(ctx context.Context, whatsappID string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE whatsapp_id=$1 LIMIT 1`
	rows, err := r.pool.Query(ctx, query, whatsappID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &msgs[0], nil
}

func (r *messageRepository) UpdateDeliveryStatus(ctx context.Context, whatsappID string, status domain.DeliveryStatus) error {
	const query = `UPDATE messages SET delivery_status=$1 WHERE whatsapp_id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, whatsappID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.WhatsAppID,
			&msg.RemoteJID,
			&msg.FromMe,
			&msg.Type,
			&msg.Content,
			&msg.MediaURL,
			&msg.MediaMimeType,
			&msg.MediaFilename,
			&msg.QuotedMessageID,
			&msg.DeliveryStatus,
			&msg.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
