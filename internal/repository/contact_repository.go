package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atendesk/atendesk/internal/domain"
)

// ContactRepository manages persistence for WhatsApp contacts.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	Update(ctx context.Context, contact *domain.Contact) error
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	GetByRemoteJID(ctx context.Context, remoteJID string) (*domain.Contact, error)
	List(ctx context.Context, search string, limit, offset int) ([]domain.Contact, error)
}

type contactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository constructs repository.
func NewContactRepository(pool *pgxpool.Pool) ContactRepository {
	return &contactRepository{pool: pool}
}

const contactColumns = `id, remote_jid, phone_number, push_name, custom_name,
               profile_picture_url, first_contact_at, last_contact_at`

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	const query = `
        INSERT INTO contacts (remote_jid, phone_number, push_name, custom_name, profile_picture_url)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, first_contact_at, last_contact_at`
	return r.pool.QueryRow(ctx, query,
		contact.RemoteJID,
		contact.PhoneNumber,
		contact.PushName,
		contact.CustomName,
		contact.ProfilePictureURL,
	).Scan(&contact.ID, &contact.FirstContactAt, &contact.LastContactAt)
}

func (r *contactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	const query = `
        UPDATE contacts SET phone_number=$1, push_name=$2, custom_name=$3,
            profile_picture_url=$4, last_contact_at=$5
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		contact.PhoneNumber,
		contact.PushName,
		contact.CustomName,
		contact.ProfilePictureURL,
		contact.LastContactAt,
		contact.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *contactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE id=$1`, contactColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *contactRepository) GetByRemoteJID(ctx context.Context, remoteJID string) (*domain.Contact, error) {
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE remote_jid=$1`, contactColumns)
	return r.fetchSingle(ctx, query, remoteJID)
}

func (r *contactRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Contact, error) {
	var contact domain.Contact
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&contact.ID,
		&contact.RemoteJID,
		&contact.PhoneNumber,
		&contact.PushName,
		&contact.CustomName,
		&contact.ProfilePictureURL,
		&contact.FirstContactAt,
		&contact.LastContactAt,
	); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepository) List(ctx context.Context, search string, limit, offset int) ([]domain.Contact, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if strings.TrimSpace(search) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(search))+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(push_name) LIKE %s OR LOWER(custom_name) LIKE %s OR phone_number LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE %s ORDER BY last_contact_at DESC LIMIT %d OFFSET %d`,
		contactColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Contact
	for rows.Next() {
		var contact domain.Contact
		if err := rows.Scan(
			&contact.ID,
			&contact.RemoteJID,
			&contact.PhoneNumber,
			&contact.PushName,
			&contact.CustomName,
			&contact.ProfilePictureURL,
			&contact.FirstContactAt,
			&contact.LastContactAt,
		); err != nil {
			return nil, err
		}
		result = append(result, contact)
	}
	return result, rows.Err()
}
