package postgres

import (
	"context"
	"database/sql"

	"waitlist/internal/domain"
)

type invitationRepository struct {
	DB *sql.DB
}

// NewInvitationRepository returns a domain.InvitationRepository implemented with Postgres.
func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{
		DB: db,
	}
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	metadata, err := encodeJSONMap(inv.Metadata)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO invitations (invitable_type, invitable_id, email, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, inv.InvitableType, inv.InvitableID, inv.Email, metadata, inv.CreatedAt).
		Scan(&inv.ID)
}

func (r *invitationRepository) ListByInvitable(ctx context.Context, target domain.Invitable) ([]*domain.Invitation, error) {
	query := `
		SELECT id, invitable_type, invitable_id, email, metadata, created_at
		FROM invitations
		WHERE invitable_type = $1 AND invitable_id = $2
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, target.Type, target.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invs []*domain.Invitation
	for rows.Next() {
		inv := &domain.Invitation{}
		var metadata []byte
		if err := rows.Scan(&inv.ID, &inv.InvitableType, &inv.InvitableID, &inv.Email, &metadata, &inv.CreatedAt); err != nil {
			return nil, err
		}
		if inv.Metadata, err = decodeJSONMap(metadata); err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if invs == nil {
		invs = []*domain.Invitation{}
	}
	return invs, nil
}
