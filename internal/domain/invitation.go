package domain

import (
	"context"
	"time"
)

// Invitable identifies the instance an external invitation grants access to.
type Invitable struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// InvitationStrategy decides whether and how an invited entry becomes an
// external invitation.
type InvitationStrategy interface {
	// ResolveInvitable returns nil when no invitation should be created for e.
	ResolveInvitable(ctx context.Context, e *Entry) (*Invitable, error)
	MapMetadata(ctx context.Context, e *Entry) (map[string]any, error)
}

// InvitationCreator creates invitations in the external access system and
// returns their reference id.
type InvitationCreator interface {
	CreateInvitation(ctx context.Context, target Invitable, email string, metadata map[string]any) (string, error)
}

// Invitation is an access grant recorded in the invitation store.
// swagger:model Invitation
type Invitation struct {
	ID            string         `json:"id"`
	InvitableType string         `json:"invitable_type"`
	InvitableID   string         `json:"invitable_id"`
	Email         string         `json:"email"`
	Metadata      map[string]any `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
}

// InvitationRepository defines storage operations for invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	ListByInvitable(ctx context.Context, target Invitable) ([]*Invitation, error)
}
