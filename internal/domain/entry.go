package domain

import (
	"context"
	"time"
)

// EntryStatus is the lifecycle status of a waitlist entry.
type EntryStatus string

const (
	StatusPending  EntryStatus = "pending"
	StatusInvited  EntryStatus = "invited"
	StatusRejected EntryStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s EntryStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInvited, StatusRejected:
		return true
	}
	return false
}

// Entry is one registrant on a waitlist.
// swagger:model Entry
type Entry struct {
	ID                string         `json:"id"`
	WaitlistID        string         `json:"waitlist_id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	Status            EntryStatus    `json:"status"`
	InvitedAt         *time.Time     `json:"invited_at"`
	Metadata          map[string]any `json:"metadata"`
	VerificationToken *string        `json:"-"`
	VerifiedAt        *time.Time     `json:"verified_at"`
	InvitationID      *string        `json:"invitation_id"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewEntry returns a pending Entry. ID is typically set by the repository on create.
func NewEntry(waitlistID, name, email string, metadata map[string]any, createdAt, updatedAt time.Time) *Entry {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Entry{
		WaitlistID: waitlistID,
		Name:       name,
		Email:      email,
		Status:     StatusPending,
		Metadata:   metadata,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}

func (e *Entry) IsPending() bool  { return e.Status == StatusPending }
func (e *Entry) IsInvited() bool  { return e.Status == StatusInvited }
func (e *Entry) IsRejected() bool { return e.Status == StatusRejected }
func (e *Entry) IsVerified() bool { return e.VerifiedAt != nil }

// EntryQuery narrows entry listings and counts to one waitlist.
// Listings are ordered by status: pending oldest first, invited most recently
// invited first, anything else newest first.
type EntryQuery struct {
	WaitlistID string
	Status     EntryStatus
	Email      string
	Limit      int
	Offset     int
}

// EntryRepository defines storage operations for waitlist entries.
type EntryRepository interface {
	// Create inserts e and sets its ID. Returns ErrDuplicateEntry when (waitlist, email) exists.
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id string) (*Entry, error)
	GetByEmail(ctx context.Context, waitlistID, email string) (*Entry, error)
	List(ctx context.Context, q EntryQuery) ([]*Entry, error)
	Count(ctx context.Context, q EntryQuery) (int, error)
	// SetVerificationToken replaces the token of an unverified entry.
	// Returns ErrAlreadyVerified when the entry is verified.
	SetVerificationToken(ctx context.Context, id, token string, updatedAt time.Time) (*Entry, error)
	// ConsumeVerificationToken clears token and sets verified_at in one conditional
	// update. Returns ErrNotFound when no entry holds the token.
	ConsumeVerificationToken(ctx context.Context, token string, verifiedAt time.Time) (*Entry, error)
	// Transition moves a pending entry to status. Returns ErrInvalidTransition when the
	// entry exists but is no longer pending.
	Transition(ctx context.Context, id string, status EntryStatus, invitedAt *time.Time, updatedAt time.Time) (*Entry, error)
	SetInvitationID(ctx context.Context, id, invitationID string, updatedAt time.Time) (*Entry, error)
}

// EntryService drives the entry lifecycle and email verification.
type EntryService interface {
	Get(ctx context.Context, id string) (*Entry, error)
	Invite(ctx context.Context, id string) (*Entry, error)
	InviteEntry(ctx context.Context, e *Entry) (*Entry, error)
	Reject(ctx context.Context, id string) (*Entry, error)
	RejectEntry(ctx context.Context, e *Entry) (*Entry, error)
	GenerateVerificationToken(ctx context.Context, e *Entry) (*Entry, error)
	// SendVerification ensures a token exists and dispatches the verification message.
	SendVerification(ctx context.Context, e *Entry) (*Entry, error)
	// Verify consumes token. found is false for unknown or already consumed tokens.
	Verify(ctx context.Context, token string) (entry *Entry, found bool, err error)
}
