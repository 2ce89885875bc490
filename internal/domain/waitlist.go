package domain

import (
	"context"
	"time"
)

// Waitlist is a named, slugged collection of entries.
// swagger:model Waitlist
type Waitlist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description *string        `json:"description,omitempty"`
	IsActive    bool           `json:"is_active"`
	Settings    map[string]any `json:"settings"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewWaitlist returns a new Waitlist with the given fields. ID is typically set by the repository on create.
func NewWaitlist(name, slug string, description *string, isActive bool, createdAt, updatedAt time.Time) *Waitlist {
	return &Waitlist{
		Name:        name,
		Slug:        slug,
		Description: description,
		IsActive:    isActive,
		Settings:    map[string]any{},
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// WaitlistRepository defines storage operations for waitlists.
type WaitlistRepository interface {
	// Create inserts w and sets its ID. Returns ErrDuplicateSlug when the slug is taken.
	Create(ctx context.Context, w *Waitlist) error
	GetByID(ctx context.Context, id string) (*Waitlist, error)
	GetBySlug(ctx context.Context, slug string) (*Waitlist, error)
	// FirstOrCreate returns the waitlist keyed by w.Slug, inserting w if none exists.
	// Concurrent callers with the same slug all observe the same record.
	FirstOrCreate(ctx context.Context, w *Waitlist) (*Waitlist, error)
	SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) (*Waitlist, error)
	List(ctx context.Context) ([]*Waitlist, error)
}

// WaitlistStats holds entry counts for one waitlist.
// swagger:model WaitlistStats
type WaitlistStats struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Invited int `json:"invited"`
}

// WaitlistScope is an immutable accessor whose entry operations are confined to one waitlist.
type WaitlistScope interface {
	Waitlist() *Waitlist
	// Add registers a pending entry. Returns ErrDuplicateEntry when the email is already on the waitlist.
	Add(ctx context.Context, name, email string, metadata map[string]any) (*Entry, error)
	// GetByEmail returns nil, nil when no entry matches.
	GetByEmail(ctx context.Context, email string) (*Entry, error)
	Exists(ctx context.Context, email string) (bool, error)
	// All lists entries newest first.
	All(ctx context.Context) ([]*Entry, error)
	// Pending lists pending entries oldest first.
	Pending(ctx context.Context) ([]*Entry, error)
	// Invited lists invited entries most recently invited first.
	Invited(ctx context.Context) ([]*Entry, error)
	// Page lists one page of entries with the given status ("" for any) and the total count.
	Page(ctx context.Context, status EntryStatus, params PaginationParams) ([]*Entry, int, error)
	Count(ctx context.Context) (int, error)
	CountPending(ctx context.Context) (int, error)
	CountInvited(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*WaitlistStats, error)
}

// WaitlistService manages waitlists and resolves the scope entry operations run in.
type WaitlistService interface {
	Create(ctx context.Context, name, slug string, description *string, isActive bool) (*Waitlist, error)
	// Find returns nil, nil when no waitlist has the slug.
	Find(ctx context.Context, slug string) (*Waitlist, error)
	List(ctx context.Context) ([]*Waitlist, error)
	// Default returns the default waitlist, creating it on first use.
	Default(ctx context.Context) (*Waitlist, error)
	// For resolves key as a waitlist ID or slug. An empty key or the default slug selects the default waitlist.
	For(ctx context.Context, key string) (WaitlistScope, error)
	// ForWaitlist scopes to an already loaded waitlist.
	ForWaitlist(w *Waitlist) WaitlistScope
	Activate(ctx context.Context, key string) (*Waitlist, error)
	Deactivate(ctx context.Context, key string) (*Waitlist, error)
}
