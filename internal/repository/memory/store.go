// Package memory provides in-process repositories with the same atomicity
// guarantees as the Postgres ones. Every mutation runs under a single lock.
package memory

import (
	"maps"
	"sync"

	"github.com/google/uuid"

	"waitlist/internal/domain"
)

// Store holds all waitlist state for one process.
type Store struct {
	mu          sync.RWMutex
	waitlists   map[string]*domain.Waitlist
	slugs       map[string]string
	entries     map[string]*domain.Entry
	tokens      map[string]string
	invitations []*domain.Invitation
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		waitlists: map[string]*domain.Waitlist{},
		slugs:     map[string]string{},
		entries:   map[string]*domain.Entry{},
		tokens:    map[string]string{},
	}
}

// Waitlists returns the store's domain.WaitlistRepository.
func (s *Store) Waitlists() domain.WaitlistRepository { return &waitlistRepository{s: s} }

// Entries returns the store's domain.EntryRepository.
func (s *Store) Entries() domain.EntryRepository { return &entryRepository{s: s} }

// Invitations returns the store's domain.InvitationRepository.
func (s *Store) Invitations() domain.InvitationRepository { return &invitationRepository{s: s} }

func newID() string {
	return uuid.NewString()
}

func copyWaitlist(w *domain.Waitlist) *domain.Waitlist {
	c := *w
	c.Settings = maps.Clone(w.Settings)
	if c.Settings == nil {
		c.Settings = map[string]any{}
	}
	return &c
}

func copyEntry(e *domain.Entry) *domain.Entry {
	c := *e
	c.Metadata = maps.Clone(e.Metadata)
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	return &c
}
