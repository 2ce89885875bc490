package memory

import (
	"context"
	"sort"
	"time"

	"waitlist/internal/domain"
)

type entryRepository struct {
	s *Store
}

func (r *entryRepository) Create(ctx context.Context, e *domain.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.waitlists[e.WaitlistID]; !ok {
		return domain.ErrNotFound
	}
	for _, existing := range r.s.entries {
		if existing.WaitlistID == e.WaitlistID && existing.Email == e.Email {
			return domain.ErrDuplicateEntry
		}
	}
	e.ID = newID()
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	r.s.entries[e.ID] = copyEntry(e)
	return nil
}

func (r *entryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyEntry(e), nil
}

func (r *entryRepository) GetByEmail(ctx context.Context, waitlistID, email string) (*domain.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.entries {
		if e.WaitlistID == waitlistID && e.Email == email {
			return copyEntry(e), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *entryRepository) matchLocked(q domain.EntryQuery) []*domain.Entry {
	var out []*domain.Entry
	for _, e := range r.s.entries {
		if e.WaitlistID != q.WaitlistID {
			continue
		}
		if q.Status != "" && e.Status != q.Status {
			continue
		}
		if q.Email != "" && e.Email != q.Email {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (r *entryRepository) List(ctx context.Context, q domain.EntryQuery) ([]*domain.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := r.matchLocked(q)
	sortEntries(matched, q.Status)

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[q.Offset:]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	entries := make([]*domain.Entry, 0, len(matched))
	for _, e := range matched {
		entries = append(entries, copyEntry(e))
	}
	return entries, nil
}

func sortEntries(entries []*domain.Entry, status domain.EntryStatus) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch status {
		case domain.StatusPending:
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID < b.ID
			}
			return a.CreatedAt.Before(b.CreatedAt)
		case domain.StatusInvited:
			if a.InvitedAt != nil && b.InvitedAt != nil && !a.InvitedAt.Equal(*b.InvitedAt) {
				return a.InvitedAt.After(*b.InvitedAt)
			}
			return a.ID > b.ID
		default:
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID > b.ID
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
}

func (r *entryRepository) Count(ctx context.Context, q domain.EntryQuery) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.matchLocked(q)), nil
}

func (r *entryRepository) SetVerificationToken(ctx context.Context, id, token string, updatedAt time.Time) (*domain.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if e.VerifiedAt != nil {
		return nil, domain.ErrAlreadyVerified
	}
	if e.VerificationToken != nil {
		delete(r.s.tokens, *e.VerificationToken)
	}
	t := token
	e.VerificationToken = &t
	e.UpdatedAt = updatedAt
	r.s.tokens[token] = id
	return copyEntry(e), nil
}

func (r *entryRepository) ConsumeVerificationToken(ctx context.Context, token string, verifiedAt time.Time) (*domain.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(r.s.tokens, token)
	e := r.s.entries[id]
	at := verifiedAt
	e.VerificationToken = nil
	e.VerifiedAt = &at
	e.UpdatedAt = verifiedAt
	return copyEntry(e), nil
}

func (r *entryRepository) Transition(ctx context.Context, id string, status domain.EntryStatus, invitedAt *time.Time, updatedAt time.Time) (*domain.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if e.Status != domain.StatusPending {
		return nil, domain.ErrInvalidTransition
	}
	e.Status = status
	if invitedAt != nil {
		at := *invitedAt
		e.InvitedAt = &at
	} else {
		e.InvitedAt = nil
	}
	e.UpdatedAt = updatedAt
	return copyEntry(e), nil
}

func (r *entryRepository) SetInvitationID(ctx context.Context, id, invitationID string, updatedAt time.Time) (*domain.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ref := invitationID
	e.InvitationID = &ref
	e.UpdatedAt = updatedAt
	return copyEntry(e), nil
}
