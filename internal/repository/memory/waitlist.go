package memory

import (
	"context"
	"sort"
	"time"

	"waitlist/internal/domain"
)

type waitlistRepository struct {
	s *Store
}

func (r *waitlistRepository) Create(ctx context.Context, w *domain.Waitlist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.slugs[w.Slug]; ok {
		return domain.ErrDuplicateSlug
	}
	r.insertLocked(w)
	return nil
}

func (r *waitlistRepository) insertLocked(w *domain.Waitlist) {
	w.ID = newID()
	if w.Settings == nil {
		w.Settings = map[string]any{}
	}
	r.s.waitlists[w.ID] = copyWaitlist(w)
	r.s.slugs[w.Slug] = w.ID
}

func (r *waitlistRepository) GetByID(ctx context.Context, id string) (*domain.Waitlist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.waitlists[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyWaitlist(w), nil
}

func (r *waitlistRepository) GetBySlug(ctx context.Context, slug string) (*domain.Waitlist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.slugs[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyWaitlist(r.s.waitlists[id]), nil
}

func (r *waitlistRepository) FirstOrCreate(ctx context.Context, w *domain.Waitlist) (*domain.Waitlist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if id, ok := r.s.slugs[w.Slug]; ok {
		return copyWaitlist(r.s.waitlists[id]), nil
	}
	r.insertLocked(w)
	return copyWaitlist(w), nil
}

func (r *waitlistRepository) SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) (*domain.Waitlist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.waitlists[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	w.IsActive = active
	w.UpdatedAt = updatedAt
	return copyWaitlist(w), nil
}

func (r *waitlistRepository) List(ctx context.Context) ([]*domain.Waitlist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	lists := make([]*domain.Waitlist, 0, len(r.s.waitlists))
	for _, w := range r.s.waitlists {
		lists = append(lists, copyWaitlist(w))
	}
	sort.SliceStable(lists, func(i, j int) bool {
		return lists[i].CreatedAt.Before(lists[j].CreatedAt)
	})
	return lists, nil
}
