package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"waitlist/internal/domain"
)

// scope confines entry operations to one waitlist. It is never mutated after
// construction, so it is safe to share between goroutines.
type scope struct {
	waitlist *domain.Waitlist
	svc      *waitlistService
}

func (c *scope) Waitlist() *domain.Waitlist {
	w := *c.waitlist
	w.Settings = maps.Clone(c.waitlist.Settings)
	return &w
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (c *scope) Add(ctx context.Context, name, email string, metadata map[string]any) (*domain.Entry, error) {
	s := c.svc
	ctx, cancel := s.opts.timeout(ctx)
	defer cancel()

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}

	now := s.now()
	entry := domain.NewEntry(c.waitlist.ID, name, email, maps.Clone(metadata), now, now)
	if err := s.entryRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create entry: %w", err)
	}
	s.logger.Info("entry added", "waitlist_id", c.waitlist.ID, "entry_id", entry.ID)

	if s.opts.VerificationEnabled && s.entries != nil {
		sent, err := s.entries.SendVerification(ctx, entry)
		if err != nil {
			s.logger.Warn("verification dispatch failed", "entry_id", entry.ID, "error", err)
		}
		if sent != nil {
			entry = sent
		}
	}
	return entry, nil
}

func (c *scope) GetByEmail(ctx context.Context, email string) (*domain.Entry, error) {
	s := c.svc
	ctx, cancel := s.opts.timeout(ctx)
	defer cancel()

	e, err := s.entryRepo.GetByEmail(ctx, c.waitlist.ID, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get entry by email: %w", err)
	}
	return e, nil
}

func (c *scope) Exists(ctx context.Context, email string) (bool, error) {
	n, err := c.count(ctx, domain.EntryQuery{Email: normalizeEmail(email)})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *scope) All(ctx context.Context) ([]*domain.Entry, error) {
	return c.list(ctx, domain.EntryQuery{})
}

func (c *scope) Pending(ctx context.Context) ([]*domain.Entry, error) {
	return c.list(ctx, domain.EntryQuery{Status: domain.StatusPending})
}

func (c *scope) Invited(ctx context.Context) ([]*domain.Entry, error) {
	return c.list(ctx, domain.EntryQuery{Status: domain.StatusInvited})
}

func (c *scope) Page(ctx context.Context, status domain.EntryStatus, params domain.PaginationParams) ([]*domain.Entry, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	total, err := c.count(ctx, domain.EntryQuery{Status: status})
	if err != nil {
		return nil, 0, err
	}
	entries, err := c.list(ctx, domain.EntryQuery{
		Status: status,
		Limit:  params.Limit(),
		Offset: params.Offset(),
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (c *scope) Count(ctx context.Context) (int, error) {
	return c.count(ctx, domain.EntryQuery{})
}

func (c *scope) CountPending(ctx context.Context) (int, error) {
	return c.count(ctx, domain.EntryQuery{Status: domain.StatusPending})
}

func (c *scope) CountInvited(ctx context.Context) (int, error) {
	return c.count(ctx, domain.EntryQuery{Status: domain.StatusInvited})
}

func (c *scope) Stats(ctx context.Context) (*domain.WaitlistStats, error) {
	total, err := c.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := c.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	invited, err := c.CountInvited(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.WaitlistStats{Total: total, Pending: pending, Invited: invited}, nil
}

func (c *scope) list(ctx context.Context, q domain.EntryQuery) ([]*domain.Entry, error) {
	ctx, cancel := c.svc.opts.timeout(ctx)
	defer cancel()

	q.WaitlistID = c.waitlist.ID
	entries, err := c.svc.entryRepo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

func (c *scope) count(ctx context.Context, q domain.EntryQuery) (int, error) {
	ctx, cancel := c.svc.opts.timeout(ctx)
	defer cancel()

	q.WaitlistID = c.waitlist.ID
	n, err := c.svc.entryRepo.Count(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}
