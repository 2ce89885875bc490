package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"waitlist/internal/domain"
)

var slugRegexp = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

type waitlistService struct {
	logger       *slog.Logger
	waitlistRepo domain.WaitlistRepository
	entryRepo    domain.EntryRepository
	entries      domain.EntryService
	opts         Options
	now          func() time.Time
}

// NewWaitlistService creates a WaitlistService. entries is used to send
// verification messages on add when verification is enabled; it may be nil.
func NewWaitlistService(
	logger *slog.Logger,
	waitlistRepo domain.WaitlistRepository,
	entryRepo domain.EntryRepository,
	entries domain.EntryService,
	opts Options,
) domain.WaitlistService {
	return &waitlistService{
		logger:       logger,
		waitlistRepo: waitlistRepo,
		entryRepo:    entryRepo,
		entries:      entries,
		opts:         opts.withDefaults(),
		now:          time.Now,
	}
}

func (s *waitlistService) Create(ctx context.Context, name, slug string, description *string, isActive bool) (*domain.Waitlist, error) {
	ctx, cancel := s.opts.timeout(ctx)
	defer cancel()

	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(strings.ToLower(slug))
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !slugRegexp.MatchString(slug) {
		return nil, fmt.Errorf("%w: slug must be lowercase letters, digits, dashes or underscores", domain.ErrInvalidInput)
	}
	if _, err := uuid.Parse(slug); err == nil {
		return nil, fmt.Errorf("%w: slug must not be a UUID", domain.ErrInvalidInput)
	}
	if description != nil {
		d := strings.TrimSpace(*description)
		description = &d
	}

	now := s.now()
	w := domain.NewWaitlist(name, slug, description, isActive, now, now)
	if err := s.waitlistRepo.Create(ctx, w); err != nil {
		if errors.Is(err, domain.ErrDuplicateSlug) {
			return nil, err
		}
		return nil, fmt.Errorf("create waitlist: %w", err)
	}
	s.logger.Info("waitlist created", "waitlist_id", w.ID, "slug", w.Slug)
	return w, nil
}

func (s *waitlistService) Find(ctx context.Context, slug string) (*domain.Waitlist, error) {
	ctx, cancel := s.opts.timeout(ctx)
	defer cancel()

	w, err := s.waitlistRepo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find waitlist: %w", err)
	}
	return w, nil
}

func (s *waitlistService) List(ctx context.Context) ([]*domain.Waitlist, error) {
	ctx, cancel := s.opts.timeout(ctx)
	defer cancel()

	lists, err := s.waitlistRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list waitlists: %w", err)
	}
	return lists, nil
}

func (s *waitlistService) Default(ctx context.Context) (*domain.Waitlist, error) {
	ctx, cancel := s.opts.timeout(ctx)
	defer cancel()
	return s.defaultWaitlist(ctx)
}

func (s *waitlistService) defaultWaitlist(ctx context.Context) (*domain.Waitlist, error) {
	now := s.now()
	description := defaultWaitlistDescription
	w := domain.NewWaitlist(defaultWaitlistName, s.opts.DefaultSlug, &description, true, now, now)
	got, err := s.waitlistRepo.FirstOrCreate(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("get default waitlist: %w", err)
	}
	return got, nil
}

// resolve looks key up as an ID when it parses as a UUID and as a slug otherwise.
func (s *waitlistService) resolve(ctx context.Context, key string) (*domain.Waitlist, error) {
	key = strings.TrimSpace(key)
	if key == "" || key == s.opts.DefaultSlug {
		return s.defaultWaitlist(ctx)
	}
	var (
		w   *domain.Waitlist
		err error
	)
	if _, perr := uuid.Parse(key); perr == nil {
		w, err = s.waitlistRepo.GetByID(ctx, key)
	} else {
		w, err = s.waitlistRepo.GetBySlug(ctx, key)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("resolve waitlist %q: %w", key, err)
	}
	return w, nil
}

func (s *waitlistService) For(ctx context.Context, key string) (domain.WaitlistScope, error) {
	ctx, cancel := s.opts.timeout(ctx)
	defer cancel()

	w, err := s.resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.ForWaitlist(w), nil
}

func (s *waitlistService) ForWaitlist(w *domain.Waitlist) domain.WaitlistScope {
	return &scope{
		waitlist: w,
		svc:      s,
	}
}

func (s *waitlistService) Activate(ctx context.Context, key string) (*domain.Waitlist, error) {
	return s.setActive(ctx, key, true)
}

func (s *waitlistService) Deactivate(ctx context.Context, key string) (*domain.Waitlist, error) {
	return s.setActive(ctx, key, false)
}

func (s *waitlistService) setActive(ctx context.Context, key string, active bool) (*domain.Waitlist, error) {
	ctx, cancel := s.opts.timeout(ctx)
	defer cancel()

	w, err := s.resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	updated, err := s.waitlistRepo.SetActive(ctx, w.ID, active, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update waitlist: %w", err)
	}
	s.logger.Info("waitlist active flag changed", "waitlist_id", updated.ID, "active", active)
	return updated, nil
}
