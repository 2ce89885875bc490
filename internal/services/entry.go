package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"waitlist/internal/domain"
)

type entryService struct {
	logger    *slog.Logger
	entryRepo domain.EntryRepository
	notifier  domain.Notifier
	strategy  domain.InvitationStrategy
	creator   domain.InvitationCreator
	opts      Options
	metrics   *Metrics
	now       func() time.Time
}

// NewEntryService creates an EntryService. notifier, strategy, creator and
// metrics are optional; a nil strategy or creator disables the invitation bridge.
func NewEntryService(
	logger *slog.Logger,
	entryRepo domain.EntryRepository,
	notifier domain.Notifier,
	strategy domain.InvitationStrategy,
	creator domain.InvitationCreator,
	opts Options,
	metrics *Metrics,
) domain.EntryService {
	return &entryService{
		logger:    logger,
		entryRepo: entryRepo,
		notifier:  notifier,
		strategy:  strategy,
		creator:   creator,
		opts:      opts.withDefaults(),
		metrics:   metrics,
		now:       time.Now,
	}
}

func (s *entryService) Get(ctx context.Context, id string) (*domain.Entry, error) {
	ctx, cancel := s.opts.timeout(ctx)
	defer cancel()

	e, err := s.entryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

func (s *entryService) Invite(ctx context.Context, id string) (*domain.Entry, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.InviteEntry(ctx, e)
}

// InviteEntry moves a pending entry to invited. When the invitation bridge
// fails after the transition the invited entry is returned alongside the error.
func (s *entryService) InviteEntry(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	ctx, cancel := s.opts.timeout(ctx)
	defer cancel()

	current, err := s.entryRepo.GetByID(ctx, e.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("invite entry: %w", err)
	}
	if current.Status != domain.StatusPending {
		return nil, domain.ErrInvalidTransition
	}
	if s.opts.verificationRequired() && !current.IsVerified() {
		return nil, &domain.UnverifiedEntryError{Entry: current}
	}

	now := s.now()
	invited, err := s.entryRepo.Transition(ctx, e.ID, domain.StatusInvited, &now, now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("invite entry: %w", err)
	}
	s.metrics.transition(domain.StatusInvited)
	s.logger.Info("entry invited", "entry_id", invited.ID, "waitlist_id", invited.WaitlistID)

	if s.opts.AutoSendInvitation {
		s.notify(ctx, invited, s.opts.InviteNotification)
	}

	bridged, err := s.bridge(ctx, invited)
	if err != nil {
		s.logger.Error("invitation bridge failed", "entry_id", invited.ID, "error", err)
		return invited, fmt.Errorf("create invitation: %w", err)
	}
	return bridged, nil
}

func (s *entryService) Reject(ctx context.Context, id string) (*domain.Entry, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.RejectEntry(ctx, e)
}

func (s *entryService) RejectEntry(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	ctx, cancel := s.opts.timeout(ctx)
	defer cancel()

	rejected, err := s.entryRepo.Transition(ctx, e.ID, domain.StatusRejected, nil, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("reject entry: %w", err)
	}
	s.metrics.transition(domain.StatusRejected)
	s.logger.Info("entry rejected", "entry_id", rejected.ID, "waitlist_id", rejected.WaitlistID)
	return rejected, nil
}

func (s *entryService) GenerateVerificationToken(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	ctx, cancel := s.opts.timeout(ctx)
	defer cancel()

	if e.IsVerified() {
		return nil, domain.ErrAlreadyVerified
	}
	token, err := newVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}
	updated, err := s.entryRepo.SetVerificationToken(ctx, e.ID, token, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyVerified) {
			return nil, err
		}
		return nil, fmt.Errorf("store verification token: %w", err)
	}
	return updated, nil
}

// SendVerification emails the entry's verification link. An outstanding token
// is reused so links from earlier emails keep working; one is generated only
// when the entry has none.
func (s *entryService) SendVerification(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	updated, err := s.ensureVerificationToken(ctx, e)
	if err != nil {
		return nil, err
	}
	if s.notifier == nil {
		return updated, nil
	}

	ctx, cancel := s.opts.timeout(ctx)
	defer cancel()

	err = s.notifier.Send(ctx, updated, domain.NotificationVerification)
	s.metrics.notification(domain.NotificationVerification, err)
	if err != nil {
		return updated, fmt.Errorf("send verification: %w", err)
	}
	return updated, nil
}

func (s *entryService) ensureVerificationToken(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	if e.VerificationToken == nil {
		return s.GenerateVerificationToken(ctx, e)
	}
	current, err := s.Get(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	if current.IsVerified() {
		return nil, domain.ErrAlreadyVerified
	}
	if current.VerificationToken == nil {
		return s.GenerateVerificationToken(ctx, current)
	}
	return current, nil
}

func (s *entryService) Verify(ctx context.Context, token string) (*domain.Entry, bool, error) {
	if token == "" {
		s.metrics.verification(false)
		return nil, false, nil
	}

	ctx, cancel := s.opts.timeout(ctx)
	defer cancel()

	e, err := s.entryRepo.ConsumeVerificationToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.verification(false)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("verify entry: %w", err)
	}
	s.metrics.verification(true)
	s.logger.Info("entry verified", "entry_id", e.ID)
	return e, true, nil
}

func (s *entryService) notify(ctx context.Context, e *domain.Entry, kind domain.NotificationKind) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Send(ctx, e, kind)
	s.metrics.notification(kind, err)
	if err != nil {
		s.logger.Warn("notification dispatch failed", "entry_id", e.ID, "kind", kind, "error", err)
	}
}

// bridge hands an invited entry to the external invitation system and records
// the returned reference on the entry.
func (s *entryService) bridge(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	if s.strategy == nil || s.creator == nil {
		return e, nil
	}
	target, err := s.strategy.ResolveInvitable(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("resolve invitable: %w", err)
	}
	if target == nil {
		return e, nil
	}
	metadata, err := s.strategy.MapMetadata(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("map metadata: %w", err)
	}
	ref, err := s.creator.CreateInvitation(ctx, *target, e.Email, metadata)
	if err != nil {
		return nil, err
	}
	if ref == "" {
		return e, nil
	}
	updated, err := s.entryRepo.SetInvitationID(ctx, e.ID, ref, s.now())
	if err != nil {
		return nil, fmt.Errorf("record invitation id: %w", err)
	}
	s.logger.Info("invitation created", "entry_id", e.ID, "invitation_id", ref, "invitable_type", target.Type)
	return updated, nil
}
