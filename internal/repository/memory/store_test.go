package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlist/internal/domain"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func seedWaitlist(t *testing.T, s *Store, slug string) *domain.Waitlist {
	t.Helper()
	w := domain.NewWaitlist(slug, slug, nil, true, t0, t0)
	require.NoError(t, s.Waitlists().Create(context.Background(), w))
	return w
}

func seedEntry(t *testing.T, s *Store, waitlistID, email string, at time.Time) *domain.Entry {
	t.Helper()
	e := domain.NewEntry(waitlistID, "Someone", email, nil, at, at)
	require.NoError(t, s.Entries().Create(context.Background(), e))
	return e
}

func TestWaitlistRepository(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Waitlists()

	w := seedWaitlist(t, s, "beta")
	require.NotEmpty(t, w.ID)

	err := repo.Create(ctx, domain.NewWaitlist("Other", "beta", nil, true, t0, t0))
	require.ErrorIs(t, err, domain.ErrDuplicateSlug)

	got, err := repo.GetBySlug(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	off, err := repo.SetActive(ctx, w.ID, false, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, off.IsActive)
	assert.Equal(t, t0.Add(time.Hour), off.UpdatedAt)

	// returned records are copies
	got.Name = "mutated"
	again, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "beta", again.Name)
}

func TestWaitlistRepository_FirstOrCreate_concurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Waitlists()

	const n = 20
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := repo.FirstOrCreate(ctx, domain.NewWaitlist("Default Waitlist", "default", nil, true, t0, t0))
			if err == nil {
				ids[i] = w.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	lists, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, lists, 1)
}

func TestEntryRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedWaitlist(t, s, "a")
	b := seedWaitlist(t, s, "b")
	repo := s.Entries()

	e := seedEntry(t, s, a.ID, "jane@example.com", t0)
	assert.Equal(t, domain.StatusPending, e.Status)

	err := repo.Create(ctx, domain.NewEntry(a.ID, "Jane", "jane@example.com", nil, t0, t0))
	require.ErrorIs(t, err, domain.ErrDuplicateEntry)

	// same email on another waitlist is a separate entry
	seedEntry(t, s, b.ID, "jane@example.com", t0)

	err = repo.Create(ctx, domain.NewEntry("missing", "Jane", "x@example.com", nil, t0, t0))
	require.ErrorIs(t, err, domain.ErrNotFound)

	got, err := repo.GetByEmail(ctx, a.ID, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	_, err = repo.GetByEmail(ctx, a.ID, "nobody@example.com")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEntryRepository_ListOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	w := seedWaitlist(t, s, "beta")
	repo := s.Entries()

	first := seedEntry(t, s, w.ID, "first@example.com", t0)
	second := seedEntry(t, s, w.ID, "second@example.com", t0.Add(time.Minute))
	third := seedEntry(t, s, w.ID, "third@example.com", t0.Add(2*time.Minute))

	pending, err := repo.List(ctx, domain.EntryQuery{WaitlistID: w.ID, Status: domain.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, entryIDs(pending))

	all, err := repo.List(ctx, domain.EntryQuery{WaitlistID: w.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, entryIDs(all))

	inviteAt := func(id string, at time.Time) {
		_, err := repo.Transition(ctx, id, domain.StatusInvited, &at, at)
		require.NoError(t, err)
	}
	inviteAt(third.ID, t0.Add(time.Hour))
	inviteAt(first.ID, t0.Add(2*time.Hour))

	invited, err := repo.List(ctx, domain.EntryQuery{WaitlistID: w.ID, Status: domain.StatusInvited})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, third.ID}, entryIDs(invited))

	n, err := repo.Count(ctx, domain.EntryQuery{WaitlistID: w.ID, Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	page, err := repo.List(ctx, domain.EntryQuery{WaitlistID: w.ID, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, entryIDs(page))

	beyond, err := repo.List(ctx, domain.EntryQuery{WaitlistID: w.ID, Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.NotNil(t, beyond)
	assert.Empty(t, beyond)
}

func TestEntryRepository_Transition(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	w := seedWaitlist(t, s, "beta")
	repo := s.Entries()
	e := seedEntry(t, s, w.ID, "jane@example.com", t0)

	rejected, err := repo.Transition(ctx, e.ID, domain.StatusRejected, nil, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, rejected.IsRejected())
	assert.Nil(t, rejected.InvitedAt)

	at := t0.Add(time.Hour)
	_, err = repo.Transition(ctx, e.ID, domain.StatusInvited, &at, at)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = repo.Transition(ctx, "missing", domain.StatusInvited, &at, at)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEntryRepository_Transition_concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	w := seedWaitlist(t, s, "beta")
	repo := s.Entries()
	e := seedEntry(t, s, w.ID, "jane@example.com", t0)

	const n = 16
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			at := t0.Add(time.Hour)
			if _, err := repo.Transition(ctx, e.ID, domain.StatusInvited, &at, at); err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, won)
}

func TestEntryRepository_VerificationToken(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	w := seedWaitlist(t, s, "beta")
	repo := s.Entries()
	e := seedEntry(t, s, w.ID, "jane@example.com", t0)

	_, err := repo.SetVerificationToken(ctx, e.ID, "old", t0)
	require.NoError(t, err)
	withNew, err := repo.SetVerificationToken(ctx, e.ID, "new", t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "new", *withNew.VerificationToken)

	// the replaced token no longer verifies
	_, err = repo.ConsumeVerificationToken(ctx, "old", t0.Add(time.Hour))
	require.ErrorIs(t, err, domain.ErrNotFound)

	verified, err := repo.ConsumeVerificationToken(ctx, "new", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, verified.IsVerified())
	assert.Nil(t, verified.VerificationToken)

	_, err = repo.ConsumeVerificationToken(ctx, "new", t0.Add(2*time.Hour))
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.SetVerificationToken(ctx, e.ID, "again", t0.Add(3*time.Hour))
	require.ErrorIs(t, err, domain.ErrAlreadyVerified)

	_, err = repo.SetVerificationToken(ctx, "missing", "x", t0)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEntryRepository_SetInvitationID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	w := seedWaitlist(t, s, "beta")
	e := seedEntry(t, s, w.ID, "jane@example.com", t0)

	got, err := s.Entries().SetInvitationID(ctx, e.ID, "inv-1", t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "inv-1", *got.InvitationID)

	_, err = s.Entries().SetInvitationID(ctx, "missing", "inv-1", t0)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvitationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Invitations()
	org := domain.Invitable{Type: "organization", ID: "org-1"}

	first := &domain.Invitation{InvitableType: org.Type, InvitableID: org.ID, Email: "a@example.com", CreatedAt: t0}
	second := &domain.Invitation{InvitableType: org.Type, InvitableID: org.ID, Email: "b@example.com", CreatedAt: t0.Add(time.Minute)}
	other := &domain.Invitation{InvitableType: "team", InvitableID: "t-1", Email: "c@example.com", CreatedAt: t0}
	for _, inv := range []*domain.Invitation{first, second, other} {
		require.NoError(t, repo.Create(ctx, inv))
		require.NotEmpty(t, inv.ID)
	}

	got, err := repo.ListByInvitable(ctx, org)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)

	none, err := repo.ListByInvitable(ctx, domain.Invitable{Type: "organization", ID: "org-9"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func entryIDs(entries []*domain.Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
