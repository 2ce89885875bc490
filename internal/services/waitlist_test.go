package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlist/internal/domain"
)

func TestWaitlistService_Default_creates_once(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	w1, err := f.waitlists.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, "default", w1.Slug)
	assert.Equal(t, "Default Waitlist", w1.Name)
	assert.True(t, w1.IsActive)

	w2, err := f.waitlists.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, w1.ID, w2.ID)

	lists, err := f.waitlists.List(ctx)
	require.NoError(t, err)
	assert.Len(t, lists, 1)
}

func TestWaitlistService_Default_concurrent_callers_share_one_waitlist(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	const n = 20
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := f.waitlists.Default(ctx)
			if err == nil {
				ids[i] = w.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	lists, err := f.waitlists.List(ctx)
	require.NoError(t, err)
	assert.Len(t, lists, 1)
}

func TestWaitlistService_Default_honours_configured_slug(t *testing.T) {
	f := newFixture(withOptions(Options{DefaultSlug: "early-access"}))
	w, err := f.waitlists.Default(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "early-access", w.Slug)

	sc := f.scope("")
	assert.Equal(t, w.ID, sc.Waitlist().ID)
}

func TestWaitlistService_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	desc := "  Closed beta  "

	w, err := f.waitlists.Create(ctx, "Beta", "beta", &desc, true)
	require.NoError(t, err)
	assert.NotEmpty(t, w.ID)
	require.NotNil(t, w.Description)
	assert.Equal(t, "Closed beta", *w.Description)

	_, err = f.waitlists.Create(ctx, "Beta again", "beta", nil, true)
	assert.ErrorIs(t, err, domain.ErrDuplicateSlug)

	for _, slug := range []string{"", "Has Space", "-lead", "3f1c2b4e-8a9d-4e2f-9b7a-1c2d3e4f5a6b"} {
		_, err = f.waitlists.Create(ctx, "X", slug, nil, true)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "slug %q", slug)
	}
	_, err = f.waitlists.Create(ctx, "  ", "empty-name", nil, true)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWaitlistService_Find(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.waitlists.Create(ctx, "Beta", "beta", nil, true)
	require.NoError(t, err)

	w, err := f.waitlists.Find(ctx, "beta")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "Beta", w.Name)

	w, err = f.waitlists.Find(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestWaitlistService_For_resolves_by_slug_or_id(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	beta, err := f.waitlists.Create(ctx, "Beta", "beta", nil, true)
	require.NoError(t, err)

	bySlug, err := f.waitlists.For(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, beta.ID, bySlug.Waitlist().ID)

	byID, err := f.waitlists.For(ctx, beta.ID)
	require.NoError(t, err)
	assert.Equal(t, beta.ID, byID.Waitlist().ID)

	_, err = f.waitlists.For(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.waitlists.For(ctx, "3f1c2b4e-8a9d-4e2f-9b7a-1c2d3e4f5a6b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWaitlistService_Activate_Deactivate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.waitlists.Create(ctx, "Beta", "beta", nil, true)
	require.NoError(t, err)

	w, err := f.waitlists.Deactivate(ctx, "beta")
	require.NoError(t, err)
	assert.False(t, w.IsActive)

	w, err = f.waitlists.Activate(ctx, "beta")
	require.NoError(t, err)
	assert.True(t, w.IsActive)

	_, err = f.waitlists.Activate(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScope_Add_normalizes_and_rejects_duplicates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sc := f.scope("")

	e, err := sc.Add(ctx, " Ada ", "  Ada@Example.COM ", map[string]any{"source": "landing"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", e.Name)
	assert.Equal(t, "ada@example.com", e.Email)
	assert.Equal(t, domain.StatusPending, e.Status)
	assert.Equal(t, sc.Waitlist().ID, e.WaitlistID)
	assert.Nil(t, e.InvitedAt)
	assert.Nil(t, e.VerificationToken)
	assert.Equal(t, "landing", e.Metadata["source"])

	_, err = sc.Add(ctx, "Ada", "ada@example.com", nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)

	_, err = sc.Add(ctx, "Bob", "not-an-email", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = sc.Add(ctx, "", "bob@example.com", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Empty(t, f.notifier.Sent())
}

func TestScope_same_email_on_two_waitlists(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.waitlists.Create(ctx, "Beta", "beta", nil, true)
	require.NoError(t, err)
	_, err = f.waitlists.Create(ctx, "Launch", "launch", nil, true)
	require.NoError(t, err)
	beta, launch := f.scope("beta"), f.scope("launch")

	a, err := beta.Add(ctx, "Ada", "ada@example.com", nil)
	require.NoError(t, err)
	b, err := launch.Add(ctx, "Ada", "ada@example.com", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	_, err = f.entries.InviteEntry(ctx, a)
	require.NoError(t, err)

	got, err := launch.GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusPending, got.Status)

	n, err := beta.CountInvited(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = launch.CountInvited(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestScope_queries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sc := f.scope("")

	var added []*domain.Entry
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"} {
		e, err := sc.Add(ctx, "N", email, nil)
		require.NoError(t, err)
		added = append(added, e)
	}
	_, err := f.entries.InviteEntry(ctx, added[2])
	require.NoError(t, err)
	_, err = f.entries.InviteEntry(ctx, added[0])
	require.NoError(t, err)
	_, err = f.entries.RejectEntry(ctx, added[3])
	require.NoError(t, err)

	pending, err := sc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b@example.com", pending[0].Email)

	invited, err := sc.Invited(ctx)
	require.NoError(t, err)
	require.Len(t, invited, 2)
	assert.Equal(t, "a@example.com", invited[0].Email, "most recently invited first")
	assert.Equal(t, "c@example.com", invited[1].Email)

	all, err := sc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "d@example.com", all[0].Email, "newest first")

	stats, err := sc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &domain.WaitlistStats{Total: 4, Pending: 1, Invited: 2}, stats)

	exists, err := sc.Exists(ctx, "B@EXAMPLE.COM")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = sc.Exists(ctx, "z@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	missing, err := sc.GetByEmail(ctx, "z@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	page, total, err := sc.Page(ctx, "", domain.PaginationParams{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page, 1)
	assert.Equal(t, "a@example.com", page[0].Email)

	_, _, err = sc.Page(ctx, "archived", domain.PaginationParams{Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestScope_Pending_is_fifo(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sc := f.scope("")
	for _, email := range []string{"first@example.com", "second@example.com", "third@example.com"} {
		_, err := sc.Add(ctx, "N", email, nil)
		require.NoError(t, err)
	}

	pending, err := sc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "first@example.com", pending[0].Email)
	assert.Equal(t, "third@example.com", pending[2].Email)
}

func TestScope_Waitlist_returns_copy(t *testing.T) {
	f := newFixture()
	sc := f.scope("")
	w := sc.Waitlist()
	w.Name = "changed"
	w.Settings["k"] = "v"

	again := sc.Waitlist()
	assert.Equal(t, "Default Waitlist", again.Name)
	assert.NotContains(t, again.Settings, "k")
}

func TestScope_Add_sends_verification_when_enabled(t *testing.T) {
	f := newFixture(withOptions(Options{VerificationEnabled: true, RequireVerificationBeforeInvite: true}))
	ctx := context.Background()

	e, err := f.scope("").Add(ctx, "Ada", "ada@example.com", nil)
	require.NoError(t, err)
	require.NotNil(t, e.VerificationToken)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.NotificationVerification, sent[0].Kind)
	assert.Equal(t, *e.VerificationToken, sent[0].Token)
}

func TestScope_Add_succeeds_when_verification_dispatch_fails(t *testing.T) {
	f := newFixture(withOptions(Options{VerificationEnabled: true}))
	f.notifier.err = errBoom

	ctx := context.Background()
	e, err := f.scope("").Add(ctx, "Ada", "ada@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, e.Status)
	require.NotNil(t, e.VerificationToken)

	stored, err := f.entries.Get(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationToken)
	assert.Equal(t, *stored.VerificationToken, *e.VerificationToken)
}
