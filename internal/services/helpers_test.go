package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"waitlist/internal/domain"
	"waitlist/internal/repository/memory"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// clock hands out strictly increasing times so ordering assertions are stable.
type clock struct {
	mu  sync.Mutex
	cur time.Time
}

func newClock() *clock {
	return &clock{cur: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

type sentNotification struct {
	EntryID string
	Email   string
	Kind    domain.NotificationKind
	Token   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, e *domain.Entry, kind domain.NotificationKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	n := sentNotification{EntryID: e.ID, Email: e.Email, Kind: kind}
	if e.VerificationToken != nil {
		n.Token = *e.VerificationToken
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) Sent() []sentNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentNotification(nil), f.sent...)
}

func (f *fakeNotifier) count(kind domain.NotificationKind) int {
	n := 0
	for _, s := range f.Sent() {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

type fakeStrategy struct {
	target   *domain.Invitable
	metadata map[string]any
	err      error
}

func (f *fakeStrategy) ResolveInvitable(context.Context, *domain.Entry) (*domain.Invitable, error) {
	return f.target, f.err
}

func (f *fakeStrategy) MapMetadata(context.Context, *domain.Entry) (map[string]any, error) {
	return f.metadata, nil
}

type fakeCreator struct {
	mu     sync.Mutex
	calls  int
	email  string
	target domain.Invitable
	meta   map[string]any
	ref    string
	err    error
}

func (f *fakeCreator) CreateInvitation(_ context.Context, target domain.Invitable, email string, metadata map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.target = target
	f.email = email
	f.meta = metadata
	return f.ref, f.err
}

var errBoom = errors.New("boom")

type fixture struct {
	store     *memory.Store
	clock     *clock
	notifier  *fakeNotifier
	entries   *entryService
	waitlists *waitlistService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	opts     Options
	strategy domain.InvitationStrategy
	creator  domain.InvitationCreator
	metrics  *Metrics
}

func withOptions(o Options) fixtureOption {
	return func(c *fixtureConfig) { c.opts = o }
}

func withBridge(s domain.InvitationStrategy, cr domain.InvitationCreator) fixtureOption {
	return func(c *fixtureConfig) {
		c.strategy = s
		c.creator = cr
	}
}

func withMetrics(m *Metrics) fixtureOption {
	return func(c *fixtureConfig) { c.metrics = m }
}

func newFixture(opts ...fixtureOption) *fixture {
	cfg := fixtureConfig{opts: Options{AutoSendInvitation: true}}
	for _, o := range opts {
		o(&cfg)
	}
	store := memory.NewStore()
	clk := newClock()
	notifier := &fakeNotifier{}

	es := NewEntryService(testLogger, store.Entries(), notifier, cfg.strategy, cfg.creator, cfg.opts, cfg.metrics).(*entryService)
	es.now = clk.Now
	ws := NewWaitlistService(testLogger, store.Waitlists(), store.Entries(), es, cfg.opts).(*waitlistService)
	ws.now = clk.Now

	return &fixture{store: store, clock: clk, notifier: notifier, entries: es, waitlists: ws}
}

func (f *fixture) scope(key string) domain.WaitlistScope {
	sc, err := f.waitlists.For(context.Background(), key)
	if err != nil {
		panic(err)
	}
	return sc
}
