// Package repository opens the storage backend selected at startup.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"waitlist/internal/domain"
	"waitlist/internal/repository/memory"
	"waitlist/internal/repository/postgres"
)

// Repositories groups the repositories of one storage backend.
type Repositories struct {
	Waitlists   domain.WaitlistRepository
	Entries     domain.EntryRepository
	Invitations domain.InvitationRepository

	ping  func(ctx context.Context) error
	close func() error
}

// OpenPostgres connects to dsn, applies pending migrations and returns the
// Postgres repositories.
func OpenPostgres(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return NewPostgres(db), nil
}

// NewPostgres wraps an open database.
func NewPostgres(db *sql.DB) *Repositories {
	return &Repositories{
		Waitlists:   postgres.NewWaitlistRepository(db),
		Entries:     postgres.NewEntryRepository(db),
		Invitations: postgres.NewInvitationRepository(db),
		ping:        db.PingContext,
		close:       db.Close,
	}
}

// NewMemory returns repositories backed by a fresh in-process store.
func NewMemory() *Repositories {
	s := memory.NewStore()
	return &Repositories{
		Waitlists:   s.Waitlists(),
		Entries:     s.Entries(),
		Invitations: s.Invitations(),
	}
}

// Ping reports whether the backend is reachable.
func (r *Repositories) Ping(ctx context.Context) error {
	if r.ping == nil {
		return nil
	}
	return r.ping(ctx)
}

func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}
