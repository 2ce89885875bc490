package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"waitlist/internal/domain"
)

const waitlistColumns = `id, name, slug, description, is_active, settings, created_at, updated_at`

type waitlistRepository struct {
	DB *sql.DB
}

// NewWaitlistRepository returns a domain.WaitlistRepository implemented with Postgres.
func NewWaitlistRepository(db *sql.DB) domain.WaitlistRepository {
	return &waitlistRepository{DB: db}
}

func scanWaitlist(row rowScanner) (*domain.Waitlist, error) {
	w := &domain.Waitlist{}
	var (
		description sql.NullString
		settings    []byte
	)
	if err := row.Scan(&w.ID, &w.Name, &w.Slug, &description, &w.IsActive, &settings, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.Description = stringPtr(description)
	m, err := decodeJSONMap(settings)
	if err != nil {
		return nil, err
	}
	w.Settings = m
	return w, nil
}

func (r *waitlistRepository) Create(ctx context.Context, w *domain.Waitlist) error {
	settings, err := encodeJSONMap(w.Settings)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO waitlists (name, slug, description, is_active, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err = r.DB.QueryRowContext(ctx, query, w.Name, w.Slug, w.Description, w.IsActive, settings, w.CreatedAt, w.UpdatedAt).
		Scan(&w.ID)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return domain.ErrDuplicateSlug
		}
		return err
	}
	return nil
}

func (r *waitlistRepository) GetByID(ctx context.Context, id string) (*domain.Waitlist, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlists WHERE id = $1`
	w, err := scanWaitlist(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgCode(err) == pgInvalidTextRepr {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

func (r *waitlistRepository) GetBySlug(ctx context.Context, slug string) (*domain.Waitlist, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlists WHERE slug = $1`
	w, err := scanWaitlist(r.DB.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

// FirstOrCreate relies on the unique slug constraint: the insert is a no-op when
// another caller won the race, and the winner's row is read back.
func (r *waitlistRepository) FirstOrCreate(ctx context.Context, w *domain.Waitlist) (*domain.Waitlist, error) {
	settings, err := encodeJSONMap(w.Settings)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO waitlists (name, slug, description, is_active, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO NOTHING
		RETURNING ` + waitlistColumns
	created, err := scanWaitlist(r.DB.QueryRowContext(ctx, query, w.Name, w.Slug, w.Description, w.IsActive, settings, w.CreatedAt, w.UpdatedAt))
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return r.GetBySlug(ctx, w.Slug)
}

func (r *waitlistRepository) SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) (*domain.Waitlist, error) {
	query := `
		UPDATE waitlists SET is_active = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + waitlistColumns
	w, err := scanWaitlist(r.DB.QueryRowContext(ctx, query, id, active, updatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgCode(err) == pgInvalidTextRepr {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

func (r *waitlistRepository) List(ctx context.Context) ([]*domain.Waitlist, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlists ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []*domain.Waitlist
	for rows.Next() {
		w, err := scanWaitlist(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []*domain.Waitlist{}
	}
	return lists, nil
}
