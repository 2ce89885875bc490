package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"waitlist/internal/domain"
)

const entryColumns = `id, waitlist_id, name, email, status, invited_at, metadata, verification_token, verified_at, invitation_id, created_at, updated_at`

type entryRepository struct {
	DB *sql.DB
}

// NewEntryRepository returns a domain.EntryRepository implemented with Postgres.
func NewEntryRepository(db *sql.DB) domain.EntryRepository {
	return &entryRepository{DB: db}
}

func scanEntry(row rowScanner) (*domain.Entry, error) {
	e := &domain.Entry{}
	var (
		waitlistID   sql.NullString
		status       string
		invitedAt    sql.NullTime
		metadata     []byte
		token        sql.NullString
		verifiedAt   sql.NullTime
		invitationID sql.NullString
	)
	err := row.Scan(&e.ID, &waitlistID, &e.Name, &e.Email, &status, &invitedAt, &metadata,
		&token, &verifiedAt, &invitationID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.WaitlistID = waitlistID.String
	e.Status = domain.EntryStatus(status)
	e.InvitedAt = timePtr(invitedAt)
	e.VerificationToken = stringPtr(token)
	e.VerifiedAt = timePtr(verifiedAt)
	e.InvitationID = stringPtr(invitationID)
	m, err := decodeJSONMap(metadata)
	if err != nil {
		return nil, err
	}
	e.Metadata = m
	return e, nil
}

func (r *entryRepository) Create(ctx context.Context, e *domain.Entry) error {
	metadata, err := encodeJSONMap(e.Metadata)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO waitlist_entries (waitlist_id, name, email, status, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err = r.DB.QueryRowContext(ctx, query, e.WaitlistID, e.Name, e.Email, string(e.Status), metadata, e.CreatedAt, e.UpdatedAt).
		Scan(&e.ID)
	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			return domain.ErrDuplicateEntry
		case pgForeignKeyViolation, pgInvalidTextRepr:
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *entryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM waitlist_entries WHERE id = $1`
	e, err := scanEntry(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgCode(err) == pgInvalidTextRepr {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *entryRepository) GetByEmail(ctx context.Context, waitlistID, email string) (*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM waitlist_entries WHERE waitlist_id = $1 AND email = $2`
	e, err := scanEntry(r.DB.QueryRowContext(ctx, query, waitlistID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgCode(err) == pgInvalidTextRepr {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func entryWhere(q domain.EntryQuery) (string, []any) {
	clauses := []string{"waitlist_id = $1"}
	args := []any{q.WaitlistID}
	if q.Status != "" {
		args = append(args, string(q.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.Email != "" {
		args = append(args, q.Email)
		clauses = append(clauses, fmt.Sprintf("email = $%d", len(args)))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func entryOrder(status domain.EntryStatus) string {
	switch status {
	case domain.StatusPending:
		return " ORDER BY created_at ASC, id ASC"
	case domain.StatusInvited:
		return " ORDER BY invited_at DESC, id DESC"
	default:
		return " ORDER BY created_at DESC, id DESC"
	}
}

func (r *entryRepository) List(ctx context.Context, q domain.EntryQuery) ([]*domain.Entry, error) {
	where, args := entryWhere(q)
	query := `SELECT ` + entryColumns + ` FROM waitlist_entries` + where + entryOrder(q.Status)
	if q.Limit > 0 {
		args = append(args, q.Limit, q.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		if pgCode(err) == pgInvalidTextRepr {
			return []*domain.Entry{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.Entry{}
	}
	return entries, nil
}

func (r *entryRepository) Count(ctx context.Context, q domain.EntryQuery) (int, error) {
	where, args := entryWhere(q)
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM waitlist_entries`+where, args...).Scan(&n)
	if err != nil {
		if pgCode(err) == pgInvalidTextRepr {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

func (r *entryRepository) SetVerificationToken(ctx context.Context, id, token string, updatedAt time.Time) (*domain.Entry, error) {
	query := `
		UPDATE waitlist_entries SET verification_token = $2, updated_at = $3
		WHERE id = $1 AND verified_at IS NULL
		RETURNING ` + entryColumns
	e, err := scanEntry(r.DB.QueryRowContext(ctx, query, id, token, updatedAt))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		if pgCode(err) == pgInvalidTextRepr {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return nil, r.missOrState(ctx, id, domain.ErrAlreadyVerified)
}

// ConsumeVerificationToken matches and clears the token in a single UPDATE, so
// at most one concurrent caller gets the row back.
func (r *entryRepository) ConsumeVerificationToken(ctx context.Context, token string, verifiedAt time.Time) (*domain.Entry, error) {
	query := `
		UPDATE waitlist_entries SET verification_token = NULL, verified_at = $2, updated_at = $2
		WHERE verification_token = $1
		RETURNING ` + entryColumns
	e, err := scanEntry(r.DB.QueryRowContext(ctx, query, token, verifiedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *entryRepository) Transition(ctx context.Context, id string, status domain.EntryStatus, invitedAt *time.Time, updatedAt time.Time) (*domain.Entry, error) {
	query := `
		UPDATE waitlist_entries SET status = $2, invited_at = $3, updated_at = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + entryColumns
	e, err := scanEntry(r.DB.QueryRowContext(ctx, query, id, string(status), invitedAt, updatedAt))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		if pgCode(err) == pgInvalidTextRepr {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return nil, r.missOrState(ctx, id, domain.ErrInvalidTransition)
}

func (r *entryRepository) SetInvitationID(ctx context.Context, id, invitationID string, updatedAt time.Time) (*domain.Entry, error) {
	query := `
		UPDATE waitlist_entries SET invitation_id = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + entryColumns
	e, err := scanEntry(r.DB.QueryRowContext(ctx, query, id, invitationID, updatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgCode(err) == pgInvalidTextRepr {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// missOrState explains a conditional update that matched no row: stateErr when
// the entry exists, ErrNotFound otherwise.
func (r *entryRepository) missOrState(ctx context.Context, id string, stateErr error) error {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM waitlist_entries WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return stateErr
}
