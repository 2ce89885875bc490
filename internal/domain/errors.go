package domain

import "errors"

// Sentinel errors shared by repositories and services.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEntry    = errors.New("email already on this waitlist")
	ErrDuplicateSlug     = errors.New("waitlist slug already in use")
	ErrUnverifiedEntry   = errors.New("cannot invite unverified waitlist entry")
	ErrInvalidTransition = errors.New("entry is not pending")
	ErrAlreadyVerified   = errors.New("entry email already verified")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
)

// UnverifiedEntryError is returned by invite when verification is required
// and the entry has not verified its email. It matches ErrUnverifiedEntry.
type UnverifiedEntryError struct {
	Entry *Entry
}

func (e *UnverifiedEntryError) Error() string {
	return ErrUnverifiedEntry.Error()
}

func (e *UnverifiedEntryError) Is(target error) bool {
	return target == ErrUnverifiedEntry
}
