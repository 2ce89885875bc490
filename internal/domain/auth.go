package domain

import (
	"context"
	"time"
)

// PasswordHasher hashes and verifies operator passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated operator.
type TokenIssuer interface {
	Issue(subject, email string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}

// OperatorAuthenticator exchanges operator credentials for a bearer token.
type OperatorAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (token string, err error)
}
