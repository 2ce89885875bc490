package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlist/internal/domain"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	token, err := issuer.Issue("ops@example.com", "ops@example.com", []string{OperatorRole}, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Parse and verify claims
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, []string{OperatorRole}, claims.Roles)
}

func TestJWTVerifier_Verify(t *testing.T) {
	issuer := NewJWTIssuer("secret-a")

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		secret  string
		wantSub string
		wantErr bool
	}{
		{
			name: "valid token",
			token: func(t *testing.T) string {
				tok, err := issuer.Issue("ops", "ops@example.com", nil, time.Hour)
				require.NoError(t, err)
				return tok
			},
			secret:  "secret-a",
			wantSub: "ops",
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				tok, err := issuer.Issue("ops", "ops@example.com", nil, time.Hour)
				require.NoError(t, err)
				return tok
			},
			secret:  "secret-b",
			wantErr: true,
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				tok, err := issuer.Issue("ops", "ops@example.com", nil, -time.Minute)
				require.NoError(t, err)
				return tok
			},
			secret:  "secret-a",
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   func(t *testing.T) string { return "not-a-jwt" },
			secret:  "secret-a",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := NewJWTVerifier(tt.secret).Verify(tt.token(t))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrUnauthorized))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, sub)
		})
	}
}

func TestOperatorAuthenticator_Authenticate(t *testing.T) {
	hasher := NewBcryptHasher(4)
	hash, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)
	issuer := NewJWTIssuer("secret")
	authn := NewOperatorAuthenticator("ops@example.com", hash, hasher, issuer, time.Hour)

	t.Run("valid credentials issue a verifiable token", func(t *testing.T) {
		token, err := authn.Authenticate(context.Background(), " OPS@example.com ", "s3cret-pass")
		require.NoError(t, err)
		sub, err := NewJWTVerifier("secret").Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "ops@example.com", sub)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := authn.Authenticate(context.Background(), "ops@example.com", "nope")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := authn.Authenticate(context.Background(), "other@example.com", "s3cret-pass")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("no operator configured", func(t *testing.T) {
		a := NewOperatorAuthenticator("", "", hasher, issuer, time.Hour)
		_, err := a.Authenticate(context.Background(), "", "")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
