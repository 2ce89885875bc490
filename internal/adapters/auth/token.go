package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"waitlist/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type jwtIssuer struct {
	secret []byte
}

// NewJWTIssuer returns a TokenIssuer that signs JWTs with HS256 using the given secret.
func NewJWTIssuer(secret string) domain.TokenIssuer {
	return &jwtIssuer{secret: []byte(secret)}
}

func (i *jwtIssuer) Issue(subject, email string, roles []string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Email: email,
		Roles: roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

type jwtVerifier struct {
	secret []byte
}

// NewJWTVerifier returns a TokenVerifier for tokens issued by NewJWTIssuer with the same secret.
func NewJWTVerifier(secret string) domain.TokenVerifier {
	return &jwtVerifier{secret: []byte(secret)}
}

func (v *jwtVerifier) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}

// OperatorRole is the role carried by operator tokens.
const OperatorRole = "operator"

type operatorAuthenticator struct {
	email        string
	passwordHash string
	hasher       domain.PasswordHasher
	issuer       domain.TokenIssuer
	expiry       time.Duration
}

// NewOperatorAuthenticator checks credentials against the single configured
// operator account and issues a token on success.
func NewOperatorAuthenticator(email, passwordHash string, hasher domain.PasswordHasher, issuer domain.TokenIssuer, expiry time.Duration) domain.OperatorAuthenticator {
	return &operatorAuthenticator{
		email:        email,
		passwordHash: passwordHash,
		hasher:       hasher,
		issuer:       issuer,
		expiry:       expiry,
	}
}

func (a *operatorAuthenticator) Authenticate(_ context.Context, email, password string) (string, error) {
	if a.email == "" || a.passwordHash == "" {
		return "", domain.ErrUnauthorized
	}
	if !strings.EqualFold(strings.TrimSpace(email), a.email) {
		return "", domain.ErrUnauthorized
	}
	if err := a.hasher.Compare(a.passwordHash, password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", domain.ErrUnauthorized
		}
		return "", fmt.Errorf("compare password: %w", err)
	}
	return a.issuer.Issue(a.email, a.email, []string{OperatorRole}, a.expiry)
}
