// Package auth parses externally-issued bearer tokens into an
// authenticated principal. The principal is a last-resort identity source:
// the session-backed pipeline always wins when it has data.
package auth

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

const secretEnvVariable = "IDBRIDGE_AUTH_SECRET"

var (
	errMissingSecret = errors.New("auth secret is not configured")

	secretMu sync.Mutex
	secret   cachedSecret
)

type cachedSecret struct {
	value []byte
	err   error
	ready bool
}

// ErrInvalidToken indicates the bearer token failed validation.
var ErrInvalidToken = errors.New("invalid token")

// Claims mirrors the bearer-token claims this service accepts. Field names
// follow the identity provider's conventions so a token minted against the
// same directory maps cleanly onto a principal.
type Claims struct {
	Name           string   `json:"name,omitempty"`
	GivenName      string   `json:"given_name,omitempty"`
	Email          string   `json:"email,omitempty"`
	OfficeLocation string   `json:"officeLocation,omitempty"`
	JobTitle       string   `json:"jobTitle,omitempty"`
	Roles          []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 bearer token and returns its claims.
// Every failure collapses to ErrInvalidToken; callers treat the request as
// anonymous rather than rejecting it.
func ParseToken(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	secretBytes, err := loadSecret()
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secretBytes, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Principal converts verified claims into the request principal. Empty
// role entries are dropped; order and duplicates are preserved to match
// the rest of the pipeline.
func (c *Claims) Principal() Principal {
	roles := make([]string, 0, len(c.Roles))
	for _, role := range c.Roles {
		if strings.TrimSpace(role) == "" {
			continue
		}
		roles = append(roles, role)
	}
	return Principal{
		UserID:         c.Subject,
		Name:           c.Name,
		FirstName:      c.GivenName,
		Email:          c.Email,
		OfficeLocation: c.OfficeLocation,
		Position:       c.JobTitle,
		Roles:          roles,
		Authenticated:  true,
	}
}

func loadSecret() ([]byte, error) {
	secretMu.Lock()
	defer secretMu.Unlock()
	if secret.ready {
		return secret.value, secret.err
	}
	raw := strings.TrimSpace(os.Getenv(secretEnvVariable))
	if raw == "" {
		secret.err = errMissingSecret
		secret.ready = true
		return nil, secret.err
	}
	secret.value = []byte(raw)
	secret.err = nil
	secret.ready = true
	return secret.value, nil
}

// ResetSecretForTests clears the cached secret value. Only intended for test use.
func ResetSecretForTests() {
	secretMu.Lock()
	defer secretMu.Unlock()
	secret = cachedSecret{}
}
