// Package auth issues and verifies the bearer tokens that gate the workload HTTP API.
//
// A token grants scopes and may be narrowed to a set of trainer usernames, so a
// gym front-end can be handed a token that only reads its own trainers.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config holds the shared HMAC secret and the expected issuer.
type Config struct {
	Secret string
	// Issuer is enforced when non-empty.
	Issuer string
}

// Grant describes what an issued token allows.
type Grant struct {
	Subject string
	Scopes  []string
	// Trainers limits the token to these usernames. Empty allows every trainer.
	Trainers []string
}

// Claims is the verified view of a presented token.
type Claims struct {
	Subject   string
	Scopes    map[string]struct{}
	Trainers  map[string]struct{}
	ExpiresAt time.Time
}

var (
	// ErrMissingToken is returned when no bearer token was presented.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken wraps signature, expiry and claim failures.
	ErrInvalidToken = errors.New("invalid bearer token")
)

// tokenClaims is the wire form. scope follows the space-delimited OAuth convention.
type tokenClaims struct {
	Scope    string   `json:"scope,omitempty"`
	Trainers []string `json:"trainers,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs a token for grant that expires after ttl.
func Issue(cfg Config, grant Grant, ttl time.Duration) (string, error) {
	if strings.TrimSpace(grant.Subject) == "" {
		return "", errors.New("token subject is required")
	}
	now := time.Now()
	claims := tokenClaims{
		Scope:    strings.Join(grant.Scopes, " "),
		Trainers: grant.Trainers,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   grant.Subject,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies token against cfg.
func Parse(token string, cfg Config) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	var wire tokenClaims
	if _, err := jwt.ParseWithClaims(token, &wire, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if wire.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Claims{
		Subject:   wire.Subject,
		Scopes:    toSet(strings.Fields(wire.Scope)),
		Trainers:  toSet(wire.Trainers),
		ExpiresAt: wire.ExpiresAt.Time,
	}, nil
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out[v] = struct{}{}
		}
	}
	return out
}

// HasScope reports whether the token grants scope.
func (c *Claims) HasScope(scope string) bool {
	if c == nil {
		return false
	}
	_, ok := c.Scopes[scope]
	return ok
}

// CanAccess reports whether the token may act on the named trainer's workload.
func (c *Claims) CanAccess(username string) bool {
	if c == nil {
		return false
	}
	if len(c.Trainers) == 0 {
		return true
	}
	_, ok := c.Trainers[username]
	return ok
}
