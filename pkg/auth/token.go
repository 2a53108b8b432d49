// Package auth verifies bearer tokens and carries the resulting identity
// through request contexts.
package auth

import (
	"context"
	"errors"
	"time"

	"medibuddy/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrBadToken    = errors.New("invalid token")
	ErrMissingRole = errors.New("token carries no role")
)

type Claims struct {
	UserID string     `json:"uid"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller as seen by the services.
type Identity struct {
	UserID string
	Role   model.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

func (i Identity) IsDoctor() bool {
	return i.Role == model.RoleDoctor
}

type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *Signer) Issue(id Identity) (string, error) {
	now := s.now()
	c := Claims{
		UserID: id.UserID,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *Signer) Parse(raw string) (Identity, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// only HMAC, never "none" or asymmetric algorithms
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Identity{}, errors.Join(ErrBadToken, err)
	}

	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || c.UserID == "" {
		return Identity{}, ErrBadToken
	}
	switch c.Role {
	case model.RolePatient, model.RoleDoctor, model.RoleAdmin:
	default:
		return Identity{}, ErrMissingRole
	}

	return Identity{UserID: c.UserID, Role: c.Role}, nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
