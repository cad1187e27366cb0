package domain

import (
	"context"
	"errors"
	"fmt"
)

// Principal is the authenticated identity making a request. The identity
// provider owns users; the ledger only sees the verified subject.
type Principal struct {
	ID    string
	Email string
	Role  string
}

type principalKey struct{}

// ContextWithPrincipal returns a copy of ctx carrying p.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	if !ok || p == nil || p.ID == "" {
		return nil, false
	}
	return p, true
}

// Authentication errors
var (
	ErrUnauthorized = fmt.Errorf("%w: no authenticated principal", ErrNotAuthorized)
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
