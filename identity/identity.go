package identity

import (
	"context"
	"errors"
)

// ErrUnauthorized indicates the request carries no user identity. The core
// treats this as an authorization failure, not an internal error.
var ErrUnauthorized = errors.New("no user identity on request")

type Provider interface {
	UserID(ctx context.Context) (string, error)
}

type userIdKey struct{}

// WithUserID stamps an opaque user id onto the context for the default
// provider to read back.
func WithUserID(ctx context.Context, userId string) context.Context {
	return context.WithValue(ctx, userIdKey{}, userId)
}

type contextProvider struct{}

func (p *contextProvider) UserID(ctx context.Context) (string, error) {
	if userId, ok := ctx.Value(userIdKey{}).(string); ok && len(userId) > 0 {
		return userId, nil
	}
	return "", ErrUnauthorized
}

func NewProvider() Provider {
	return &contextProvider{}
}
