package auth

import (
	"context"
	"errors"
)

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	UserID       int64
	Username     string
	Role         string
	DepartmentID int64
}

type ctxKey int

const ctxIdentity ctxKey = iota

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

// FromContext returns the full identity, if present.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxIdentity).(Identity)
	return id, ok
}

func UserID(ctx context.Context) (int64, error) {
	if id, ok := FromContext(ctx); ok && id.UserID != 0 {
		return id.UserID, nil
	}
	return 0, errors.New("user_id not in context")
}

func Username(ctx context.Context) (string, error) {
	if id, ok := FromContext(ctx); ok && id.Username != "" {
		return id.Username, nil
	}
	return "", errors.New("username not in context")
}

func Role(ctx context.Context) (string, error) {
	if id, ok := FromContext(ctx); ok && id.Role != "" {
		return id.Role, nil
	}
	return "", errors.New("role not in context")
}

func DepartmentID(ctx context.Context) (int64, error) {
	if id, ok := FromContext(ctx); ok {
		return id.DepartmentID, nil
	}
	return 0, errors.New("identity not in context")
}
