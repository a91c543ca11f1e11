package authz

import (
	"context"
	"strings"
)

type identityContextKey struct{}
type sessionTokenContextKey struct{}
type snapshotContextKey struct{}

// ContextWithIdentity stores the authenticated identity id in the context.
func ContextWithIdentity(ctx context.Context, identityID string) context.Context {
	identityID = strings.TrimSpace(identityID)
	if identityID == "" {
		return ctx
	}
	return context.WithValue(ctx, identityContextKey{}, identityID)
}

// IdentityFromContext extracts the authenticated identity id.
func IdentityFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(identityContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ContextWithSessionToken stores the raw role-session token, when the
// request carried one.
func ContextWithSessionToken(ctx context.Context, token string) context.Context {
	token = strings.TrimSpace(token)
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionTokenContextKey{}, token)
}

// SessionTokenFromContext returns the role-session token if present.
func SessionTokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(sessionTokenContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ContextWithSnapshot attaches a resolved role snapshot so downstream
// handlers do not resolve twice within one request.
func ContextWithSnapshot(ctx context.Context, snap RoleSnapshot) context.Context {
	return context.WithValue(ctx, snapshotContextKey{}, &snap)
}

// SnapshotFromContext extracts a previously resolved snapshot.
func SnapshotFromContext(ctx context.Context) (RoleSnapshot, bool) {
	if ctx == nil {
		return RoleSnapshot{}, false
	}
	v, ok := ctx.Value(snapshotContextKey{}).(*RoleSnapshot)
	if !ok || v == nil {
		return RoleSnapshot{}, false
	}
	return *v, true
}
