package authz

import (
	"context"
	"time"
)

// GrantStore persists role grants. Implementations are pure storage: they
// never consult the access gate, and callers outside this package reach them
// only through the Service and the trusted evaluator.
type GrantStore interface {
	// CreateGrant inserts a grant. When g.Primary is set the implementation
	// must clear any other primary grant for the identity in the same
	// transaction. A duplicate (identity, org type, org id, role type)
	// tuple fails with ErrDuplicateGrant whether the existing row is active
	// or not.
	CreateGrant(ctx context.Context, g NewGrant) (RoleGrant, error)

	// GetGrant returns a grant by id or ErrNotFound.
	GetGrant(ctx context.Context, grantID string) (RoleGrant, error)

	// ListGrants returns the identity's grants in insertion order.
	ListGrants(ctx context.Context, identityID string, activeOnly bool) ([]RoleGrant, error)

	// DeactivateGrant sets active=false. Idempotent; missing ids are
	// ErrNotFound.
	DeactivateGrant(ctx context.Context, grantID string) error

	// SetPrimary atomically clears the identity's current primary grant and
	// marks grantID primary. Fails ErrNotFound for unknown ids and
	// ErrInvalidGrant for inactive ones.
	SetPrimary(ctx context.Context, grantID string) error
}

// SessionStore persists role sessions, at most one live row per identity.
type SessionStore interface {
	// UpsertSession replaces the identity's session in a single write keyed
	// by identity id, never as a separate read-then-write.
	UpsertSession(ctx context.Context, s RoleSession) error

	// FindByTokenHash returns the session with the given token hash or
	// ErrNotFound. Expired rows are returned as stored; expiry is the
	// caller's check so that "expired" and "missing" stay distinguishable.
	FindByTokenHash(ctx context.Context, tokenHash string) (RoleSession, error)

	// DeleteByIdentity removes the identity's session. No-op if absent.
	DeleteByIdentity(ctx context.Context, identityID string) error

	// DeleteExpired removes sessions with expiry before the cutoff and
	// reports how many rows went away.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store bundles the two persistence surfaces the core mutates.
type Store interface {
	Grants() GrantStore
	Sessions() SessionStore
}
