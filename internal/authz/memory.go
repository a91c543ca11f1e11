package authz

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"debtflow.io/internal/ids"
)

// MemoryStore is an in-process Store used by tests and local tooling. It
// enforces the same invariants as the Postgres implementation: the grant
// uniqueness tuple, the single-primary rule, and upsert-by-identity session
// semantics. Every store call bumps an operation counter so tests can assert
// the access gate stays O(1).
type MemoryStore struct {
	mu       sync.Mutex
	grants   []RoleGrant
	sessions map[string]RoleSession // keyed by identity id
	ops      atomic.Int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]RoleSession)}
}

// Ops reports how many store operations have executed.
func (m *MemoryStore) Ops() int64 { return m.ops.Load() }

// ResetOps zeroes the operation counter.
func (m *MemoryStore) ResetOps() { m.ops.Store(0) }

func (m *MemoryStore) Grants() GrantStore     { return (*memGrants)(m) }
func (m *MemoryStore) Sessions() SessionStore { return (*memSessions)(m) }

type memGrants MemoryStore

func (m *memGrants) CreateGrant(_ context.Context, g NewGrant) (RoleGrant, error) {
	m.ops.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.grants {
		if existing.IdentityID == g.IdentityID &&
			existing.OrgType == g.OrgType &&
			existing.OrgID == g.OrgID &&
			existing.RoleType == g.RoleType {
			return RoleGrant{}, ErrDuplicateGrant
		}
	}
	if g.Primary {
		for i := range m.grants {
			if m.grants[i].IdentityID == g.IdentityID {
				m.grants[i].Primary = false
			}
		}
	}
	perms := make(PermissionMap, len(g.Permissions))
	for k, v := range g.Permissions {
		perms[k] = v
	}
	grant := RoleGrant{
		ID:          ids.New(),
		IdentityID:  g.IdentityID,
		RoleType:    g.RoleType,
		OrgType:     g.OrgType,
		OrgID:       g.OrgID,
		Active:      true,
		Primary:     g.Primary,
		Permissions: perms,
		CreatedAt:   time.Now().UTC(),
	}
	m.grants = append(m.grants, grant)
	return grant, nil
}

func (m *memGrants) GetGrant(_ context.Context, grantID string) (RoleGrant, error) {
	m.ops.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.grants {
		if g.ID == grantID {
			return g, nil
		}
	}
	return RoleGrant{}, ErrNotFound
}

func (m *memGrants) ListGrants(_ context.Context, identityID string, activeOnly bool) ([]RoleGrant, error) {
	m.ops.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RoleGrant
	for _, g := range m.grants {
		if g.IdentityID != identityID {
			continue
		}
		if activeOnly && !g.Active {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (m *memGrants) DeactivateGrant(_ context.Context, grantID string) error {
	m.ops.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.grants {
		if m.grants[i].ID == grantID {
			// Same behavior as the SQL store: a deactivated grant also loses
			// the primary flag.
			m.grants[i].Active = false
			m.grants[i].Primary = false
			return nil
		}
	}
	return ErrNotFound
}

func (m *memGrants) SetPrimary(_ context.Context, grantID string) error {
	m.ops.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	target := -1
	for i := range m.grants {
		if m.grants[i].ID == grantID {
			target = i
			break
		}
	}
	if target < 0 {
		return ErrNotFound
	}
	if !m.grants[target].Active {
		return ErrInvalidGrant
	}
	identityID := m.grants[target].IdentityID
	for i := range m.grants {
		if m.grants[i].IdentityID == identityID {
			m.grants[i].Primary = false
		}
	}
	m.grants[target].Primary = true
	return nil
}

type memSessions MemoryStore

func (m *memSessions) UpsertSession(_ context.Context, s RoleSession) error {
	m.ops.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.IdentityID] = s
	return nil
}

func (m *memSessions) FindByTokenHash(_ context.Context, tokenHash string) (RoleSession, error) {
	m.ops.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.TokenHash == tokenHash {
			return s, nil
		}
	}
	return RoleSession{}, ErrNotFound
}

func (m *memSessions) DeleteByIdentity(_ context.Context, identityID string) error {
	m.ops.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, identityID)
	return nil
}

func (m *memSessions) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	m.ops.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.ExpiresAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}
