package authz_test

import (
	"context"
	"testing"
	"time"

	"debtflow.io/internal/authz"
	"debtflow.io/internal/directory"
)

// stubIdentities maps identity id to lifecycle status.
type stubIdentities map[string]string

func (s stubIdentities) IdentityStatus(_ context.Context, identityID string) (string, error) {
	status, ok := s[identityID]
	if !ok {
		return "", directory.ErrNotFound
	}
	return status, nil
}

// stubAgencies maps client id to its owning agency id.
type stubAgencies map[string]string

func (s stubAgencies) ClientBelongsToAgency(_ context.Context, clientID, agencyID string) (bool, error) {
	return s[clientID] == agencyID, nil
}

// stubPortfolios maps portfolio id to its owner scope.
type stubPortfolios map[string][2]string

func (s stubPortfolios) PortfolioOwner(_ context.Context, portfolioID string) (string, string, error) {
	owner, ok := s[portfolioID]
	if !ok {
		return "", "", directory.ErrNotFound
	}
	return owner[0], owner[1], nil
}

// stubOrgs maps "orgType/orgID" to a display name.
type stubOrgs map[string]string

func (s stubOrgs) OrgName(_ context.Context, orgType, orgID string) (string, error) {
	name, ok := s[orgType+"/"+orgID]
	if !ok {
		return "", directory.ErrNotFound
	}
	return name, nil
}

type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(t *testing.T, store *authz.MemoryStore, identities stubIdentities, opts ...authz.ServiceOption) *authz.Service {
	t.Helper()
	svc, err := authz.NewService(store, identities, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func mustCreateGrant(t *testing.T, svc *authz.Service, g authz.NewGrant) authz.RoleGrant {
	t.Helper()
	grant, err := svc.CreateGrant(context.Background(), g)
	if err != nil {
		t.Fatalf("CreateGrant(%s/%s): %v", g.RoleType, g.OrgID, err)
	}
	return grant
}
