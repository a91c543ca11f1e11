package authz_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"debtflow.io/internal/authz"
)

func TestResolveActiveRolePrimaryWins(t *testing.T) {
	store := authz.NewMemoryStore()
	svc := newTestService(t, store, stubIdentities{"u1": authz.IdentityActive})

	mustCreateGrant(t, svc, authz.NewGrant{IdentityID: "u1", RoleType: authz.RoleBuyer, OrgType: authz.OrgBuyer, OrgID: "b1"})
	primary := mustCreateGrant(t, svc, authz.NewGrant{
		IdentityID: "u1", RoleType: authz.RoleClientAdmin, OrgType: authz.OrgClient, OrgID: "c1", Primary: true,
	})

	snap, err := svc.ResolveActiveRole(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("ResolveActiveRole: %v", err)
	}
	if snap.GrantID != primary.ID {
		t.Fatalf("resolved grant %s, want primary %s", snap.GrantID, primary.ID)
	}
	if snap.FromSession {
		t.Fatal("snapshot marked from_session without a token")
	}
	if !snap.Primary {
		t.Fatal("snapshot should carry the primary flag")
	}
}

func TestResolveActiveRolePriorityFallback(t *testing.T) {
	store := authz.NewMemoryStore()
	svc := newTestService(t, store, stubIdentities{"u1": authz.IdentityActive})

	// No primary anywhere: the best-ranked role wins, deterministically.
	mustCreateGrant(t, svc, authz.NewGrant{IdentityID: "u1", RoleType: authz.RoleBuyer, OrgType: authz.OrgBuyer, OrgID: "b1"})
	mustCreateGrant(t, svc, authz.NewGrant{IdentityID: "u1", RoleType: authz.RoleClientAdmin, OrgType: authz.OrgClient, OrgID: "c1"})
	mustCreateGrant(t, svc, authz.NewGrant{IdentityID: "u1", RoleType: authz.RoleAgencyUser, OrgType: authz.OrgAgency, OrgID: "a1"})

	for i := 0; i < 5; i++ {
		snap, err := svc.ResolveActiveRole(context.Background(), "u1", "")
		if err != nil {
			t.Fatalf("ResolveActiveRole: %v", err)
		}
		if snap.RoleType != authz.RoleAgencyUser {
			t.Fatalf("resolved %s, want agency_user", snap.RoleType)
		}
	}
}

func TestResolveActiveRoleSessionOverridesPrimary(t *testing.T) {
	store := authz.NewMemoryStore()
	svc := newTestService(t, store, stubIdentities{"u1": authz.IdentityActive})

	mustCreateGrant(t, svc, authz.NewGrant{
		IdentityID: "u1", RoleType: authz.RoleAgencyAdmin, OrgType: authz.OrgAgency, OrgID: "a1", Primary: true,
	})
	buyer := mustCreateGrant(t, svc, authz.NewGrant{IdentityID: "u1", RoleType: authz.RoleBuyer, OrgType: authz.OrgBuyer, OrgID: "b1"})

	result, err := svc.SwitchRole(context.Background(), "u1", buyer.ID)
	if err != nil {
		t.Fatalf("SwitchRole: %v", err)
	}

	snap, err := svc.ResolveActiveRole(context.Background(), "u1", result.Token)
	if err != nil {
		t.Fatalf("ResolveActiveRole: %v", err)
	}
	if snap.GrantID != buyer.ID {
		t.Fatalf("resolved grant %s, want session-pinned %s", snap.GrantID, buyer.ID)
	}
	if !snap.FromSession {
		t.Fatal("snapshot should be marked from_session")
	}
}

func TestResolveActiveRoleExpiredSessionFallsBack(t *testing.T) {
	store := authz.NewMemoryStore()
	clock := newTestClock()
	svc := newTestService(t, store, stubIdentities{"u1": authz.IdentityActive},
		authz.WithClock(clock.Now), authz.WithSessionTTL(time.Hour))

	primary := mustCreateGrant(t, svc, authz.NewGrant{
		IdentityID: "u1", RoleType: authz.RoleAgencyAdmin, OrgType: authz.OrgAgency, OrgID: "a1", Primary: true,
	})
	buyer := mustCreateGrant(t, svc, authz.NewGrant{IdentityID: "u1", RoleType: authz.RoleBuyer, OrgType: authz.OrgBuyer, OrgID: "b1"})

	result, err := svc.SwitchRole(context.Background(), "u1", buyer.ID)
	if err != nil {
		t.Fatalf("SwitchRole: %v", err)
	}

	clock.Advance(2 * time.Hour)

	snap, err := svc.ResolveActiveRole(context.Background(), "u1", result.Token)
	if err != nil {
		t.Fatalf("ResolveActiveRole: %v", err)
	}
	if snap.GrantID != primary.ID {
		t.Fatalf("expired session should fall back to primary, got grant %s", snap.GrantID)
	}
	if snap.FromSession {
		t.Fatal("fallback snapshot must not be marked from_session")
	}
}

func TestSwitchedSessionKeepsPrimaryPermissions(t *testing.T) {
	store := authz.NewMemoryStore()
	svc := newTestService(t, store, stubIdentities{"u1": authz.IdentityActive})

	admin := mustCreateGrant(t, svc, authz.NewGrant{
		IdentityID: "u1", RoleType: authz.RolePlatformAdmin, OrgType: authz.OrgPlatform, Primary: true,
	})
	buyer := mustCreateGrant(t, svc, authz.NewGrant{IdentityID: "u1", RoleType: authz.RoleBuyer, OrgType: authz.OrgBuyer, OrgID: "b1"})

	snap, err := svc.ResolveActiveRole(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("ResolveActiveRole: %v", err)
	}
	if snap.GrantID != admin.ID {
		t.Fatalf("resolved %s, want primary %s", snap.GrantID, admin.ID)
	}

	result, err := svc.SwitchRole(context.Background(), "u1", buyer.ID)
	if err != nil {
		t.Fatalf("SwitchRole: %v", err)
	}
	snap, err = svc.ResolveActiveRole(context.Background(), "u1", result.Token)
	if err != nil {
		t.Fatalf("ResolveActiveRole with token: %v", err)
	}
	if snap.GrantID != buyer.ID {
		t.Fatalf("resolved %s, want pinned %s", snap.GrantID, buyer.ID)
	}

	// Capability checks stay on the primary grant: pinning the buyer role for
	// the UI does not shed platform-admin capabilities.
	allowed, err := svc.HasPermission(context.Background(), "u1", authz.CapManageUsers)
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if !allowed {
		t.Fatal("manage_users should still pass via the primary platform_admin grant")
	}
}

func TestResolveActiveRoleUnknownTokenIgnored(t *testing.T) {
	store := authz.NewMemoryStore()
	svc := newTestService(t, store, stubIdentities{"u1": authz.IdentityActive})

	primary := mustCreateGrant(t, svc, authz.NewGrant{
		IdentityID: "u1", RoleType: authz.RoleClientUser, OrgType: authz.OrgClient, OrgID: "c1", Primary: true,
	})

	snap, err := svc.ResolveActiveRole(context.Background(), "u1", "not-a-real-token")
	if err != nil {
		t.Fatalf("ResolveActiveRole: %v", err)
	}
	if snap.GrantID != primary.ID {
		t.Fatalf("unknown token should be ignored, got grant %s", snap.GrantID)
	}
}

func TestResolveActiveRoleForeignSessionIgnored(t *testing.T) {
	store := authz.NewMemoryStore()
	svc := newTestService(t, store, stubIdentities{
		"u1": authz.IdentityActive,
		"u2": authz.IdentityActive,
	})

	mustCreateGrant(t, svc, authz.NewGrant{
		IdentityID: "u1", RoleType: authz.RoleAgencyUser, OrgType: authz.OrgAgency, OrgID: "a1", Primary: true,
	})
	otherGrant := mustCreateGrant(t, svc, authz.NewGrant{IdentityID: "u2", RoleType: authz.RoleBuyer, OrgType: authz.OrgBuyer, OrgID: "b1"})
	result, err := svc.SwitchRole(context.Background(), "u2", otherGrant.ID)
	if err != nil {
		t.Fatalf("SwitchRole: %v", err)
	}

	// u1 presenting u2's token must not inherit u2's role.
	snap, err := svc.ResolveActiveRole(context.Background(), "u1", result.Token)
	if err != nil {
		t.Fatalf("ResolveActiveRole: %v", err)
	}
	if snap.IdentityID != "u1" || snap.RoleType != authz.RoleAgencyUser {
		t.Fatalf("foreign token leaked a role: got %s for %s", snap.RoleType, snap.IdentityID)
	}
}

func TestResolveActiveRoleDeactivatedGrantSessionIgnored(t *testing.T) {
	store := authz.NewMemoryStore()
	svc := newTestService(t, store, stubIdentities{"u1": authz.IdentityActive})

	primary := mustCreateGrant(t, svc, authz.NewGrant{
		IdentityID: "u1", RoleType: authz.RoleClientAdmin, OrgType: authz.OrgClient, OrgID: "c1", Primary: true,
	})
	buyer := mustCreateGrant(t, svc, authz.NewGrant{IdentityID: "u1", RoleType: authz.RoleBuyer, OrgType: authz.OrgBuyer, OrgID: "b1"})

	result, err := svc.SwitchRole(context.Background(), "u1", buyer.ID)
	if err != nil {
		t.Fatalf("SwitchRole: %v", err)
	}
	if err := svc.DeactivateGrant(context.Background(), buyer.ID); err != nil {
		t.Fatalf("DeactivateGrant: %v", err)
	}

	snap, err := svc.ResolveActiveRole(context.Background(), "u1", result.Token)
	if err != nil {
		t.Fatalf("ResolveActiveRole: %v", err)
	}
	if snap.GrantID != primary.ID {
		t.Fatalf("session to a deactivated grant should fall back, got grant %s", snap.GrantID)
	}
}

func TestResolveActiveRoleNoGrants(t *testing.T) {
	store := authz.NewMemoryStore()
	svc := newTestService(t, store, stubIdentities{"u1": authz.IdentityActive})

	_, err := svc.ResolveActiveRole(context.Background(), "u1", "")
	if !errors.Is(err, authz.ErrNoActiveRole) {
		t.Fatalf("got %v, want ErrNoActiveRole", err)
	}
}

func TestResolveActiveRoleInactiveIdentity(t *testing.T) {
	store := authz.NewMemoryStore()
	svc := newTestService(t, store, stubIdentities{
		"u1": authz.IdentitySuspended,
	})

	mustCreateGrant(t, svc, authz.NewGrant{
		IdentityID: "u1", RoleType: authz.RolePlatformAdmin, OrgType: authz.OrgPlatform, Primary: true,
	})

	_, err := svc.ResolveActiveRole(context.Background(), "u1", "")
	if !errors.Is(err, authz.ErrNoActiveRole) {
		t.Fatalf("suspended identity resolved a role: %v", err)
	}

	_, err = svc.ResolveActiveRole(context.Background(), "unknown", "")
	if !errors.Is(err, authz.ErrNoActiveRole) {
		t.Fatalf("unknown identity resolved a role: %v", err)
	}
}

func TestResolveActiveRoleOnlyInactiveGrants(t *testing.T) {
	store := authz.NewMemoryStore()
	svc := newTestService(t, store, stubIdentities{"u1": authz.IdentityActive})

	g := mustCreateGrant(t, svc, authz.NewGrant{IdentityID: "u1", RoleType: authz.RoleBuyer, OrgType: authz.OrgBuyer, OrgID: "b1"})
	if err := svc.DeactivateGrant(context.Background(), g.ID); err != nil {
		t.Fatalf("DeactivateGrant: %v", err)
	}

	_, err := svc.ResolveActiveRole(context.Background(), "u1", "")
	if !errors.Is(err, authz.ErrNoActiveRole) {
		t.Fatalf("got %v, want ErrNoActiveRole", err)
	}
}

func TestResolveActiveRoleOrgNameFallback(t *testing.T) {
	store := authz.NewMemoryStore()
	svc := newTestService(t, store, stubIdentities{"u1": authz.IdentityActive},
		authz.WithOrganizationDirectory(stubOrgs{"agency/a1": "Sterling Recovery"}))

	mustCreateGrant(t, svc, authz.NewGrant{
		IdentityID: "u1", RoleType: authz.RoleAgencyUser, OrgType: authz.OrgAgency, OrgID: "a1", Primary: true,
	})

	snap, err := svc.ResolveActiveRole(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("ResolveActiveRole: %v", err)
	}
	if snap.OrgName != "Sterling Recovery" {
		t.Fatalf("org name %q, want directory name", snap.OrgName)
	}

	// A scope the directory does not know gets the synthesized label.
	svc2 := newTestService(t, authz.NewMemoryStore(), stubIdentities{"u2": authz.IdentityActive})
	mustCreateGrant(t, svc2, authz.NewGrant{
		IdentityID: "u2", RoleType: authz.RoleClientUser, OrgType: authz.OrgClient, OrgID: "c9", Primary: true,
	})
	snap2, err := svc2.ResolveActiveRole(context.Background(), "u2", "")
	if err != nil {
		t.Fatalf("ResolveActiveRole: %v", err)
	}
	if snap2.OrgName != "Client c9" {
		t.Fatalf("fallback org name %q, want %q", snap2.OrgName, "Client c9")
	}
}
