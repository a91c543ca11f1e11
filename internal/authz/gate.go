package authz

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// trustedEvaluator is the ungated read path over the grant and session
// stores. The access gate and the resolver call it; it never calls back into
// the gate. That single directional rule is what keeps "authorize reads of
// the role table" from recursing through the role table itself.
type trustedEvaluator struct {
	store Store
}

func (t trustedEvaluator) activeGrants(ctx context.Context, identityID string) ([]RoleGrant, error) {
	return t.store.Grants().ListGrants(ctx, identityID, true)
}

func (t trustedEvaluator) grantByID(ctx context.Context, grantID string) (RoleGrant, error) {
	return t.store.Grants().GetGrant(ctx, grantID)
}

func (t trustedEvaluator) sessionByTokenHash(ctx context.Context, tokenHash string) (RoleSession, error) {
	return t.store.Sessions().FindByTokenHash(ctx, tokenHash)
}

// primaryGrant picks the primary active grant out of a grant list. The
// second return is false when the identity has none.
func primaryGrant(grants []RoleGrant) (RoleGrant, bool) {
	for _, g := range grants {
		if g.Primary && g.Active {
			return g, true
		}
	}
	return RoleGrant{}, false
}

func holdsPlatformAdmin(grants []RoleGrant) bool {
	for _, g := range grants {
		if g.Active && g.RoleType == RolePlatformAdmin {
			return true
		}
	}
	return false
}

// highestPriorityGrant returns the active grant with the best rank; ties
// break by earliest creation, then by grant id, for total determinism.
func highestPriorityGrant(grants []RoleGrant) (RoleGrant, bool) {
	var best RoleGrant
	found := false
	for _, g := range grants {
		if !g.Active {
			continue
		}
		if !found || lessByPriority(g, best) {
			best = g
			found = true
		}
	}
	return best, found
}

func lessByPriority(a, b RoleGrant) bool {
	ar, br := PriorityRank(a.RoleType), PriorityRank(b.RoleType)
	if ar != br {
		return ar < br
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// IsPlatformAdmin reports whether an active platform_admin grant exists for
// the identity. Sessions are not consulted: a pinned lower-privilege role
// does not revoke the underlying grant.
func (s *Service) IsPlatformAdmin(ctx context.Context, identityID string) (bool, error) {
	grants, err := s.trusted.activeGrants(ctx, identityID)
	if err != nil {
		return false, err
	}
	return holdsPlatformAdmin(grants), nil
}

// CanAccessAgency allows platform admins everywhere, and otherwise requires
// the identity's primary grant to be scoped to exactly that agency.
func (s *Service) CanAccessAgency(ctx context.Context, identityID, agencyID string) (bool, error) {
	grants, err := s.trusted.activeGrants(ctx, identityID)
	if err != nil {
		return false, err
	}
	if holdsPlatformAdmin(grants) {
		return true, nil
	}
	g, ok := primaryGrant(grants)
	if !ok {
		return false, nil
	}
	return g.OrgType == OrgAgency && g.OrgID == agencyID, nil
}

// CanAccessClient allows platform admins, identities scoped to the client
// itself, and agency-scoped identities whose agency the client belongs to
// (confirmed by the agency directory).
func (s *Service) CanAccessClient(ctx context.Context, identityID, clientID string) (bool, error) {
	grants, err := s.trusted.activeGrants(ctx, identityID)
	if err != nil {
		return false, err
	}
	if holdsPlatformAdmin(grants) {
		return true, nil
	}
	g, ok := primaryGrant(grants)
	if !ok {
		return false, nil
	}
	switch g.OrgType {
	case OrgClient:
		return g.OrgID == clientID, nil
	case OrgAgency:
		if s.agencies == nil {
			return false, nil
		}
		return s.agencies.ClientBelongsToAgency(ctx, clientID, g.OrgID)
	}
	return false, nil
}

// CanAccessPortfolio resolves the portfolio's owning organization and then
// applies the same scope rules as the agency/client checks.
func (s *Service) CanAccessPortfolio(ctx context.Context, identityID, portfolioID string) (bool, error) {
	grants, err := s.trusted.activeGrants(ctx, identityID)
	if err != nil {
		return false, err
	}
	if holdsPlatformAdmin(grants) {
		return true, nil
	}
	if s.portfolios == nil {
		return false, nil
	}
	ownerType, ownerID, err := s.portfolios.PortfolioOwner(ctx, portfolioID)
	if err != nil {
		return false, err
	}
	g, ok := primaryGrant(grants)
	if !ok {
		return false, nil
	}
	if string(g.OrgType) == ownerType && g.OrgID == ownerID {
		return true, nil
	}
	// Agency staff can reach portfolios owned by their agency's clients.
	if g.OrgType == OrgAgency && ownerType == string(OrgClient) && s.agencies != nil {
		return s.agencies.ClientBelongsToAgency(ctx, ownerID, g.OrgID)
	}
	return false, nil
}

// snapshot builds the resolved view of a grant, resolving the organization
// display name opportunistically. A failed name lookup falls back to a
// synthesized label; it never blocks authorization.
func (s *Service) snapshot(ctx context.Context, g RoleGrant, fromSession bool) RoleSnapshot {
	return RoleSnapshot{
		GrantID:     g.ID,
		IdentityID:  g.IdentityID,
		RoleType:    g.RoleType,
		OrgType:     g.OrgType,
		OrgID:       g.OrgID,
		OrgName:     s.orgDisplayName(ctx, g.OrgType, g.OrgID),
		Primary:     g.Primary,
		FromSession: fromSession,
		Permissions: g.Permissions,
	}
}

func (s *Service) orgDisplayName(ctx context.Context, orgType OrgType, orgID string) string {
	if orgType == OrgPlatform {
		return "Platform"
	}
	if s.orgs != nil {
		if name, err := s.orgs.OrgName(ctx, string(orgType), orgID); err == nil && strings.TrimSpace(name) != "" {
			return name
		}
	}
	return fmt.Sprintf("%s %s", titleOrgType(orgType), orgID)
}

func titleOrgType(orgType OrgType) string {
	raw := string(orgType)
	if raw == "" {
		return "Organization"
	}
	return strings.ToUpper(raw[:1]) + raw[1:]
}

// sessionExpired is the single expiry check shared by validation and
// resolution paths.
func sessionExpired(sess RoleSession, now time.Time) bool {
	return !sess.ExpiresAt.After(now)
}
