package authz

import (
	"context"
	"fmt"
	"strings"
)

// Capability catalog. The permission map on a grant is open-ended, but call
// sites should stick to these names so typos surface as validation errors
// instead of silent denies.
const (
	CapManageUsers      = "manage_users"
	CapManageAgencies   = "manage_agencies"
	CapManageClients    = "manage_clients"
	CapManagePortfolios = "manage_portfolios"
	CapManageDebts      = "manage_debts"
	CapImportData       = "import_data"
	CapSellPortfolios   = "sell_portfolios"
	CapViewReports      = "view_reports"
)

// Capabilities lists every known capability name.
var Capabilities = []string{
	CapManageUsers,
	CapManageAgencies,
	CapManageClients,
	CapManagePortfolios,
	CapManageDebts,
	CapImportData,
	CapSellPortfolios,
	CapViewReports,
}

// KnownCapability reports whether name is part of the catalog.
func KnownCapability(name string) bool {
	for _, c := range Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

// HasPermission evaluates a capability for the identity.
//
// The check reads the PRIMARY grant's permission map, not the grant a role
// session may have pinned. Platform admins pass every check regardless of
// their map contents. A permission miss is a plain false; only storage
// failures surface as errors, keeping "denied" and "broken" distinguishable.
func (s *Service) HasPermission(ctx context.Context, identityID, capability string) (bool, error) {
	identityID = strings.TrimSpace(identityID)
	capability = strings.TrimSpace(capability)
	if identityID == "" || capability == "" {
		return false, fmt.Errorf("%w: identity_id and capability are required", ErrInvalidInput)
	}
	grants, err := s.trusted.activeGrants(ctx, identityID)
	if err != nil {
		return false, err
	}
	if g, ok := primaryGrant(grants); ok && g.Permissions[capability] {
		return true, nil
	}
	return holdsPlatformAdmin(grants), nil
}

// EffectivePermissions returns the primary grant's full map, or the all-true
// catalog map for platform admins. Identities with neither get an empty map.
func (s *Service) EffectivePermissions(ctx context.Context, identityID string) (PermissionMap, error) {
	identityID = strings.TrimSpace(identityID)
	if identityID == "" {
		return nil, fmt.Errorf("%w: identity_id is required", ErrInvalidInput)
	}
	grants, err := s.trusted.activeGrants(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if holdsPlatformAdmin(grants) {
		all := make(PermissionMap, len(Capabilities))
		for _, c := range Capabilities {
			all[c] = true
		}
		return all, nil
	}
	if g, ok := primaryGrant(grants); ok {
		out := make(PermissionMap, len(g.Permissions))
		for k, v := range g.Permissions {
			out[k] = v
		}
		return out, nil
	}
	return PermissionMap{}, nil
}
