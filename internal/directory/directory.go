// Package directory declares the external collaborators the authorization
// core consumes: the identity registry and the agency/client/buyer
// organization registries. The core never writes through these interfaces.
package directory

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("directory: not found")
	ErrUnavailable = errors.New("directory: unavailable")
)

// IdentityDirectory reports account lifecycle status. The authorization core
// only honors roles for identities whose status is "active".
type IdentityDirectory interface {
	IdentityStatus(ctx context.Context, identityID string) (string, error)
}

// OrganizationDirectory resolves display names for organization scopes.
// Lookups are best-effort; callers must tolerate ErrUnavailable and
// ErrNotFound without failing their own operation.
type OrganizationDirectory interface {
	OrgName(ctx context.Context, orgType, orgID string) (string, error)
}

// AgencyDirectory answers which agency a client account belongs to, used by
// the access gate to let agency-scoped identities reach their clients' data.
type AgencyDirectory interface {
	ClientBelongsToAgency(ctx context.Context, clientID, agencyID string) (bool, error)
}

// PortfolioDirectory maps a debt portfolio to its owning organization scope.
type PortfolioDirectory interface {
	PortfolioOwner(ctx context.Context, portfolioID string) (orgType, orgID string, err error)
}
