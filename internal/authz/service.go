package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"debtflow.io/internal/directory"
)

const defaultSessionTTL = 24 * time.Hour

// Service provides role-grant administration, active-role resolution,
// role-session management, permission evaluation, and the access gate.
// It is stateless; every call resolves against durable storage so callers
// can scale horizontally.
type Service struct {
	store      Store
	trusted    trustedEvaluator
	identities directory.IdentityDirectory
	orgs       directory.OrganizationDirectory
	agencies   directory.AgencyDirectory
	portfolios directory.PortfolioDirectory
	now        func() time.Time
	sessionTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithSessionTTL overrides the role-session lifetime (default 24h).
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl <= 0 {
			return errors.New("authz: session ttl must be positive")
		}
		s.sessionTTL = ttl
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// WithOrganizationDirectory enables display-name resolution on snapshots.
// Optional: without it the synthesized fallback label is used.
func WithOrganizationDirectory(d directory.OrganizationDirectory) ServiceOption {
	return func(s *Service) error {
		s.orgs = d
		return nil
	}
}

// WithAgencyDirectory enables the client-to-agency check in CanAccessClient.
func WithAgencyDirectory(d directory.AgencyDirectory) ServiceOption {
	return func(s *Service) error {
		s.agencies = d
		return nil
	}
}

// WithPortfolioDirectory enables ownership lookups in CanAccessPortfolio.
func WithPortfolioDirectory(d directory.PortfolioDirectory) ServiceOption {
	return func(s *Service) error {
		s.portfolios = d
		return nil
	}
}

// NewService constructs the authorization core. The identity directory is
// mandatory: no role is honored for a non-active identity.
func NewService(store Store, identities directory.IdentityDirectory, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("authz: store is required")
	}
	if identities == nil {
		return nil, errors.New("authz: identity directory is required")
	}
	svc := &Service{
		store:      store,
		trusted:    trustedEvaluator{store: store},
		identities: identities,
		now:        time.Now,
		sessionTTL: defaultSessionTTL,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// CreateGrant provisions a role grant. When g.Primary is set, any existing
// primary grant for the identity loses the flag in the same transaction.
func (s *Service) CreateGrant(ctx context.Context, g NewGrant) (RoleGrant, error) {
	g.IdentityID = strings.TrimSpace(g.IdentityID)
	if g.IdentityID == "" {
		return RoleGrant{}, fmt.Errorf("%w: identity_id is required", ErrInvalidInput)
	}
	if !KnownRoleType(g.RoleType) {
		return RoleGrant{}, fmt.Errorf("%w: unsupported role type %q", ErrInvalidInput, g.RoleType)
	}
	if !KnownOrgType(g.OrgType) {
		return RoleGrant{}, fmt.Errorf("%w: unsupported org type %q", ErrInvalidInput, g.OrgType)
	}
	g.OrgID = strings.TrimSpace(g.OrgID)
	if g.OrgType != OrgPlatform && g.OrgID == "" {
		return RoleGrant{}, fmt.Errorf("%w: org_id is required for %s scope", ErrInvalidInput, g.OrgType)
	}
	if g.OrgType == OrgPlatform {
		g.OrgID = ""
	}
	if g.Permissions == nil {
		g.Permissions = PermissionMap{}
	}
	return s.store.Grants().CreateGrant(ctx, g)
}

// DeactivateGrant flips active off. Idempotent for already-inactive grants.
func (s *Service) DeactivateGrant(ctx context.Context, grantID string) error {
	grantID = strings.TrimSpace(grantID)
	if grantID == "" {
		return fmt.Errorf("%w: grant_id is required", ErrInvalidInput)
	}
	return s.store.Grants().DeactivateGrant(ctx, grantID)
}

// SetPrimary promotes a grant to the identity's primary role, demoting the
// current primary in the same transaction.
func (s *Service) SetPrimary(ctx context.Context, grantID string) error {
	grantID = strings.TrimSpace(grantID)
	if grantID == "" {
		return fmt.Errorf("%w: grant_id is required", ErrInvalidInput)
	}
	return s.store.Grants().SetPrimary(ctx, grantID)
}

// ListGrants returns the identity's grants in insertion order, for the
// "available roles" UI.
func (s *Service) ListGrants(ctx context.Context, identityID string, activeOnly bool) ([]RoleGrant, error) {
	identityID = strings.TrimSpace(identityID)
	if identityID == "" {
		return nil, fmt.Errorf("%w: identity_id is required", ErrInvalidInput)
	}
	return s.store.Grants().ListGrants(ctx, identityID, activeOnly)
}

// GetGrant fetches a single grant by id.
func (s *Service) GetGrant(ctx context.Context, grantID string) (RoleGrant, error) {
	grantID = strings.TrimSpace(grantID)
	if grantID == "" {
		return RoleGrant{}, fmt.Errorf("%w: grant_id is required", ErrInvalidInput)
	}
	return s.store.Grants().GetGrant(ctx, grantID)
}

// identityIsActive confirms the identity directory status before any role is
// honored. Directory errors propagate so callers can tell infrastructure
// failures from denials.
func (s *Service) identityIsActive(ctx context.Context, identityID string) (bool, error) {
	status, err := s.identities.IdentityStatus(ctx, identityID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return status == IdentityActive, nil
}
