package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ResolveActiveRole computes the single grant in effect for a request.
//
// A present session token is tried first: a live session pointing at an
// active grant wins, letting a user pin a lower-privilege role without
// re-authenticating. An expired, unknown, or revoked token is not an error;
// resolution falls through to the primary grant, then to the
// highest-priority active grant. Identities with no active grant at all get
// ErrNoActiveRole.
func (s *Service) ResolveActiveRole(ctx context.Context, identityID, sessionToken string) (RoleSnapshot, error) {
	identityID = strings.TrimSpace(identityID)
	if identityID == "" {
		return RoleSnapshot{}, fmt.Errorf("%w: identity_id is required", ErrInvalidInput)
	}
	active, err := s.identityIsActive(ctx, identityID)
	if err != nil {
		return RoleSnapshot{}, err
	}
	if !active {
		return RoleSnapshot{}, ErrNoActiveRole
	}

	if token := strings.TrimSpace(sessionToken); token != "" {
		if g, ok, err := s.sessionGrant(ctx, identityID, token); err != nil {
			return RoleSnapshot{}, err
		} else if ok {
			return s.snapshot(ctx, g, true), nil
		}
	}

	grants, err := s.trusted.activeGrants(ctx, identityID)
	if err != nil {
		return RoleSnapshot{}, err
	}
	if g, ok := primaryGrant(grants); ok {
		return s.snapshot(ctx, g, false), nil
	}
	if g, ok := highestPriorityGrant(grants); ok {
		return s.snapshot(ctx, g, false), nil
	}
	return RoleSnapshot{}, ErrNoActiveRole
}

// sessionGrant returns the grant a live session points at, or ok=false when
// the token should be silently ignored (missing, expired, wrong identity, or
// pointing at a deactivated grant). Storage failures propagate.
func (s *Service) sessionGrant(ctx context.Context, identityID, token string) (RoleGrant, bool, error) {
	sess, err := s.trusted.sessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RoleGrant{}, false, nil
		}
		return RoleGrant{}, false, err
	}
	if sess.IdentityID != identityID || sessionExpired(sess, s.now()) {
		return RoleGrant{}, false, nil
	}
	g, err := s.trusted.grantByID(ctx, sess.GrantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RoleGrant{}, false, nil
		}
		return RoleGrant{}, false, err
	}
	if !g.Active {
		return RoleGrant{}, false, nil
	}
	return g, true, nil
}
