package authz

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"debtflow.io/internal/ids"
)

const tokenBytes = 32

// SwitchRole pins the identity's active role to the given grant. The grant
// must belong to the identity and be active; the identity's previous session
// (if any) is replaced by a single store-level upsert, so two interleaved
// switches can never leave two live sessions for one identity. The last
// write wins.
func (s *Service) SwitchRole(ctx context.Context, identityID, grantID string) (SwitchResult, error) {
	identityID = strings.TrimSpace(identityID)
	grantID = strings.TrimSpace(grantID)
	if identityID == "" || grantID == "" {
		return SwitchResult{}, fmt.Errorf("%w: identity_id and grant_id are required", ErrInvalidInput)
	}

	g, err := s.trusted.grantByID(ctx, grantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return SwitchResult{}, ErrInvalidGrant
		}
		return SwitchResult{}, err
	}
	if g.IdentityID != identityID || !g.Active {
		return SwitchResult{}, ErrInvalidGrant
	}

	token, err := mintToken()
	if err != nil {
		return SwitchResult{}, err
	}
	now := s.now().UTC()
	sess := RoleSession{
		ID:         ids.New(),
		IdentityID: identityID,
		GrantID:    grantID,
		TokenHash:  hashToken(token),
		ExpiresAt:  now.Add(s.sessionTTL),
		CreatedAt:  now,
	}
	if err := s.store.Sessions().UpsertSession(ctx, sess); err != nil {
		return SwitchResult{}, err
	}
	return SwitchResult{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		Role:      s.snapshot(ctx, g, true),
	}, nil
}

// ValidateSession returns the snapshot of the grant a live session points
// at. Unknown tokens are ErrNotFound, stale ones ErrExpired, and sessions
// whose grant has been deactivated ErrInvalidGrant. Store failures propagate
// so callers fail closed rather than treating breakage as a deny-with-200.
func (s *Service) ValidateSession(ctx context.Context, token string) (RoleSnapshot, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return RoleSnapshot{}, ErrNotFound
	}
	sess, err := s.trusted.sessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		return RoleSnapshot{}, err
	}
	if sessionExpired(sess, s.now()) {
		return RoleSnapshot{}, ErrExpired
	}
	g, err := s.trusted.grantByID(ctx, sess.GrantID)
	if err != nil {
		return RoleSnapshot{}, err
	}
	if !g.Active {
		return RoleSnapshot{}, ErrInvalidGrant
	}
	return s.snapshot(ctx, g, true), nil
}

// Invalidate drops the identity's live session, if any. Used on sign-out;
// idempotent.
func (s *Service) Invalidate(ctx context.Context, identityID string) error {
	identityID = strings.TrimSpace(identityID)
	if identityID == "" {
		return fmt.Errorf("%w: identity_id is required", ErrInvalidInput)
	}
	return s.store.Sessions().DeleteByIdentity(ctx, identityID)
}

// PurgeExpired reclaims storage for naturally-expired sessions. Correctness
// does not depend on it; an external scheduler invokes it periodically.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.Sessions().DeleteExpired(ctx, s.now())
}

// mintToken produces the opaque bearer credential for a role session:
// 32 random bytes, URL-safe base64, fixed 43-character length.
func mintToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("mint session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// hashToken derives the at-rest form of a session token. Only hashes touch
// storage, so a leaked sessions table cannot be replayed.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
