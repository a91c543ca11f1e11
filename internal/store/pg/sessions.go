package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"debtflow.io/internal/authz"
)

type sessionStore struct {
	db *sql.DB
}

var _ authz.SessionStore = (*sessionStore)(nil)

// UpsertSession replaces the identity's session in a single statement keyed
// by identity id. Two interleaved switches therefore race on one row and the
// last write commits; there is never a window with two live sessions.
func (s *sessionStore) UpsertSession(ctx context.Context, sess authz.RoleSession) error {
	if s.db == nil {
		return authz.ErrStoreUnavailable
	}
	_, err := s.db.ExecContext(ctx, `
		insert into role_sessions (id, identity_id, grant_id, token_hash, expires_at, created_at)
		values ($1, $2, $3, $4, $5, $6)
		on conflict (identity_id) do update
		set id = excluded.id,
		    grant_id = excluded.grant_id,
		    token_hash = excluded.token_hash,
		    expires_at = excluded.expires_at,
		    created_at = excluded.created_at
	`, sess.ID, sess.IdentityID, sess.GrantID, sess.TokenHash, sess.ExpiresAt, sess.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return authz.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *sessionStore) FindByTokenHash(ctx context.Context, tokenHash string) (authz.RoleSession, error) {
	if s.db == nil {
		return authz.RoleSession{}, authz.ErrStoreUnavailable
	}
	var sess authz.RoleSession
	err := s.db.QueryRowContext(ctx, `
		select id, identity_id, grant_id, token_hash, expires_at, created_at
		from role_sessions
		where token_hash = $1
	`, tokenHash).Scan(&sess.ID, &sess.IdentityID, &sess.GrantID, &sess.TokenHash, &sess.ExpiresAt, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return authz.RoleSession{}, authz.ErrNotFound
	}
	if err != nil {
		return authz.RoleSession{}, err
	}
	return sess, nil
}

func (s *sessionStore) DeleteByIdentity(ctx context.Context, identityID string) error {
	if s.db == nil {
		return authz.ErrStoreUnavailable
	}
	_, err := s.db.ExecContext(ctx, `delete from role_sessions where identity_id = $1`, identityID)
	return err
}

func (s *sessionStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.db == nil {
		return 0, authz.ErrStoreUnavailable
	}
	res, err := s.db.ExecContext(ctx, `delete from role_sessions where expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
