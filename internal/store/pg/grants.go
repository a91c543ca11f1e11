package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"debtflow.io/internal/authz"
	"debtflow.io/internal/ids"
)

type grantStore struct {
	db *sql.DB
}

var _ authz.GrantStore = (*grantStore)(nil)

func (s *grantStore) CreateGrant(ctx context.Context, g authz.NewGrant) (authz.RoleGrant, error) {
	if s.db == nil {
		return authz.RoleGrant{}, authz.ErrStoreUnavailable
	}
	permsJSON, err := json.Marshal(g.Permissions)
	if err != nil {
		return authz.RoleGrant{}, fmt.Errorf("marshal permissions: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return authz.RoleGrant{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if g.Primary {
		if _, err := tx.ExecContext(ctx, `
			update role_grants set is_primary = false
			where identity_id = $1 and is_primary
		`, g.IdentityID); err != nil {
			return authz.RoleGrant{}, err
		}
	}

	var (
		grant   authz.RoleGrant
		orgID   sql.NullString
		rawPerm []byte
	)
	row := tx.QueryRowContext(ctx, `
		insert into role_grants (id, identity_id, role_type, org_type, org_id, active, is_primary, permissions)
		values ($1, $2, $3, $4, $5, true, $6, $7)
		returning id, identity_id, role_type, org_type, org_id, active, is_primary, permissions, created_at
	`, ids.New(), g.IdentityID, g.RoleType, g.OrgType, nullIfEmpty(g.OrgID), g.Primary, permsJSON)
	if err := row.Scan(&grant.ID, &grant.IdentityID, &grant.RoleType, &grant.OrgType, &orgID,
		&grant.Active, &grant.Primary, &rawPerm, &grant.CreatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				if pgErr.ConstraintName == grantScopeConstraint {
					return authz.RoleGrant{}, authz.ErrDuplicateGrant
				}
				return authz.RoleGrant{}, fmt.Errorf("%w: %s", authz.ErrInvalidInput, pgErr.ConstraintName)
			case pgErrForeignKeyViolation:
				return authz.RoleGrant{}, authz.ErrNotFound
			}
		}
		return authz.RoleGrant{}, err
	}
	if orgID.Valid {
		grant.OrgID = orgID.String
	}
	grant.Permissions = decodePermissions(rawPerm)

	if err := tx.Commit(); err != nil {
		return authz.RoleGrant{}, err
	}
	return grant, nil
}

func (s *grantStore) GetGrant(ctx context.Context, grantID string) (authz.RoleGrant, error) {
	if s.db == nil {
		return authz.RoleGrant{}, authz.ErrStoreUnavailable
	}
	return scanGrant(s.db.QueryRowContext(ctx, `
		select id, identity_id, role_type, org_type, org_id, active, is_primary, permissions, created_at
		from role_grants
		where id = $1
	`, grantID))
}

func (s *grantStore) ListGrants(ctx context.Context, identityID string, activeOnly bool) ([]authz.RoleGrant, error) {
	if s.db == nil {
		return nil, authz.ErrStoreUnavailable
	}
	query := `
		select id, identity_id, role_type, org_type, org_id, active, is_primary, permissions, created_at
		from role_grants
		where identity_id = $1
	`
	if activeOnly {
		query += ` and active`
	}
	query += ` order by created_at, id`

	rows, err := s.db.QueryContext(ctx, query, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []authz.RoleGrant
	for rows.Next() {
		grant, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grants, nil
}

func (s *grantStore) DeactivateGrant(ctx context.Context, grantID string) error {
	if s.db == nil {
		return authz.ErrStoreUnavailable
	}
	res, err := s.db.ExecContext(ctx, `
		update role_grants set active = false, is_primary = false
		where id = $1
	`, grantID)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return authz.ErrNotFound
	}
	return nil
}

func (s *grantStore) SetPrimary(ctx context.Context, grantID string) error {
	if s.db == nil {
		return authz.ErrStoreUnavailable
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		identityID string
		active     bool
	)
	err = tx.QueryRowContext(ctx, `
		select identity_id, active from role_grants where id = $1 for update
	`, grantID).Scan(&identityID, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return authz.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !active {
		return authz.ErrInvalidGrant
	}

	if _, err := tx.ExecContext(ctx, `
		update role_grants set is_primary = false
		where identity_id = $1 and is_primary and id <> $2
	`, identityID, grantID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		update role_grants set is_primary = true where id = $1
	`, grantID); err != nil {
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row rowScanner) (authz.RoleGrant, error) {
	var (
		grant   authz.RoleGrant
		orgID   sql.NullString
		rawPerm []byte
	)
	err := row.Scan(&grant.ID, &grant.IdentityID, &grant.RoleType, &grant.OrgType, &orgID,
		&grant.Active, &grant.Primary, &rawPerm, &grant.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return authz.RoleGrant{}, authz.ErrNotFound
	}
	if err != nil {
		return authz.RoleGrant{}, err
	}
	if orgID.Valid {
		grant.OrgID = orgID.String
	}
	grant.Permissions = decodePermissions(rawPerm)
	return grant, nil
}

func decodePermissions(raw []byte) authz.PermissionMap {
	perms := authz.PermissionMap{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &perms)
	}
	return perms
}
