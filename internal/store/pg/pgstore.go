// Package pg implements the authorization stores and the directory
// collaborators on PostgreSQL.
package pg

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"debtflow.io/internal/authz"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"

	grantScopeConstraint   = "role_grants_scope_key"
	grantPrimaryConstraint = "role_grants_one_primary"
)

// Store provides the grant and session stores over one shared pool.
type Store struct {
	db *sql.DB
}

var _ authz.Store = (*Store)(nil)

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Grants() authz.GrantStore     { return &grantStore{db: s.db} }
func (s *Store) Sessions() authz.SessionStore { return &sessionStore{db: s.db} }

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
