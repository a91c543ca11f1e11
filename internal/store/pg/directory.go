package pg

import (
	"context"
	"database/sql"
	"errors"

	"debtflow.io/internal/directory"
)

// Directory implements the external-collaborator lookups over the
// back-office registry tables. The authorization core only reads through
// these; the CRUD modules that own the tables live elsewhere.
type Directory struct {
	db *sql.DB
}

var (
	_ directory.IdentityDirectory     = (*Directory)(nil)
	_ directory.OrganizationDirectory = (*Directory)(nil)
	_ directory.AgencyDirectory       = (*Directory)(nil)
	_ directory.PortfolioDirectory    = (*Directory)(nil)
)

// NewDirectory wraps an open database handle.
func NewDirectory(db *sql.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) IdentityStatus(ctx context.Context, identityID string) (string, error) {
	if d.db == nil {
		return "", directory.ErrUnavailable
	}
	var status string
	err := d.db.QueryRowContext(ctx, `select status from identities where id = $1`, identityID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", directory.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

func (d *Directory) OrgName(ctx context.Context, orgType, orgID string) (string, error) {
	if d.db == nil {
		return "", directory.ErrUnavailable
	}
	var query string
	switch orgType {
	case "agency":
		query = `select name from agencies where id = $1`
	case "client":
		query = `select name from clients where id = $1`
	case "buyer":
		query = `select name from buyers where id = $1`
	default:
		return "", directory.ErrNotFound
	}
	var name string
	err := d.db.QueryRowContext(ctx, query, orgID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", directory.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

func (d *Directory) ClientBelongsToAgency(ctx context.Context, clientID, agencyID string) (bool, error) {
	if d.db == nil {
		return false, directory.ErrUnavailable
	}
	var one int
	err := d.db.QueryRowContext(ctx, `
		select 1 from clients where id = $1 and agency_id = $2
	`, clientID, agencyID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *Directory) PortfolioOwner(ctx context.Context, portfolioID string) (string, string, error) {
	if d.db == nil {
		return "", "", directory.ErrUnavailable
	}
	var orgType, orgID string
	err := d.db.QueryRowContext(ctx, `
		select owner_org_type, owner_org_id from portfolios where id = $1
	`, portfolioID).Scan(&orgType, &orgID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", directory.ErrNotFound
	}
	if err != nil {
		return "", "", err
	}
	return orgType, orgID, nil
}
