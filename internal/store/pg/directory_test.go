package pg

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"debtflow.io/internal/directory"
)

func newDirectoryMock(t *testing.T) (*Directory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewDirectory(db), mock
}

func TestIdentityStatus(t *testing.T) {
	dir, mock := newDirectoryMock(t)

	mock.ExpectQuery("select status from identities").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))

	status, err := dir.IdentityStatus(context.Background(), "u1")
	if err != nil {
		t.Fatalf("IdentityStatus: %v", err)
	}
	if status != "active" {
		t.Fatalf("status %q, want active", status)
	}

	mock.ExpectQuery("select status from identities").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	if _, err := dir.IdentityStatus(context.Background(), "ghost"); !errors.Is(err, directory.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestOrgNameByType(t *testing.T) {
	dir, mock := newDirectoryMock(t)

	mock.ExpectQuery("select name from agencies").
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Sterling Recovery"))

	name, err := dir.OrgName(context.Background(), "agency", "a1")
	if err != nil {
		t.Fatalf("OrgName: %v", err)
	}
	if name != "Sterling Recovery" {
		t.Fatalf("name %q", name)
	}

	if _, err := dir.OrgName(context.Background(), "vendor", "v1"); !errors.Is(err, directory.ErrNotFound) {
		t.Fatalf("unknown org type: got %v, want ErrNotFound", err)
	}
}

func TestClientBelongsToAgency(t *testing.T) {
	dir, mock := newDirectoryMock(t)

	mock.ExpectQuery("select 1 from clients").
		WithArgs("c1", "a1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))

	ok, err := dir.ClientBelongsToAgency(context.Background(), "c1", "a1")
	if err != nil || !ok {
		t.Fatalf("ClientBelongsToAgency = %v, %v", ok, err)
	}

	mock.ExpectQuery("select 1 from clients").
		WithArgs("c1", "a2").
		WillReturnRows(sqlmock.NewRows([]string{"one"}))

	ok, err = dir.ClientBelongsToAgency(context.Background(), "c1", "a2")
	if err != nil || ok {
		t.Fatalf("foreign agency: got %v, %v", ok, err)
	}
}

func TestPortfolioOwner(t *testing.T) {
	dir, mock := newDirectoryMock(t)

	mock.ExpectQuery("from portfolios").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_org_type", "owner_org_id"}).AddRow("client", "c1"))

	orgType, orgID, err := dir.PortfolioOwner(context.Background(), "p1")
	if err != nil {
		t.Fatalf("PortfolioOwner: %v", err)
	}
	if orgType != "client" || orgID != "c1" {
		t.Fatalf("owner = %s/%s", orgType, orgID)
	}
}
