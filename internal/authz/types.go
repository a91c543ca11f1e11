package authz

import "time"

// IdentityStatus values mirror the identity directory's lifecycle column.
const (
	IdentityActive    = "active"
	IdentityInactive  = "inactive"
	IdentitySuspended = "suspended"
)

// RoleType is the closed set of roles a grant can carry.
type RoleType string

const (
	RolePlatformAdmin RoleType = "platform_admin"
	RoleAgencyAdmin   RoleType = "agency_admin"
	RoleAgencyUser    RoleType = "agency_user"
	RoleClientAdmin   RoleType = "client_admin"
	RoleClientUser    RoleType = "client_user"
	RoleBuyer         RoleType = "buyer"
)

// OrgType identifies the organizational scope a grant is bound to.
type OrgType string

const (
	OrgPlatform OrgType = "platform"
	OrgAgency   OrgType = "agency"
	OrgClient   OrgType = "client"
	OrgBuyer    OrgType = "buyer"
)

// PermissionMap is an open capability-name → allowed map carried per grant.
// Capability sets differ by role type, so this stays semi-structured rather
// than a fixed struct; call sites validate known capability names.
type PermissionMap map[string]bool

// RoleGrant binds one identity to one role type within one organization
// scope. Grants are never hard-deleted; deactivation flips Active off so
// the assignment history stays intact.
type RoleGrant struct {
	ID          string        `json:"id"`
	IdentityID  string        `json:"identity_id"`
	RoleType    RoleType      `json:"role_type"`
	OrgType     OrgType       `json:"org_type"`
	OrgID       string        `json:"org_id,omitempty"`
	Active      bool          `json:"active"`
	Primary     bool          `json:"primary"`
	Permissions PermissionMap `json:"permissions,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// RoleSession is the ephemeral pointer recording which grant an identity has
// explicitly chosen. At most one live session exists per identity; switching
// again replaces it. The bearer token is stored as a SHA-256 hash.
type RoleSession struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identity_id"`
	GrantID    string    `json:"grant_id"`
	TokenHash  string    `json:"-"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// RoleSnapshot is the resolved view of the grant in effect for a request,
// including the opportunistically-resolved organization display name.
type RoleSnapshot struct {
	GrantID     string        `json:"grant_id"`
	IdentityID  string        `json:"identity_id"`
	RoleType    RoleType      `json:"role_type"`
	OrgType     OrgType       `json:"org_type"`
	OrgID       string        `json:"org_id,omitempty"`
	OrgName     string        `json:"org_name"`
	Primary     bool          `json:"primary"`
	FromSession bool          `json:"from_session"`
	Permissions PermissionMap `json:"permissions,omitempty"`
}

// SwitchResult is returned by SwitchRole: the newly minted bearer token,
// its expiry, and a snapshot of the grant the session now points at.
type SwitchResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Role      RoleSnapshot `json:"role"`
}

// NewGrant is the input to CreateGrant.
type NewGrant struct {
	IdentityID  string
	RoleType    RoleType
	OrgType     OrgType
	OrgID       string
	Permissions PermissionMap
	Primary     bool
}
