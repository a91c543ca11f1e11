package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"debtflow.io/internal/audit"
	"debtflow.io/internal/authz"
	"debtflow.io/internal/obs"
)

type switchRoleRequest struct {
	GrantID string `json:"grant_id" validate:"required"`
}

type createGrantRequest struct {
	RoleType    string          `json:"role_type" validate:"required"`
	OrgType     string          `json:"org_type" validate:"required"`
	OrgID       string          `json:"org_id"`
	Permissions map[string]bool `json:"permissions"`
	Primary     bool            `json:"primary"`
}

type accessResponse struct {
	Allowed bool `json:"allowed"`
}

func (a *API) identityFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	identityID, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return "", false
	}
	return identityID, true
}

func (a *API) handleListRoles(w http.ResponseWriter, r *http.Request) {
	identityID, ok := a.identityFrom(w, r)
	if !ok {
		return
	}
	grants, err := a.svc.ListGrants(r.Context(), identityID, false)
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	if grants == nil {
		grants = []authz.RoleGrant{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"grants": grants})
}

func (a *API) handleActiveRole(w http.ResponseWriter, r *http.Request) {
	identityID, ok := a.identityFrom(w, r)
	if !ok {
		return
	}
	token, _ := authz.SessionTokenFromContext(r.Context())
	snap, err := a.svc.ResolveActiveRole(r.Context(), identityID, token)
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) handleSwitchRole(w http.ResponseWriter, r *http.Request) {
	identityID, ok := a.identityFrom(w, r)
	if !ok {
		return
	}
	var req switchRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "grant_id is required")
		return
	}
	result, err := a.svc.SwitchRole(r.Context(), identityID, req.GrantID)
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	obs.ObserveRoleSwitch()
	_ = audit.LogEvent(r.Context(), "authz.role.switch", map[string]any{
		"grant_id":  req.GrantID,
		"role_type": result.Role.RoleType,
	})
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleInvalidateSession(w http.ResponseWriter, r *http.Request) {
	identityID, ok := a.identityFrom(w, r)
	if !ok {
		return
	}
	if err := a.svc.Invalidate(r.Context(), identityID); err != nil {
		writeAuthzError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "authz.session.invalidate", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleEffectivePermissions(w http.ResponseWriter, r *http.Request) {
	identityID, ok := a.identityFrom(w, r)
	if !ok {
		return
	}
	perms, err := a.svc.EffectivePermissions(r.Context(), identityID)
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (a *API) handleHasPermission(w http.ResponseWriter, r *http.Request) {
	identityID, ok := a.identityFrom(w, r)
	if !ok {
		return
	}
	capability := chi.URLParam(r, "capability")
	if !authz.KnownCapability(capability) {
		writeError(w, http.StatusBadRequest, "unknown capability")
		return
	}
	allowed, err := a.svc.HasPermission(r.Context(), identityID, capability)
	obs.ObserveDecision("has_permission", allowed, err)
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accessResponse{Allowed: allowed})
}

func (a *API) handleAccessAgency(w http.ResponseWriter, r *http.Request) {
	a.handleAccessCheck(w, r, "can_access_agency", func(identityID string) (bool, error) {
		return a.svc.CanAccessAgency(r.Context(), identityID, chi.URLParam(r, "agencyID"))
	})
}

func (a *API) handleAccessClient(w http.ResponseWriter, r *http.Request) {
	a.handleAccessCheck(w, r, "can_access_client", func(identityID string) (bool, error) {
		return a.svc.CanAccessClient(r.Context(), identityID, chi.URLParam(r, "clientID"))
	})
}

func (a *API) handleAccessPortfolio(w http.ResponseWriter, r *http.Request) {
	a.handleAccessCheck(w, r, "can_access_portfolio", func(identityID string) (bool, error) {
		return a.svc.CanAccessPortfolio(r.Context(), identityID, chi.URLParam(r, "portfolioID"))
	})
}

func (a *API) handleAccessCheck(w http.ResponseWriter, r *http.Request, operation string, check func(string) (bool, error)) {
	identityID, ok := a.identityFrom(w, r)
	if !ok {
		return
	}
	allowed, err := check(identityID)
	obs.ObserveDecision(operation, allowed, err)
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accessResponse{Allowed: allowed})
}

// requireManageUsers gates grant administration behind the manage_users
// capability; platform admins pass implicitly.
func (a *API) requireManageUsers(w http.ResponseWriter, r *http.Request) bool {
	identityID, ok := a.identityFrom(w, r)
	if !ok {
		return false
	}
	allowed, err := a.svc.HasPermission(r.Context(), identityID, authz.CapManageUsers)
	obs.ObserveDecision("manage_users", allowed, err)
	if err != nil {
		writeAuthzError(w, err)
		return false
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

func (a *API) handleCreateGrant(w http.ResponseWriter, r *http.Request) {
	if !a.requireManageUsers(w, r) {
		return
	}
	var req createGrantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "role_type and org_type are required")
		return
	}
	grant, err := a.svc.CreateGrant(r.Context(), authz.NewGrant{
		IdentityID:  chi.URLParam(r, "identityID"),
		RoleType:    authz.RoleType(req.RoleType),
		OrgType:     authz.OrgType(req.OrgType),
		OrgID:       req.OrgID,
		Permissions: req.Permissions,
		Primary:     req.Primary,
	})
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "authz.grant.create", map[string]any{
		"grant_id":    grant.ID,
		"identity_id": grant.IdentityID,
		"role_type":   grant.RoleType,
		"org_type":    grant.OrgType,
		"org_id":      grant.OrgID,
	})
	writeJSON(w, http.StatusCreated, grant)
}

func (a *API) handleDeactivateGrant(w http.ResponseWriter, r *http.Request) {
	if !a.requireManageUsers(w, r) {
		return
	}
	grantID := chi.URLParam(r, "grantID")
	if err := a.svc.DeactivateGrant(r.Context(), grantID); err != nil {
		writeAuthzError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "authz.grant.deactivate", map[string]any{"grant_id": grantID})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetPrimary(w http.ResponseWriter, r *http.Request) {
	if !a.requireManageUsers(w, r) {
		return
	}
	grantID := chi.URLParam(r, "grantID")
	if err := a.svc.SetPrimary(r.Context(), grantID); err != nil {
		writeAuthzError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "authz.grant.set_primary", map[string]any{"grant_id": grantID})
	w.WriteHeader(http.StatusNoContent)
}

// handlePurgeSessions is the external scheduler's sweep hook. Session expiry
// is enforced at read time; this only reclaims storage.
func (a *API) handlePurgeSessions(w http.ResponseWriter, r *http.Request) {
	purged, err := a.svc.PurgeExpired(r.Context())
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	obs.ObservePurge(purged)
	_ = audit.LogEvent(r.Context(), "authz.session.purge", map[string]any{"purged": purged})
	writeJSON(w, http.StatusOK, map[string]int64{"purged": purged})
}
