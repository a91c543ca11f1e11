// Package httpapi exposes the authorization core to the rest of the
// back office: role listing and switching, permission lookups, grant
// administration, and the access-check probes the CRUD modules call.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"debtflow.io/internal/authz"
	"debtflow.io/internal/obs"
)

// Options configures the API surface.
type Options struct {
	// JWTSecret verifies the identity provider's HS256 bearer tokens.
	JWTSecret []byte
	// DB, when set, is pinged by /readyz.
	DB *sql.DB
	// RateLimitRPS / RateLimitBurst shape the per-client budget; zero RPS
	// disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// API wires the authorization service into HTTP handlers.
type API struct {
	svc      *authz.Service
	opts     Options
	validate *validator.Validate
	version  string
}

// New constructs the API.
func New(svc *authz.Service, version string, opts Options) *API {
	return &API{
		svc:      svc,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		version:  version,
	}
}

// Handler builds the routed, fully-middlewared HTTP handler.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(obs.Instrument)
	r.Use(logging)
	r.Use(securityHeaders)
	if a.opts.RateLimitRPS > 0 {
		r.Use(rateLimit(a.opts.RateLimitRPS, a.opts.RateLimitBurst))
	}

	r.Get("/healthz", a.handleHealthz)
	r.Get("/readyz", a.handleReadyz)
	r.Method(http.MethodGet, "/metrics", obs.Handler())
	r.Post("/internal/sessions/purge", a.handlePurgeSessions)

	r.Group(func(r chi.Router) {
		r.Use(a.withAuth)

		r.Get("/v1/roles", a.handleListRoles)
		r.Get("/v1/roles/active", a.handleActiveRole)
		r.Post("/v1/roles/switch", a.handleSwitchRole)
		r.Delete("/v1/session", a.handleInvalidateSession)

		r.Get("/v1/permissions", a.handleEffectivePermissions)
		r.Get("/v1/permissions/{capability}", a.handleHasPermission)

		r.Get("/v1/access/agency/{agencyID}", a.handleAccessAgency)
		r.Get("/v1/access/client/{clientID}", a.handleAccessClient)
		r.Get("/v1/access/portfolio/{portfolioID}", a.handleAccessPortfolio)

		r.Post("/v1/identities/{identityID}/grants", a.handleCreateGrant)
		r.Delete("/v1/grants/{grantID}", a.handleDeactivateGrant)
		r.Post("/v1/grants/{grantID}/primary", a.handleSetPrimary)
	})

	return r
}

func (a *API) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": a.version})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.opts.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.opts.DB.PingContext(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
