package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"debtflow.io/internal/authz"
)

const (
	authHeader        = "Authorization"
	bearerPrefix      = "Bearer "
	sessionHeader     = "X-Role-Session"
	requestIDHeader   = "X-Request-Id"
	identityClaimName = "sub"
)

// withAuth authenticates the request: the Authorization bearer token is an
// HS256 JWT minted by the external identity provider whose subject is the
// identity id, and the optional X-Role-Session header carries the opaque
// role-session token. How the JWT was obtained is not this service's
// concern; it only needs (identity id, session token?) per request.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		identityID, err := a.verifyIdentityToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := authz.ContextWithIdentity(r.Context(), identityID)
		if token := strings.TrimSpace(r.Header.Get(sessionHeader)); token != "" {
			ctx = authz.ContextWithSessionToken(ctx, token)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) verifyIdentityToken(raw string) (string, error) {
	if len(a.opts.JWTSecret) == 0 {
		return "", errors.New("authn not configured")
	}
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return a.opts.JWTSecret, nil
	})
	if err != nil || !parsed.Valid {
		return "", errors.New("invalid token")
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return "", errors.New("subject missing")
	}
	return subject, nil
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerPrefix)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
