// Package audit emits append-only JSON audit events for privileged actions:
// grant lifecycle changes, role switches, and session invalidation.
package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"debtflow.io/internal/authz"
	"debtflow.io/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier for audit correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes one audit line enriched with request and identity context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("audit: event name is required")
	}
	entry := obs.Logger().Info().
		Str("type", "audit").
		Str("event", event).
		Time("ts", time.Now().UTC())
	if rid := requestIDFromContext(ctx); rid != "" {
		entry = entry.Str("request_id", rid)
	}
	if identityID, ok := authz.IdentityFromContext(ctx); ok {
		entry = entry.Str("identity_id", identityID)
	}
	if len(fields) > 0 {
		entry = entry.Fields(fields)
	}
	entry.Send()
	return nil
}
