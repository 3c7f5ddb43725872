// Package gate implements the server-side request gate: token
// verification, principal resolution and authorization, composed as
// chi middleware. The chain is strictly sequential per request and
// short-circuits on the first failure; the downstream handler is never
// invoked for a rejected request.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-works/atelier/internal/audit"
	"github.com/atelier-works/atelier/internal/authz"
	"github.com/atelier-works/atelier/internal/observability"
	"github.com/atelier-works/atelier/internal/platform/httpx"
	"github.com/atelier-works/atelier/internal/principal"
	"github.com/atelier-works/atelier/internal/token"
)

// Machine-stable rejection reason codes.
const (
	ReasonTokenMissing      = "token_missing"
	ReasonTokenExpired      = "token_expired"
	ReasonTokenInvalid      = "token_invalid"
	ReasonTokenMalformed    = "token_malformed"
	ReasonPrincipalNotFound = "principal_not_found"
	ReasonAuthError         = "auth_error"
	ReasonForbidden         = "forbidden"
)

// Terminal states for metrics and audit.
const (
	outcomeAdmitted        = "admitted"
	outcomeUnauthenticated = "unauthenticated"
	outcomeForbidden       = "forbidden"
)

// Sink receives audit events without blocking the request path.
type Sink interface {
	Record(ctx context.Context, ev audit.Event)
}

// Gate wires the verifier, resolver and engine into HTTP middleware.
type Gate struct {
	Verifier *token.Verifier
	Resolver principal.Resolver
	Engine   *authz.Engine
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Audit    Sink
}

// Authenticate verifies the bearer token and resolves the principal,
// attaching it to the request context. Any token or resolution failure
// rejects with 401; unexpected internal failures (including panics in
// the verification machinery) are normalized to 401 rather than leaked
// as 500 or silently admitted.
func (g Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, reason, ok := g.authenticate(r)
		if !ok {
			g.reject(w, r, outcomeUnauthenticated, reason, "")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
	})
}

// Require evaluates the route's declared requirement against the
// authenticated principal. It must be composed after Authenticate; a
// request that somehow reaches it without a principal is rejected, so
// a permission gate can never run for an unverified identity.
func (g Gate) Require(req authz.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				g.reject(w, r, outcomeUnauthenticated, ReasonAuthError, "authentication required")
				return
			}
			decision := g.Engine.Authorize(p.Role, req)
			if !decision.Allow {
				g.rejectForbidden(w, r, p, req, decision)
				return
			}
			g.Metrics.RecordDecision(outcomeAdmitted, decision.Reason)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole admits only principals holding exactly the given role.
func (g Gate) RequireRole(role authz.Role) func(http.Handler) http.Handler {
	return g.Require(authz.RoleEquals(role))
}

// RequirePermission admits principals whose role grants the permission.
func (g Gate) RequirePermission(p authz.Permission) func(http.Handler) http.Handler {
	return g.Require(authz.HasPermission(p))
}

func (g Gate) authenticate(r *http.Request) (p *principal.Principal, reason string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			if g.Logger != nil {
				g.Logger.Error("panic during authentication", slog.Any("panic", rec))
			}
			p, reason, ok = nil, ReasonAuthError, false
		}
	}()

	identity, err := g.Verifier.Verify(bearerToken(r))
	if err != nil {
		return nil, tokenReason(err), false
	}

	p, err = g.Resolver.Resolve(r.Context(), identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, principal.ErrNotFound):
			return nil, ReasonPrincipalNotFound, false
		case errors.Is(err, principal.ErrTimeout):
			if g.Logger != nil {
				g.Logger.Warn("principal lookup timed out", slog.Int64("user_id", identity.UserID))
			}
			return nil, ReasonAuthError, false
		default:
			if g.Logger != nil {
				g.Logger.Error("principal lookup failed", slog.Int64("user_id", identity.UserID), slog.Any("error", err))
			}
			return nil, ReasonAuthError, false
		}
	}
	return p, "", true
}

func (g Gate) reject(w http.ResponseWriter, r *http.Request, outcome, reason, detail string) {
	g.Metrics.RecordDecision(outcome, reason)
	g.recordAudit(r, audit.Event{
		Kind:       audit.KindRejection,
		Route:      routePattern(r),
		Outcome:    outcome,
		Reason:     reason,
		RemoteAddr: r.RemoteAddr,
		At:         time.Now().UTC(),
	})
	httpx.Unauthenticated(w, reason, detail)
}

func (g Gate) rejectForbidden(w http.ResponseWriter, r *http.Request, p *principal.Principal, req authz.Requirement, decision authz.Decision) {
	g.Metrics.RecordDecision(outcomeForbidden, decision.Reason)
	g.recordAudit(r, audit.Event{
		Kind:       audit.KindRejection,
		ActorID:    p.ID,
		Route:      routePattern(r),
		Outcome:    outcomeForbidden,
		Reason:     decision.Reason,
		RemoteAddr: r.RemoteAddr,
		At:         time.Now().UTC(),
	})
	httpx.Forbidden(w, ReasonForbidden, "requires "+req.String())
}

func (g Gate) recordAudit(r *http.Request, ev audit.Event) {
	if g.Audit == nil {
		return
	}
	g.Audit.Record(r.Context(), ev)
}

func tokenReason(err error) string {
	switch {
	case errors.Is(err, token.ErrMissing):
		return ReasonTokenMissing
	case errors.Is(err, token.ErrExpired):
		return ReasonTokenExpired
	case errors.Is(err, token.ErrMalformed):
		return ReasonTokenMalformed
	default:
		return ReasonTokenInvalid
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
