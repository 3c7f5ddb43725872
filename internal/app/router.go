package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/atelier-works/atelier/internal/audit"
	"github.com/atelier-works/atelier/internal/auth"
	"github.com/atelier-works/atelier/internal/authz"
	"github.com/atelier-works/atelier/internal/clients"
	"github.com/atelier-works/atelier/internal/gate"
	"github.com/atelier-works/atelier/internal/observability"
	"github.com/atelier-works/atelier/internal/platform/httpx"
	"github.com/atelier-works/atelier/internal/repairs"
	"github.com/atelier-works/atelier/internal/users"
	"github.com/atelier-works/atelier/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Registry       *authz.Registry
	Affordances    []authz.Affordance
	Gate           gate.Gate
	AuthHandler    *auth.Handler
	ClientsHandler *clients.Handler
	RepairsHandler *repairs.Handler
	UsersHandler   *users.Handler
	AuditHandler   *audit.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// adminRequirements lists requirements declared directly by the router.
func adminRequirements() []authz.Requirement {
	return []authz.Requirement{authz.RoleEquals(authz.RoleAdministrator)}
}

// NewRouter constructs the chi.Router with Atelier defaults. It fails
// when a route or affordance references a permission no role grants:
// a dangling reference is a configuration error, caught at startup
// rather than discovered as a route nobody can ever reach.
func NewRouter(params RouterParams) (http.Handler, error) {
	declared := adminRequirements()
	declared = append(declared, clients.Requirements()...)
	declared = append(declared, repairs.Requirements()...)
	declared = append(declared, users.Requirements()...)
	if err := params.Registry.CheckRequirements(declared...); err != nil {
		return nil, err
	}
	if err := params.Registry.CheckAffordances(params.Affordances...); err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		// Login is rate-limited harder than the rest of the API.
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			params.AuthHandler.MountPublicRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(params.Gate.Authenticate)
			params.AuthHandler.MountProtectedRoutes(r)
		})
	})

	// Everything below requires a verified token and resolved principal.
	r.Group(func(r chi.Router) {
		r.Use(params.Gate.Authenticate)

		r.Route("/clients", params.ClientsHandler.MountRoutes)
		r.Route("/repairs", params.RepairsHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.Gate.RequireRole(authz.RoleAdministrator))
			r.Get("/admin/registry", func(w http.ResponseWriter, req *http.Request) {
				grants := make(map[authz.Role][]authz.Permission)
				for _, role := range params.Registry.Roles() {
					grants[role] = params.Registry.Grants(role)
				}
				httpx.JSON(w, http.StatusOK, map[string]any{
					"roles":       grants,
					"affordances": params.Affordances,
				})
			})
			if params.AuditHandler != nil {
				r.Route("/admin/audit", params.AuditHandler.MountRoutes)
			}
			if params.JobHandler != nil {
				r.Route("/admin/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r, nil
}
