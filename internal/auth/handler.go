package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-works/atelier/internal/audit"
	"github.com/atelier-works/atelier/internal/authz"
	"github.com/atelier-works/atelier/internal/gate"
	"github.com/atelier-works/atelier/internal/platform/httpx"
	"github.com/atelier-works/atelier/internal/principal"
	"github.com/atelier-works/atelier/internal/token"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	verifier    *token.Verifier
	registry    *authz.Registry
	affordances []authz.Affordance
	validator   *validator.Validate
	audit       gate.Sink
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, verifier *token.Verifier, registry *authz.Registry, affordances []authz.Affordance, sink gate.Sink) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		verifier:    verifier,
		registry:    registry,
		affordances: affordances,
		validator:   validator.New(),
		audit:       sink,
	}
}

// MountPublicRoutes registers the unauthenticated auth routes.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

// MountProtectedRoutes registers routes requiring authentication.
// They re-serve the principal summary so a client can refresh its
// capability map without registry logic of its own.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Get("/capabilities", h.handleCapabilities)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// principalSummary is the login payload described to clients: the
// expanded permission set travels with the role so the client never
// duplicates registry logic.
type principalSummary struct {
	ID                 int64              `json:"id"`
	Email              string             `json:"email"`
	Name               string             `json:"name"`
	Role               authz.Role         `json:"role"`
	Attributes         map[string]string  `json:"attributes,omitempty"`
	GrantedPermissions []authz.Permission `json:"granted_permissions"`
	Capabilities       map[string]bool    `json:"capabilities"`
}

type loginResponse struct {
	principalSummary
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			h.logger.Error("authenticate", slog.Any("error", err))
		}
		httpx.Unauthenticated(w, "invalid_credentials", "email or password is incorrect")
		return
	}

	signed, expiresAt, err := h.verifier.Issue(token.Identity{UserID: user.ID})
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	if h.audit != nil {
		h.audit.Record(r.Context(), audit.Event{
			Kind:       audit.KindLogin,
			ActorID:    user.ID,
			Outcome:    "success",
			RemoteAddr: r.RemoteAddr,
			At:         time.Now().UTC(),
		})
	}

	httpx.JSON(w, http.StatusOK, loginResponse{
		principalSummary: h.summarize(&principal.Principal{
			ID:         user.ID,
			Email:      user.Email,
			Name:       user.Name,
			Role:       user.Role,
			Attributes: user.Attributes,
		}),
		Token:     signed,
		ExpiresAt: expiresAt,
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p := gate.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.Unauthenticated(w, gate.ReasonAuthError, "authentication required")
		return
	}
	httpx.JSON(w, http.StatusOK, h.summarize(p))
}

func (h *Handler) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	p := gate.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.Unauthenticated(w, gate.ReasonAuthError, "authentication required")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"capabilities": authz.Project(h.registry.Grants(p.Role), h.affordances),
	})
}

// HandleLoginForTest exposes the login handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

func (h *Handler) summarize(p *principal.Principal) principalSummary {
	granted := h.registry.Grants(p.Role)
	return principalSummary{
		ID:                 p.ID,
		Email:              p.Email,
		Name:               p.Name,
		Role:               p.Role,
		Attributes:         p.Attributes,
		GrantedPermissions: granted,
		Capabilities:       authz.Project(granted, h.affordances),
	}
}
