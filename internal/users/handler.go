package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-works/atelier/internal/authz"
	"github.com/atelier-works/atelier/internal/gate"
	"github.com/atelier-works/atelier/internal/platform/httpx"
)

// Requirements lists the authorization requirements this module
// declares on its routes, for the startup consistency check.
func Requirements() []authz.Requirement {
	return []authz.Requirement{
		authz.HasPermission(authz.PermUsersView),
		authz.HasPermission(authz.PermUsersManage),
	}
}

// Handler wires HTTP endpoints for account administration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      gate.Gate
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, g gate.Gate) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		gate:      g,
		validator: validator.New(),
	}
}

// MountRoutes registers account routes. Reads require users.view,
// writes require users.manage.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequirePermission(authz.PermUsersView))
		r.Get("/", h.list)
		r.Get("/{userID}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequirePermission(authz.PermUsersManage))
		r.Post("/", h.create)
		r.Put("/{userID}/role", h.changeRole)
		r.Put("/{userID}/active", h.setActive)
	})
}

type createForm struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2"`
	Role     string `json:"role" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type roleForm struct {
	Role string `json:"role" validate:"required"`
}

type activeForm struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": accounts})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get account")
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form createForm
	if !h.decode(w, r, &form) {
		return
	}
	account, err := h.service.Create(r.Context(), Account{
		Email: form.Email,
		Name:  form.Name,
		Role:  authz.Role(form.Role),
	}, form.Password)
	if err != nil {
		h.respondError(w, err, "create account")
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	var form roleForm
	if !h.decode(w, r, &form) {
		return
	}
	actor := gate.PrincipalFromContext(r.Context())
	if err := h.service.ChangeRole(r.Context(), actor.ID, id, authz.Role(form.Role)); err != nil {
		h.respondError(w, err, "change role")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "role": form.Role})
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	var form activeForm
	if !h.decode(w, r, &form) {
		return
	}
	actor := gate.PrincipalFromContext(r.Context())
	if err := h.service.SetActive(r.Context(), actor.ID, id, *form.Active); err != nil {
		h.respondError(w, err, "set active")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "active": *form.Active})
}

func (h *Handler) accountID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, form any) bool {
	if err := httpx.DecodeJSON(r, form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return false
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "account not found")
	case errors.Is(err, ErrUnknownRole):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown role")
	case errors.Is(err, ErrSelfChange):
		httpx.Problem(w, http.StatusConflict, "Conflict", "cannot change own account")
	case errors.Is(err, ErrEmailTaken):
		httpx.Problem(w, http.StatusConflict, "Conflict", "email already registered")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
