package clients

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
		authz.HasPermission(authz.PermClientsView),
		authz.HasPermission(authz.PermClientsManage),
	}
}

// Handler wires HTTP endpoints for the clients module.
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

// MountRoutes registers client routes. Reads require clients.view,
// writes require clients.manage.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequirePermission(authz.PermClientsView))
		r.Get("/", h.list)
		r.Get("/{clientID}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequirePermission(authz.PermClientsManage))
		r.Post("/", h.create)
		r.Put("/{clientID}", h.update)
	})
}

type clientForm struct {
	Name    string `json:"name" validate:"required,min=2"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=32"`
	Address string `json:"address" validate:"omitempty,max=500"`
	Notes   string `json:"notes" validate:"omitempty,max=2000"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("list clients", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"clients": result})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "clientID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid client id")
		return
	}
	client, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get client")
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	form, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	client, err := h.service.Create(r.Context(), Client{
		Name:    form.Name,
		Email:   form.Email,
		Phone:   form.Phone,
		Address: form.Address,
		Notes:   form.Notes,
	})
	if err != nil {
		h.respondError(w, err, "create client")
		return
	}
	httpx.JSON(w, http.StatusCreated, client)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "clientID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid client id")
		return
	}
	form, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	client, err := h.service.Update(r.Context(), Client{
		ID:      id,
		Name:    form.Name,
		Email:   form.Email,
		Phone:   form.Phone,
		Address: form.Address,
		Notes:   form.Notes,
	})
	if err != nil {
		h.respondError(w, err, "update client")
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *Handler) decodeForm(w http.ResponseWriter, r *http.Request) (clientForm, bool) {
	var form clientForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return form, false
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return form, false
	}
	return form, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "client not found")
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
