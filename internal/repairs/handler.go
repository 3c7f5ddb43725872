package repairs

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
		authz.HasPermission(authz.PermRepairsView),
		authz.HasPermission(authz.PermRepairsManage),
	}
}

// Handler wires HTTP endpoints for the repairs module.
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

// MountRoutes registers repair routes. Reads require repairs.view,
// writes require repairs.manage.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequirePermission(authz.PermRepairsView))
		r.Get("/", h.list)
		r.Get("/{repairID}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequirePermission(authz.PermRepairsManage))
		r.Post("/", h.create)
		r.Post("/{repairID}/status", h.transition)
	})
}

type createForm struct {
	ClientID  int64  `json:"client_id" validate:"required,gt=0"`
	Equipment string `json:"equipment" validate:"required,min=2"`
	Issue     string `json:"issue" validate:"required,min=3"`
}

type transitionForm struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), Status(r.URL.Query().Get("status")))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"repairs": result})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.repairID(w, r)
	if !ok {
		return
	}
	rep, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get repair")
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form createForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rep, err := h.service.Create(r.Context(), Repair{
		ClientID:  form.ClientID,
		Equipment: form.Equipment,
		Issue:     form.Issue,
	})
	if err != nil {
		h.respondError(w, err, "create repair")
		return
	}
	httpx.JSON(w, http.StatusCreated, rep)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.repairID(w, r)
	if !ok {
		return
	}
	var form transitionForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	// The acting technician is taken from the authenticated principal,
	// never from the request body.
	var technicianID *int64
	if p := gate.PrincipalFromContext(r.Context()); p != nil && p.Role == authz.RoleTechnician {
		technicianID = &p.ID
	}

	rep, err := h.service.Transition(r.Context(), id, Status(form.Status), technicianID)
	if err != nil {
		h.respondError(w, err, "transition repair")
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) repairID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "repairID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid repair id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "repair not found")
	case errors.Is(err, ErrBadTransition):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
