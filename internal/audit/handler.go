package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-works/atelier/internal/platform/httpx"
)

// Handler serves the audit trail to administrators.
type Handler struct {
	logger *slog.Logger
	reader Reader
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, reader Reader) *Handler {
	return &Handler{logger: logger, reader: reader}
}

// MountRoutes registers audit trail routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.timeline)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := Filters{Kind: q.Get("kind")}
	if v := q.Get("actor"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid actor id")
			return
		}
		filters.ActorID = id
	}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PageSize, _ = strconv.Atoi(q.Get("pageSize"))

	records, err := h.reader.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"events": records})
}
