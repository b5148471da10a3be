package dashboard

import (
	"net/http"

	"log/slog"

	"github.com/meridian-apparel/meridian-console/internal/platform/httpx"
)

// Handler serves the guarded dashboard, analytics and financial sections.
// Access is enforced by the route guard at mount time; the paths here map
// one to one onto module catalog entries.
type Handler struct {
	logger *slog.Logger
	repo   *Repository
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, repo *Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// Overview serves the landing page counters.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.repo.Overview(r.Context())
	if err != nil {
		h.logger.Error("dashboard overview", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

// Analytics serves per-category sales aggregates.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	sales, err := h.repo.SalesByCategory(r.Context())
	if err != nil {
		h.logger.Error("dashboard analytics", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales_by_category": sales})
}

// Financial serves order revenue aggregates per status.
func (h *Handler) Financial(w http.ResponseWriter, r *http.Request) {
	totals, err := h.repo.RevenueByStatus(r.Context())
	if err != nil {
		h.logger.Error("dashboard financial", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"revenue_by_status": totals})
}
