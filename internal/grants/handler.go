package grants

import (
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-apparel/meridian-console/internal/authz"
	"github.com/meridian-apparel/meridian-console/internal/platform/httpx"
)

// Handler exposes grant administration and the current user's allowed
// categories.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers permission routes. Administration endpoints sit
// behind the permissions module guard; the "me" endpoint only needs a
// signed-in identity.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated())
		r.Get("/users/me/allowed-categories", h.myAllowedCategories)
		r.Post("/users/me/refresh", h.refreshMyGrants)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireModule(authz.ModulePermissions, ""))
		r.Get("/users/{userID}", h.listUserGrants)
		r.Put("/users/{userID}", h.replaceUserGrants)
		r.Get("/users/{userID}/allowed-categories", h.userAllowedCategories)
		r.Get("/categories/{categoryID}/users", h.listCategoryGrants)
	})
}

type grantsPayload struct {
	UserID int64           `json:"user_id"`
	Grants []CategoryGrant `json:"grants"`
}

type allowedCategoriesPayload struct {
	Action      string  `json:"action"`
	CategoryIDs []int64 `json:"category_ids"`
	// Unrestricted marks the super-admin sentinel; the ID list then
	// enumerates the categories known right now, but new categories are
	// included automatically.
	Unrestricted bool `json:"unrestricted"`
}

func (h *Handler) listUserGrants(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	rows, err := h.service.GrantsForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list user grants", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, grantsPayload{UserID: userID, Grants: rows})
}

func (h *Handler) replaceUserGrants(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	subject := authz.SubjectFromContext(r.Context())
	if subject == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	var payload grantsPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed grants payload")
		return
	}
	if err := h.service.ReplaceGrants(r.Context(), *subject, userID, payload.Grants); err != nil {
		switch {
		case errors.Is(err, ErrUnknownCategory), errors.Is(err, ErrDuplicateCategory):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		default:
			h.logger.Error("replace user grants", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}
	rows, err := h.service.GrantsForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("reread user grants", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, grantsPayload{UserID: userID, Grants: rows})
}

func (h *Handler) userAllowedCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	action, ok := queryAction(w, r)
	if !ok {
		return
	}
	// Administration view: inspect the raw grants of the target user, so
	// role bypass does not apply here.
	ids, err := h.service.RawAllowedCategoryIDs(r.Context(), userID, action)
	if err != nil {
		h.logger.Error("user allowed categories", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, allowedCategoriesPayload{Action: string(action), CategoryIDs: ids})
}

func (h *Handler) myAllowedCategories(w http.ResponseWriter, r *http.Request) {
	subject := authz.SubjectFromContext(r.Context())
	if subject == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	action, ok := queryAction(w, r)
	if !ok {
		return
	}
	ids, err := h.service.AllowedCategoryIDs(r.Context(), *subject, action)
	if err != nil {
		h.logger.Error("my allowed categories", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, allowedCategoriesPayload{
		Action:       string(action),
		CategoryIDs:  ids,
		Unrestricted: subject.Role.IsSuperAdmin(),
	})
}

// refreshMyGrants drops the caller's cached grant snapshot, so an
// administrator's edit is visible without signing out and back in.
func (h *Handler) refreshMyGrants(w http.ResponseWriter, r *http.Request) {
	subject := authz.SubjectFromContext(r.Context())
	if subject == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	h.service.RefreshGrants(*subject)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (h *Handler) listCategoryGrants(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(w, r, "categoryID")
	if !ok {
		return
	}
	rows, err := h.service.GrantsForCategory(r.Context(), categoryID)
	if err != nil {
		h.logger.Error("list category grants", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"category_id": categoryID, "grants": rows})
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid "+param)
		return 0, false
	}
	return id, true
}

func queryAction(w http.ResponseWriter, r *http.Request) (authz.Action, bool) {
	raw := r.URL.Query().Get("action")
	if raw == "" {
		return authz.ActionView, true
	}
	action, err := authz.ParseAction(raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown action")
		return "", false
	}
	return action, true
}
