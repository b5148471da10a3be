package products

import (
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-apparel/meridian-console/internal/authz"
	"github.com/meridian-apparel/meridian-console/internal/platform/httpx"
	"github.com/meridian-apparel/meridian-console/internal/shared"
)

// Handler exposes product endpoints. The view action on products is wider
// than the module grant (viewers may list), so each group carries its own
// action guard and the service enforces the category grant underneath.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireModule(authz.ModuleProducts, authz.ActionView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireModule(authz.ModuleProducts, authz.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireModule(authz.ModuleProducts, authz.ActionEdit))
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireModule(authz.ModuleProducts, authz.ActionDelete))
		r.Delete("/{id}", h.delete)
	})
}

type productRequest struct {
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required,max=160"`
	SKU        string `json:"sku" validate:"max=64"`
	PriceCents int64  `json:"price_cents" validate:"gte=0"`
	Stock      int32  `json:"stock" validate:"gte=0"`
	IsActive   bool   `json:"is_active"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	subject := authz.SubjectFromContext(r.Context())
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || categoryID <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid category_id")
			return
		}
		rows, err := h.service.ListByCategory(r.Context(), *subject, categoryID)
		if err != nil {
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"products": rows})
		return
	}
	rows, err := h.service.ListVisible(r.Context(), *subject)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": rows})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	subject := authz.SubjectFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	product, err := h.service.Get(r.Context(), *subject, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	subject := authz.SubjectFromContext(r.Context())
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	product, err := h.service.Create(r.Context(), *subject, fromRequest(req))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	subject := authz.SubjectFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	p := fromRequest(req)
	p.ID = id
	product, err := h.service.Update(r.Context(), *subject, p)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	subject := authz.SubjectFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), *subject, id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (productRequest, bool) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed product payload")
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "name and category_id are required")
		return req, false
	}
	return req, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAccessDenied):
		httpx.Problem(w, http.StatusForbidden, "Access Denied", "no grant covers this product's category")
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
	default:
		h.logger.Error("product operation", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func fromRequest(req productRequest) Product {
	return Product{
		CategoryID: req.CategoryID,
		Name:       req.Name,
		SKU:        req.SKU,
		PriceCents: req.PriceCents,
		Stock:      req.Stock,
		IsActive:   req.IsActive,
	}
}
