package app

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-apparel/meridian-console/internal/audit"
	"github.com/meridian-apparel/meridian-console/internal/auth"
	"github.com/meridian-apparel/meridian-console/internal/authz"
	"github.com/meridian-apparel/meridian-console/internal/categories"
	"github.com/meridian-apparel/meridian-console/internal/customers"
	"github.com/meridian-apparel/meridian-console/internal/dashboard"
	"github.com/meridian-apparel/meridian-console/internal/grants"
	"github.com/meridian-apparel/meridian-console/internal/orders"
	"github.com/meridian-apparel/meridian-console/internal/observability"
	"github.com/meridian-apparel/meridian-console/internal/products"
	"github.com/meridian-apparel/meridian-console/internal/shared"
	"github.com/meridian-apparel/meridian-console/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Guard          authz.Middleware

	AuthHandler       *auth.Handler
	GrantsHandler     *grants.Handler
	CategoriesHandler *categories.Handler
	ProductsHandler   *products.Handler
	OrdersHandler     *orders.Handler
	CustomersHandler  *customers.Handler
	UsersHandler      *users.Handler
	AuditHandler      *audit.Handler
	DashboardHandler  *dashboard.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router for the console API. Module subtrees
// mount under the same paths the module catalog declares, so the catalog
// stays the single source of truth for both the guard and the sidebar.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/categories", params.CategoriesHandler.MountRoutes)
	r.Route("/products", params.ProductsHandler.MountRoutes)
	r.Route("/orders", params.OrdersHandler.MountRoutes)
	r.Route("/customers", params.CustomersHandler.MountRoutes)
	r.Route("/permissions", params.GrantsHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/audit", params.AuditHandler.MountRoutes)

	// The dashboard sections resolve against the catalog by path, so the
	// route guard applies here instead of a per-module gate. Unregistered
	// paths under the guard still deny by default.
	r.Group(func(r chi.Router) {
		r.Use(params.Guard.RequireRoute())
		r.Get("/", params.DashboardHandler.Overview)
		r.Get("/analytics", params.DashboardHandler.Analytics)
		r.Get("/financial", params.DashboardHandler.Financial)
	})

	return r
}
