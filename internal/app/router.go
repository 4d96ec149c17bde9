package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/velora-pos/velora/internal/auth"
	"github.com/velora-pos/velora/internal/catalog"
	"github.com/velora-pos/velora/internal/masterdata/suppliers"
	"github.com/velora-pos/velora/internal/notify"
	"github.com/velora-pos/velora/internal/purchases"
	"github.com/velora-pos/velora/internal/sales"
	"github.com/velora-pos/velora/internal/stats"
	"github.com/velora-pos/velora/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AuthService     *auth.Service
	AuthHandler     *auth.Handler
	CatalogHandler  *catalog.Handler
	SupplierHandler *suppliers.Handler
	PurchaseHandler *purchases.Handler
	SalesHandler    *sales.Handler
	StatsHandler    *stats.Handler
	NotifyHandler   *notify.Handler
	JobsHandler     *jobs.Handler
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountPublicRoutes)

	// Published products are the public storefront view.
	params.CatalogHandler.MountPublicRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(params.Logger, params.AuthService))

		params.AuthHandler.MountRoutes(r)
		params.CatalogHandler.MountRoutes(r)
		r.Route("/suppliers", params.SupplierHandler.MountRoutes)
		r.Route("/purchases", params.PurchaseHandler.MountRoutes)
		r.Route("/sales", params.SalesHandler.MountRoutes)
		r.Route("/stats", params.StatsHandler.MountRoutes)
		r.Route("/notifications", params.NotifyHandler.MountRoutes)
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	return r
}
