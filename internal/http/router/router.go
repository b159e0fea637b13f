// Package router monta o roteamento HTTP do proxy.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/zenithwms/zenith/internal/http/controllers/auth"
	wmsctrl "github.com/zenithwms/zenith/internal/http/controllers/wms"
	httperrors "github.com/zenithwms/zenith/internal/http/errors"
	"github.com/zenithwms/zenith/internal/http/helpers"
	"github.com/zenithwms/zenith/internal/http/metrics"
	mw "github.com/zenithwms/zenith/internal/http/middlewares"
	"github.com/zenithwms/zenith/internal/rate"
	"github.com/zenithwms/zenith/internal/session"
)

// Deps contém as dependências do router.
type Deps struct {
	Auth *authctrl.Controller
	WMS  *wmsctrl.Controller

	Sessions   *session.Issuer
	CookieName string

	Limiter        rate.Limiter
	Recoverer      mw.Middleware
	MetricsHandler http.Handler
}

// New monta o handler raiz. Tudo do app fica sob /api; /healthz e
// /metrics ficam fora do rate limit e da sessão.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(deps.Recoverer)
	r.Use(mw.WithRequestID())
	r.Use(metrics.Middleware())
	r.Use(mw.WithLogging())

	r.Get("/healthz", handleHealth)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(mw.WithRateLimit(deps.Limiter))

		api.Post("/login", deps.Auth.HandleLogin)

		// O contrato do app usa POST mesmo para as leituras.
		api.Group(func(priv chi.Router) {
			priv.Use(mw.RequireSession(deps.Sessions, deps.CookieName))

			priv.Post("/logout", deps.Auth.HandleLogout)
			priv.Post("/get-warehouses", deps.WMS.HandleWarehouses)
			priv.Post("/get-permissions", deps.WMS.HandlePermissions)
			priv.Post("/search-items", deps.WMS.HandleSearchItems)
			priv.Post("/get-item-details", deps.WMS.HandleItemDetails)
			priv.Post("/get-picking-locations", deps.WMS.HandlePickingLocations)
			priv.Post("/get-history", deps.WMS.HandleHistory)
			priv.Post("/execute-transaction", deps.WMS.HandleTransaction)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
