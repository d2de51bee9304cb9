// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services; transport concerns stay here.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hawiya/pkg/platform/httputil"
)

// Deps carries everything the router wires together.
type Deps struct {
	Logger     *slog.Logger
	Validate   *ValidateHandler
	APIKeys    *APIKeysHandler
	Authorizer Authorizer
	Health     func() error
}

// NewRouter wires all public endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(Recovery(deps.Logger))
	r.Use(RequestID)
	r.Use(ClientMetadata)
	r.Use(Logger(deps.Logger))

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(deps.Authorizer))
			r.Post("/validate", deps.Validate.handleValidate)
		})

		r.Post("/api-keys", deps.APIKeys.handleCreate)
		r.Post("/api-keys/{id}/revoke", deps.APIKeys.handleRevoke)
	})

	r.Get("/healthz", handleHealth(deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func handleHealth(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable,
					map[string]string{"status": "degraded"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
