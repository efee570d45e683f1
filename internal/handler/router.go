package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"modified-rsa-service/config"
	"modified-rsa-service/internal/middleware"
)

// NewRouter はルーターを生成する。
func NewRouter(h *KeyHandler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// ルート定義
	r.Route("/v1/tenants/{tenant_id}", func(r chi.Router) {
		r.Route("/keys", func(r chi.Router) {
			r.Post("/", h.CreateKey)
			r.Get("/", h.ListKeys)
			r.Get("/current", h.GetCurrentKey)
			r.Post("/rotate", h.RotateKey)
			r.Get("/{generation}", h.GetKeyByGeneration)
			r.Delete("/{generation}", h.DisableKey)
		})
		r.Post("/encrypt", h.Encrypt)
		r.Post("/decrypt", h.Decrypt)
	})

	if cfg != nil && cfg.OtelEnabled {
		return otelhttp.NewHandler(r, "modified-rsa-service",
			otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
				return req.Method + " " + req.URL.Path
			}),
		)
	}
	return r
}
