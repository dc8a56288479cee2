package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new HTTP router with configured routes, middleware, and handlers.
// It sets up the upload form api, health check, and Prometheus metrics endpoint.
func NewRouter(service VoiceServiceI, maxUploadSize int64, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	voiceHandler := NewVoiceHandler(service, maxUploadSize, logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/uploads", voiceHandler.CreateUpload)
		r.Post("/links/validate", voiceHandler.ValidateLink)
		r.Get("/supported-formats", voiceHandler.SupportedFormats)

		r.Route("/tasks/{taskID}", func(r chi.Router) {
			r.Get("/", voiceHandler.GetTask)
			r.Get("/wait", voiceHandler.WaitTask)
			r.Delete("/", voiceHandler.CancelTask)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
