package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/ngtlab/attendance-dashboard/internal"
	"github.com/ngtlab/attendance-dashboard/internal/attendance"
	"github.com/ngtlab/attendance-dashboard/internal/auth"
	"github.com/ngtlab/attendance-dashboard/internal/ingest"
	"github.com/ngtlab/attendance-dashboard/internal/transport/metrics"
	"github.com/ngtlab/attendance-dashboard/internal/transport/middleware"
	"github.com/ngtlab/attendance-dashboard/internal/transport/swagger"
	"github.com/ngtlab/attendance-dashboard/internal/user"
	"github.com/go-chi/chi"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, cfg *internal.Config, authHandler *auth.Handler, userHandler *user.Handler, attendanceHandler *attendance.Handler, webhookHandler *ingest.WebhookHandler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORSWithOrigins(cfg.Server.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	if cfg.Observability.Metrics.Enabled {
		router.Use(metrics.Instrument)
		router.Handle(cfg.Observability.Metrics.Path, metrics.Handler())
	}

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Device push endpoint, authenticated by shared secret
		if webhookHandler != nil {
			r.Post("/webhooks/attendance", webhookHandler.HandleDeviceEvent)
		}

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		if authHandler != nil {
			// Everything the dashboard reads or deletes requires a session.
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				// Current user
				if userHandler != nil {
					pr.Get("/users/me", userHandler.GetCurrentUser)
				}

				if attendanceHandler != nil {
					pr.Route("/attendance", func(ar chi.Router) {
						ar.Get("/events", attendanceHandler.GetHistory)          // GET /attendance/events
						ar.Delete("/events/{id}", attendanceHandler.DeleteEvent) // DELETE /attendance/events/:id
						ar.Get("/records/today", attendanceHandler.GetToday)     // GET /attendance/records/today
						ar.Delete("/records", attendanceHandler.DeleteRecord)    // DELETE /attendance/records
					})
				}
			})
		}
	})
}
