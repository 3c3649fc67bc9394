package app

import (
	"net/http"
	"taskManager/internal/config"
	"taskManager/internal/handlers"
	"taskManager/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter собирает маршруты API. Все /api маршруты требуют JWT.
func NewRouter(cfg *config.Config, taskService handlers.Service, reportService handlers.ReportService) http.Handler {
	taskHandler := handlers.NewTaskHandler(taskService)
	reportHandler := handlers.NewReportHandler(reportService)

	r := chi.NewRouter()

	r.Use(middleware.SpanRoute)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.Server.RateLimit > 0 {
		r.Use(middleware.RateLimit(cfg.Server.RateLimit))
	}
	if cfg.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}

	r.Get("/health", taskHandler.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth.JWTSecret))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)   // GET /api/tasks
			r.Post("/", taskHandler.CreateTask) // POST /api/tasks

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTask)       // GET /api/tasks/{id}
				r.Put("/", taskHandler.UpdateTask)    // PUT /api/tasks/{id}
				r.Delete("/", taskHandler.DeleteTask) // DELETE /api/tasks/{id}

				r.Post("/comments", taskHandler.AddComment)             // POST /api/tasks/{id}/comments
				r.Post("/attachments", taskHandler.AttachFile)          // POST /api/tasks/{id}/attachments
				r.Post("/getTaskReport", taskHandler.GetTaskReport)     // POST /api/tasks/{id}/getTaskReport
				r.Post("/notifyDeadlines", taskHandler.NotifyDeadlines) // POST /api/tasks/{id}/notifyDeadlines
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/completion", reportHandler.Completion)
			r.Get("/deadlines", reportHandler.UpcomingDeadlines)
			r.Get("/progress", reportHandler.Progress)
		})
	})

	// до маршрутизации шаблон неизвестен, SpanRoute переименует спан после
	return otelhttp.NewHandler(r, "taskManager",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method
		}))
}
