package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/edi-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterOptions carries the deployment settings the router needs.
type RouterOptions struct {
	Env            string
	Version        string
	AllowedOrigins []string
	LogLevel       slog.Level
}

// Handlers groups the HTTP handlers mounted under /api/v1.
type Handlers struct {
	Radian       RadianHandler
	EdiPayslip   EdiPayslipHandler
	Notification NotificationHandler
	Metrics      http.Handler
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       opts.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "edi-cmlabs"),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// SSE authenticates with the query-string token
		r.Get("/notifications/stream", h.Notification.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/radian-events", func(r chi.Router) {
				r.Get("/", h.Radian.List)
				r.Post("/", h.Radian.Create)

				r.Get("/event-types", h.Radian.ListEventTypes)
				r.Get("/rejection-concepts", h.Radian.ListRejectionConcepts)

				r.Post("/post", h.Radian.Post)
				r.Post("/draft", h.Radian.Draft)
				r.Post("/cancel", h.Radian.Cancel)
				r.Post("/requests", h.Radian.PreviewRequests)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Radian.Get)
					r.Put("/", h.Radian.Update)
					r.Delete("/", h.Radian.Delete)
					r.Post("/validate", h.Radian.Validate)
				})
			})

			r.Route("/edi-payslips", func(r chi.Router) {
				r.Get("/", h.EdiPayslip.List)
				r.Post("/generate", h.EdiPayslip.Generate)
				r.Get("/{id}", h.EdiPayslip.Get)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notification.List)
				r.Get("/unread-count", h.Notification.UnreadCount)
				r.Post("/read", h.Notification.MarkAsRead)
				r.Post("/read-all", h.Notification.MarkAllAsRead)
				r.Post("/sse-token", h.Notification.GetSSEToken)
			})
		})
	})
	return r
}
