package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	authmw "github.com/mind-engage/examgrade/internal/auth/middleware"
	"github.com/mind-engage/examgrade/internal/exam"
	"github.com/mind-engage/examgrade/internal/logger"
	"github.com/mind-engage/examgrade/internal/metrics"
	"github.com/mind-engage/examgrade/internal/rbac"
)

type Deps struct {
	Store       exam.Store
	Coordinator *exam.Coordinator
	Presenter   *exam.Presenter
	Auth        *authmw.AuthService
	Log         *zap.Logger

	// Login is mounted at POST /auth/login when EnableLocalAuth is set.
	EnableLocalAuth bool
	Login           authmw.LoginConfig

	CORSOrigins []string

	// Metrics and Gatherer are optional; /metrics is mounted when Gatherer is set.
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// Ready backs /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Presenter == nil {
		d.Presenter = exam.NewPresenter()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logger.Middleware(d.Log), middleware.Recoverer)
	r.Use(d.Metrics.Middleware)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.EnableLocalAuth {
		r.Post("/auth/login", authmw.LoginHandler(d.Auth, d.Login))
	}

	// Protected API (JWT → session in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))

		pr.With(rbac.Require(rbac.PermExamView)).
			Get("/exams/{examID}", GetExamHandler(d.Store, d.Presenter))
		pr.With(rbac.Require(rbac.PermExamView)).
			Get("/exams/{examID}/attempt", CheckAttemptHandler(d.Store))
		pr.With(rbac.Require(rbac.PermExamView, rbac.PermAttemptSubmit)).
			Post("/exams/{examID}/submit", SubmitHandler(d.Store, d.Coordinator, d.Log))

		pr.With(rbac.RequireAny(rbac.PermAttemptViewOwn, rbac.PermAttemptViewAll)).
			Get("/attempts", ListAttemptsHandler(d.Store))
		pr.With(rbac.RequireAny(rbac.PermAttemptViewOwn, rbac.PermAttemptViewAll)).
			Get("/attempts/{attemptID}", GetAttemptReviewHandler(d.Store))

		pr.Route("/admin", func(ar chi.Router) {
			ar.With(rbac.Require(rbac.PermExamManage)).
				Put("/exams/{examID}", PutExamHandler(d.Store))
			ar.With(rbac.Require(rbac.PermExamManage)).
				Get("/exams/{examID}", GetExamAdminHandler(d.Store))
			ar.With(rbac.Require(rbac.PermEventsRead)).
				Get("/events", ListEventsHandler(d.Store))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}
	return r
}
