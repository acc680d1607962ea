// Package v1 wires the HTTP surface of the fintrack service.
// It keeps handlers thin, delegating ledger rules to the service layer.
package v1

import (
	"context"
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tinoosan/fintrack/internal/metrics"
	"github.com/tinoosan/fintrack/internal/service/account"
	"github.com/tinoosan/fintrack/internal/service/catalog"
	"github.com/tinoosan/fintrack/internal/service/report"
	"github.com/tinoosan/fintrack/internal/service/transaction"
)

// Services bundles the service layer the handlers delegate to.
type Services struct {
	Accounts     account.Service
	Transactions transaction.Service
	Reports      report.Service
	Catalog      catalog.Service
}

// ReadyChecker is optionally implemented by stores and caches to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// Options tunes the router.
type Options struct {
	AllowedOrigins []string
	// Ready is consulted by /readyz; nil means always ready.
	Ready []ReadyChecker
}

// Server wires handlers and middleware using Chi.
type Server struct {
	svc   Services
	ready []ReadyChecker
	log   *slog.Logger
	rt    *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
func New(svc Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil { logger = slog.Default() }
	origins := opts.AllowedOrigins
	if len(origins) == 0 { origins = []string{"*"} }

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", headerUserID, headerUserRole, chimw.RequestIDHeader},
	}))

	s := &Server{svc: svc, ready: opts.Ready, log: logger, rt: r}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints.
func (s *Server) routes() {
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Handle("/metrics", metrics.Handler())

	s.rt.Route("/v1", func(r chi.Router) {
		r.Use(withActor)

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", s.postAccount)
			r.Get("/options", s.accountOptions)
			r.Get("/{id}", s.getAccount)
			r.Patch("/{id}", s.updateAccount)
			r.Delete("/{id}", s.deleteAccount)
			r.Get("/{id}/reconcile", s.reconcileAccount)
		})
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", s.postTransaction)
			r.Get("/", s.listTransactions)
			r.Patch("/{id}", s.updateTransaction)
			r.Delete("/{id}", s.deleteTransaction)
		})
		r.Get("/cash-flow", s.cashFlow)

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", s.postCategory)
			r.Get("/", s.listCategories)
			r.Delete("/{id}", s.deleteCategory)
		})
		r.Route("/currencies", func(r chi.Router) {
			r.Post("/", s.postCurrency)
			r.Get("/", s.listCurrencies)
			r.Delete("/{id}", s.deleteCurrency)
		})
		r.Route("/account-types", func(r chi.Router) {
			r.Post("/", s.postAccountType)
			r.Get("/", s.listAccountTypes)
			r.Delete("/{id}", s.deleteAccountType)
		})
		r.Post("/catalog/seed", s.seedCatalog)
	})
}
