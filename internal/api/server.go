package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/zeyadrezk/rds-provisioner/internal/api/handler"
	mw "github.com/zeyadrezk/rds-provisioner/internal/api/middleware"
	"github.com/zeyadrezk/rds-provisioner/internal/config"
	"github.com/zeyadrezk/rds-provisioner/internal/core"
)

type Server struct {
	router         chi.Router
	logger         zerolog.Logger
	services       *core.Services
	pool           *pgxpool.Pool
	temporalClient temporalclient.Client
	cfg            *config.Config
}

func NewServer(logger zerolog.Logger, services *core.Services, pool *pgxpool.Pool, temporalClient temporalclient.Client, cfg *config.Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		services:       services,
		pool:           pool,
		temporalClient: temporalClient,
		cfg:            cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Clients and subscriptions
		client := handler.NewClient(s.services.Client)
		r.Post("/clients", client.Create)
		r.Get("/clients/{clientID}", client.Get)
		r.Post("/clients/{clientID}/services/{serviceID}/subscription", client.Subscribe)

		// Service catalog
		service := handler.NewService(s.services.Catalog)
		r.Get("/services", service.List)
		r.Post("/services", service.Create)

		// Databases
		database := handler.NewDatabase(s.services.Database, s.services.Provisioning)
		r.Get("/clients/{clientID}/databases", database.ListByClient)
		r.Get("/clients/{clientID}/databases/{databaseID}", database.Get)
		r.Post("/clients/{clientID}/databases/provision", database.ProvisionClient)
		r.Post("/clients/{clientID}/services/{serviceID}/database", database.ProvisionService)
		r.Post("/clients/{clientID}/databases/{databaseID}/status", database.CheckStatus)
		r.Delete("/clients/{clientID}/databases/{databaseID}", database.Delete)

		// Direct instance management
		rdsInstance := handler.NewRDSInstance(s.services.RDSInstance)
		r.Post("/rds-instances", rdsInstance.Create)
		r.Get("/rds-instances", rdsInstance.List)
		r.Get("/rds-instances/{id}", rdsInstance.Get)
		r.Delete("/rds-instances/{id}", rdsInstance.Delete)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	if _, err := s.temporalClient.CheckHealth(ctx, &temporalclient.CheckHealthRequest{}); err != nil {
		checks["temporal"] = err.Error()
		healthy = false
	} else {
		checks["temporal"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
