// Package web exposes the engine's documents and batch operations over a
// small JSON API.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/premise-atlas/internal/adjudicate"
	"github.com/premise-atlas/internal/config"
	"github.com/premise-atlas/internal/docstore"
	"github.com/premise-atlas/internal/facility"
	"github.com/premise-atlas/internal/sweep"
	"github.com/premise-atlas/internal/truth"
)

// Server wires the engine components behind HTTP handlers.
type Server struct {
	cfg        config.Config
	store      docstore.Store
	resolver   *facility.Resolver
	adjStore   *adjudicate.Store
	runner     *sweep.Runner
	thresholds truth.Thresholds
	log        *zap.SugaredLogger
	router     *mux.Router
	httpServer *http.Server
}

// NewServer builds the server and its routes.
func NewServer(cfg config.Config, store docstore.Store, runner *sweep.Runner, log *zap.SugaredLogger) *Server {
	s := &Server{
		cfg:        cfg,
		store:      store,
		resolver:   facility.NewResolver(store, log),
		adjStore:   adjudicate.NewStore(store),
		runner:     runner,
		thresholds: truth.DefaultThresholds(),
		log:        log,
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	api.HandleFunc("/truth/addresses", s.handleTruthAddresses).Methods("GET")
	api.HandleFunc("/truth/cities", s.handleTruthCities).Methods("GET")
	api.HandleFunc("/truth/cities/tab/{name}", s.handleTruthTab).Methods("GET")
	api.HandleFunc("/truth/build", s.handleTruthBuild).Methods("POST")

	api.HandleFunc("/facilities", s.handleFacilities).Methods("GET")
	api.HandleFunc("/facilities/preview", s.handleFacilityPreview).Methods("POST")
	api.HandleFunc("/facilities/commit", s.handleFacilityCommit).Methods("POST")

	api.HandleFunc("/sweep", s.handleSweep).Methods("GET")
	api.HandleFunc("/sweep/run", s.handleSweepRun).Methods("POST")

	api.HandleFunc("/adjudications", s.handleAdjudications).Methods("GET")
	api.HandleFunc("/adjudications", s.handleAdjudicationUpsert).Methods("PUT")
	api.HandleFunc("/adjudications/bulk", s.handleAdjudicationBulk).Methods("POST")

	api.HandleFunc("/effective", s.handleEffective).Methods("GET")
	api.HandleFunc("/effective/build", s.handleEffectiveBuild).Methods("POST")
}

// Start runs until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		s.log.Infow("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
