package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bidhouse/bidhouse/internal/dependency"
	"github.com/bidhouse/bidhouse/pkg/config"
	"github.com/bidhouse/bidhouse/pkg/logger"
	"github.com/bidhouse/bidhouse/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/joho/godotenv/autoload"
)

type Server struct {
	HTTPServer    *http.Server
	Deps          *dependency.Dependencies
	Logger        *logger.Logger
	sweepInterval time.Duration
}

func New() (*Server, error) {
	mux := chi.NewMux()
	log := logger.NewLogger()
	host := utils.GetEnv("SERVER_HOST", "0.0.0.0")
	port := utils.GetEnv("SERVER_PORT", "8080")
	sweepInterval := utils.GetDurationEnv("SWEEP_INTERVAL", config.DefaultSweepInterval)

	serverAddr := fmt.Sprintf("%s:%s", host, port)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	deps, err := dependency.NewDependencies(ctx, log)
	if err != nil {
		return nil, err
	}

	serv := &Server{
		Logger: log,
		HTTPServer: &http.Server{
			Addr:         serverAddr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Deps:          deps,
		sweepInterval: sweepInterval,
	}

	mux.Use(middleware.Logger)
	mux.Use(middleware.Recoverer)

	serv.Routes(mux)
	return serv, nil
}

func (s *Server) Run() error {
	s.Logger.Infof("[SERVER] running at -> " + s.HTTPServer.Addr)
	// Create context that listens for the interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run Server in the background
	go func() {
		if err := s.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Fatal("[SERVER] failed to serve -> " + err.Error())
		}
	}()

	// Background sweep replaces client-driven status polling: every tick
	// advances due listings, and the pass is idempotent so overlapping
	// runs with lazy sweeps are harmless.
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		s.runSweeper(ctx)
	}()

	// Listen for the interrupt signal
	<-ctx.Done()

	// create shutdown context with 30 - sec timeout
	shutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Trigger graceful shutdown
	if err := s.HTTPServer.Shutdown(shutCtx); err != nil {
		s.Logger.Error("[SERVER] shutdown failed -> " + err.Error())
		return err
	}

	// wait for any in-flight sweep pass before tearing down its backends
	<-sweepDone
	s.Deps.Close()
	return nil
}

func (s *Server) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, s.sweepInterval)
			advanced, err := s.Deps.Services.LifecycleService.Sweep(sweepCtx, s.Deps.Clock.Now())
			cancel()
			if err != nil {
				s.Logger.Errorw("[SWEEP] pass failed", "error", err)
				continue
			}
			if advanced > 0 {
				s.Logger.Infow("[SWEEP] advanced listings", "count", advanced)
			}
		}
	}
}
