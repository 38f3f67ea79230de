package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roosterd/roosterd/internal/handler"
	"github.com/roosterd/roosterd/internal/metrics"
	"github.com/roosterd/roosterd/internal/middleware"
	"github.com/roosterd/roosterd/pkg/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the orchestration HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBootstrap()
		if err != nil {
			return err
		}
		defer b.close()
		return serve(b)
	},
}

func serve(b *bootstrap) error {
	runHandler := handler.NewRunHandler(b.svc, b.loc)
	teamHandler := handler.NewTeamHandler(b.svc)
	statsHandler := handler.NewStatsHandler(b.svc, b.loc)
	swapHandler := handler.NewSwapHandler(b.svc)
	healthHandler := handler.NewHealthHandler(b.db)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /version", healthHandler.VersionInfo)

	mux.HandleFunc("POST /api/v1/orchestrator/runs", runHandler.Create)
	mux.HandleFunc("GET /api/v1/orchestrator/runs/{id}", runHandler.Get)
	mux.HandleFunc("GET /api/v1/teams/{id}/runs", runHandler.ListByTeam)
	mux.HandleFunc("PUT /api/v1/teams/{id}/auto-scheduling", teamHandler.SetAutoScheduling)
	mux.HandleFunc("PUT /api/v1/teams/{id}/products/{product}", teamHandler.SetProductEnabled)
	mux.HandleFunc("GET /api/v1/teams/{id}/coverage", statsHandler.Coverage)
	mux.HandleFunc("GET /api/v1/teams/{id}/availability", statsHandler.Availability)
	mux.HandleFunc("GET /api/v1/shifts/{id}/swap-candidates", swapHandler.Candidates)
	mux.HandleFunc("GET /api/v1/constraints", handler.Constraints)

	if b.cfg.Metrics.Enabled {
		mux.Handle("GET "+b.cfg.Metrics.Path, metrics.Handler())
	}

	chained := []func(http.Handler) http.Handler{
		middleware.Recovery,
		middleware.RequestID,
		middleware.SecurityHeaders,
	}
	if b.cfg.API.RateLimit > 0 {
		chained = append(chained, middleware.RateLimit(middleware.NewRateLimiter(b.cfg.API.RateLimit)))
	}
	chained = append(chained,
		middleware.Logging,
		middleware.Timeout(b.cfg.API.Timeout),
	)
	chain := middleware.Chain(mux, chained...)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", b.cfg.App.Port),
		Handler:      chain,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", b.cfg.App.Port).
			Str("env", b.cfg.App.Env).
			Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Msg("server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
