package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/loyalty-engine/api"
	"github.com/warp/loyalty-engine/store/sqlite"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

Opens (and migrates) the tier criteria database, seeds the default rows
for tiers that have none, and serves until SIGINT/SIGTERM. In-flight
requests get 30 seconds to finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.Int("port", 8080, "HTTP server port")
	flags.String("db", "loyalty.db", `SQLite database path (":memory:" for in-memory)`)
	flags.Duration("refresh", time.Minute, "Live criteria reload interval")
	_ = a.v.BindPFlag("port", flags.Lookup("port"))
	_ = a.v.BindPFlag("db", flags.Lookup("db"))
	_ = a.v.BindPFlag("criteria.refresh_interval", flags.Lookup("refresh"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	s, logger := a.settings, a.logger

	db, err := sqlite.New(s.DBPath, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed tier criteria: %w", err)
	}

	handler := api.NewHandler(db, logger, api.NewMetrics())
	handler.MaxMonths = s.MaxMonths
	handler.SettleMonths = s.SettleMonths
	handler.Program.RefreshInterval = s.RefreshInterval
	handler.Program.Start()
	defer handler.Program.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Port),
		Handler:      api.NewRouter(handler, s.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", s.Port),
			zap.String("db", s.DBPath),
			zap.String("api", fmt.Sprintf("http://localhost:%d/api", s.Port)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
