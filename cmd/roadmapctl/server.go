package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/api"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the deploy-status HTTP server",
	Long: `Serves the deploy-status API: health and readiness endpoints plus
POST /api/v1/bootstrap for triggering an asynchronous bootstrap run. Intended
for environments where the platform drives deploys over HTTP instead of
invoking the one-shot bootstrap command.`,
	RunE: runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	defer app.Shutdown(context.Background())

	store, err := app.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	router := api.NewRouter(app.NewRunner(store))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("deploy-status server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
