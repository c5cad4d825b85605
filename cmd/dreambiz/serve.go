package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blyssafrica-alt/dreambiz-sub006/api"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. Requests authenticate with an HS256 bearer token signed
with auth.jwt_secret; /healthz and /metrics are public.`,
		RunE: serveCommand,
	}
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required to serve (DREAMBIZ_AUTH_JWT_SECRET)")
	}

	opts := []api.Option{
		api.WithLogger(a.logger),
		api.WithBasePath(a.cfg.HTTP.BasePath),
		api.WithNamespace(a.cfg.Metrics.Namespace),
		api.WithPrometheus(a.registry, a.registry),
	}
	if a.cfg.HTTP.DisableRoutes {
		opts = append(opts, api.WithoutRoutes())
	}
	e := api.New(a.engine, a.tokens(), opts...).Echo()
	e.Server.ReadTimeout = a.cfg.HTTP.ReadTimeout
	e.Server.WriteTimeout = a.cfg.HTTP.WriteTimeout

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.HTTP.Addr, "base_path", a.cfg.HTTP.BasePath)
		errCh <- e.Start(a.cfg.HTTP.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
