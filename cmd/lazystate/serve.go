package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/lazystate/internal/api"
	"github.com/vango-dev/lazystate/internal/config"
)

func serveCmd(g *globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scenario replays over HTTP",
		Long: `Start an HTTP server that replays posted scenarios.

Routes:
  POST /replay     replay the YAML scenario in the request body
  GET  /runs/{id}  fetch a recent report by run id
  GET  /metrics    Prometheus metrics of every decision
  GET  /healthz    liveness probe

Examples:
  lazystate serve
  lazystate serve --addr=:7070
  curl --data-binary @conditional.yaml localhost:7070/replay`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), g.cfg, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from lazystate.json)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, addr string) error {
	if addr != "" {
		cfg.Serve.Addr = addr
	}

	srv := api.NewServer(api.Options{
		Addr:         cfg.Serve.Addr,
		Namespace:    cfg.Metrics.Namespace,
		Subsystem:    cfg.Metrics.Subsystem,
		MaxBodyBytes: cfg.Serve.MaxBodyBytes,
		Logger:       slog.Default(),
	})

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	success("Listening on http://%s", cfg.Serve.Addr)
	info("POST /replay   GET /runs/{id}   GET /metrics   GET /healthz")
	fmt.Println()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		errorMsg("Server stopped: %v", err)
		return err
	case <-ctx.Done():
		fmt.Println("\n\n  Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
