package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"task-calendar/app/config"
	"task-calendar/app/controllers"
	"task-calendar/app/routes"
)

func serveCmd(load configLoader) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API on server.addr.

Examples:
  taskcal serve
  taskcal serve --addr 127.0.0.1:9090
  TASKCAL_STORE_BACKEND=sqlite taskcal serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return serve(ctx, cfg, ln)
}

// serve runs the API on ln until ctx is done. Open streams end when shutdown
// starts, so Shutdown only waits on ordinary requests.
func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	defer ln.Close()

	backend, closeBackend, err := config.OpenBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeBackend(context.Background())

	verifier, err := config.NewVerifier(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to set up auth: %w", err)
	}

	taskController := controllers.NewTaskController(backend)

	router := mux.NewRouter()
	routes.RegisterRoutes(router, taskController, verifier)

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	server := &http.Server{
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelBase)

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(ln)
	}()
	log.Printf("Server is running on http://%s", ln.Addr())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
