package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aiornot-quiz-service/internal/config"
	"aiornot-quiz-service/internal/logger"
	transport "aiornot-quiz-service/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	rt, err := buildServices(ctx, cfg, "http://localhost:"+finalPort, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	auth := transport.NewAuthenticator(cfg.Auth.Secret, rt.revoked)
	if cfg.Auth.Secret == "" {
		log.Warn("auth secret is empty; every token will be rejected")
	}
	wsHandler := transport.NewWSHandler(rt.games, auth, log)

	mux := http.NewServeMux()
	transport.NewHandler(rt.games, rt.progress, auth, log).Register(mux)
	mux.HandleFunc("GET /ws/prepare", wsHandler.ServePrepare)
	if rt.static != nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", rt.static.Handler()))
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		log.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
