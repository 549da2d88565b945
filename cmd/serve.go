package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wardenlabs/realm-tracker/internal/analytics"
	"github.com/wardenlabs/realm-tracker/internal/api"
	"github.com/wardenlabs/realm-tracker/internal/auth"
	"github.com/wardenlabs/realm-tracker/internal/export"
	"github.com/wardenlabs/realm-tracker/internal/ingest"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tracker API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.ValidateServe(); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		tunables, err := loadTunables()
		if err != nil {
			return err
		}

		analyticsSvc := analytics.NewService(st.Pool(), cfg.Analytics, tunables)
		sweeper := ingest.NewSweeper(st.Pool(), cfg.Realm)
		server := api.NewServer(
			st,
			auth.NewService(cfg.Auth),
			analyticsSvc,
			ingest.NewIngestor(st, cfg.Ingest, sweeper),
			export.NewBuilder(analyticsSvc),
			cfg,
		)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: server.Router(),
		}

		// Graceful shutdown
		go drainOnDone(ctx, srv, 10*time.Second)

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// drainOnDone shuts the server down once ctx is cancelled. The signal
// context is already dead at that point, so draining runs on a fresh
// timeout context to let in-flight requests finish.
func drainOnDone(ctx context.Context, srv *http.Server, timeout time.Duration) {
	<-ctx.Done()
	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("server shutdown", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
