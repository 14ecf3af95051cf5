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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"study-buddy/internal/api"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and web frontend",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if port <= 0 {
				port = a.cfg.Port
			}
			if a.cfg.LogMode == "prod" || a.cfg.LogMode == "production" {
				gin.SetMode(gin.ReleaseMode)
			}

			server := api.NewServer(a.analysis, api.NewJobManager(a.cfg.JobRetention), api.Config{
				StaticDir:      a.cfg.StaticDir,
				MaxUploadBytes: a.cfg.MaxUploadBytes,
			}, a.log)

			// WriteTimeout covers generation plus enrichment of a large outline.
			srv := &http.Server{
				Addr:         fmt.Sprintf(":%d", port),
				Handler:      server.Handler(),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 2 * time.Minute,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err, ok := <-errCh:
				if ok {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			case sig := <-quit:
				a.log.Info("shutting down", "signal", sig.String(), "timeout", shutdownTimeout)
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			a.log.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from PORT, 8080)")
	return cmd
}
