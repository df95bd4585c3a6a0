package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/aretw0/canon/pkg/api"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the world over HTTP",
	Long: `Expose the world API under /api/world, plus /healthz and Prometheus
metrics on /metrics. Stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := openWorld(cmd)
		defer svc.Close()

		addr := listenAddr
		if !cmd.Flags().Changed("listen") && fileConfig != nil && fileConfig.Listen != "" {
			addr = fileConfig.Listen
		}
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		server := &http.Server{
			Addr:              addr,
			Handler:           api.NewRouter(svc, slog.Default()),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		serverErr := make(chan error, 1)
		go func() {
			slog.Info("listening", "addr", addr, "base_path", api.BasePath)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()

		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case err := <-serverErr:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", ":8080", "Address to listen on")
}
