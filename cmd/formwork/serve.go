package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/formwork/internal/cli"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the engine in server mode, exposing the JSON-RPC API, resource browsing,
flow event streams, tool sockets and Prometheus metrics over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()
		cmd.SetContext(sc)

		app, cfg, logger, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			go func() {
				if err := app.WatchDefinitions(sc); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Definition watch stopped", "err", err)
				}
			}()
		}

		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           app.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting formwork server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return err
		case <-sc.Done():
			logger.Info("Shutting down", "signal", sc.Signal())

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				return srv.Close()
			}
			logger.Info("Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides config)")
	serveCmd.Flags().Bool("watch", false, "Reload definitions when their documents change")
}
