package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/idlesnap/internal/collector"
	"github.com/fakeyudi/idlesnap/internal/server"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve exports over HTTP and push new snapshots to websocket clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		hub := server.NewHub(logger)
		exp, closeStore, err := newExporter(hub)
		if err != nil {
			return err
		}
		defer closeStore()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           server.New(exp, hub, logger).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		if serveWatch {
			go func() {
				path := GetConfig().StatePath
				err := collector.Watch(ctx, path, logger, func() {
					if _, err := exp.Run(ctx, false); err != nil {
						logger.Warn("export cycle failed", "err", err)
					}
				})
				if err != nil {
					logger.Error("watching state dump", "path", path, "err", err)
				}
			}()
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		logger.Info("serving", "addr", serveAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8737", "listen address")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "run a full export cycle on every state dump write")
	rootCmd.AddCommand(serveCmd)
}
