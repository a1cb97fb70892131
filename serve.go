package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FACorreiaa/trip-planner/internal/server"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := server.InitObservability(cfg.Observability, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			lg.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	srv, err := server.New(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer srv.Close()

	srv.SetRouter(server.SetupRouter(srv.GetDBPool(), cfg, lg))

	// pprof stays on its own port, not exposed publicly
	pprofSrv := server.StartPprofServer(cfg.Observability.PprofAddr, lg)
	defer pprofSrv.Close()

	if err := server.Serve(ctx, srv.HTTPServer(), lg); err != nil {
		return err
	}
	lg.Info("Graceful shutdown complete")
	return nil
}
