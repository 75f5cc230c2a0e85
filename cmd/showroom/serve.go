package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"showroom"
	"showroom/app"
	"showroom/server"
)

func newServeCmd() *cobra.Command {
	var (
		port          string
		withTelemetry bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the showroom HTTP API",
		Long: `Starts the HTTP API:

  GET  /api/cars[?refresh=true]   active listing
  GET  /api/cars/:id              one vehicle
  POST /api/ai-recommend          {"query": "..."} recommendations
  GET  /healthz                   liveness`,
		Example: `  # Serve the sheet export on the default port
  CATALOG_URL=https://docs.google.com/... RECOMMEND_WEBHOOK_URL=https://n8n/... showroom serve

  # Export OTLP traces and metrics
  showroom serve --otel`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			opts := app.ServiceOpts{
				Logger:     showroom.NewStdoutExchangeLogger(),
				HTTPClient: &http.Client{},
			}

			if withTelemetry {
				tracerProvider, meterProvider, otelShutdown, err := showroom.InitOtel(ctx)
				if err != nil {
					slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
					return err
				}
				defer func() {
					if err := otelShutdown(ctx); err != nil {
						slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
					}
				}()
				opts.Tracer = tracerProvider.Tracer(showroom.TracerNameRecommend)
				opts.Meter = meterProvider.Meter(showroom.TracerNameRecommend)
			}

			catalog, cleanup, err := app.NewCatalog(ctx, cfg.Catalog, opts.HTTPClient)
			if err != nil {
				return err
			}
			defer func() {
				if err := cleanup(); err != nil {
					slog.Error("SETUP: Failed to release catalog clients", "error", err)
				}
			}()
			opts.Catalog = catalog

			svc, err := app.NewService(ctx, cfg, opts)
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			srv := server.New(server.Opts{
				Catalog:     catalog,
				Recommender: svc,
				Config:      cfg.Server,
			})

			err = srv.ListenAndServe(ctx, ":"+cfg.Server.Port)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			slog.Info("SERVER: Stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to listen on (overrides PORT)")
	cmd.Flags().BoolVar(&withTelemetry, "otel", false, "Export traces and metrics over OTLP")

	return cmd
}
