package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"showroom"
	"showroom/app"
	"showroom/inventory"
	"showroom/recommend"
)

type Params struct {
	Query string `json:"query"`
}

type Results struct {
	Success         bool                 `json:"success"`
	Recommendations []recommend.Enriched `json:"recommendations,omitempty"`
	Error           string               `json:"error,omitempty"`
}

func main() {
	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("SETUP: Failed to decode config", "error", err)
		return
	}
	// Default to the S3 export when no sheet URL is configured.
	if cfg.Catalog.Source == "http" && cfg.Catalog.URL == "" {
		cfg.Catalog.Source = "s3"
	}

	httpClient := &http.Client{Timeout: cfg.Recommend.Timeout + 5*time.Second}

	catalog, _, err := app.NewCatalog(ctx, cfg.Catalog, httpClient)
	if err != nil {
		slog.Error("SETUP: Failed to configure catalog", "error", err)
		return
	}

	tracerProvider, meterProvider, otelShutdown, err := showroom.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}

	svc, err := app.NewService(ctx, cfg, app.ServiceOpts{
		Catalog:    catalog,
		Logger:     showroom.NewStdoutExchangeLogger(),
		HTTPClient: httpClient,
		Tracer:     tracerProvider.Tracer(showroom.TracerNameRecommend),
		Meter:      meterProvider.Meter(showroom.TracerNameRecommend),
	})
	if err != nil {
		slog.Error("SETUP: Failed to configure recommendation service", "error", err)
		return
	}

	fn := func(ctx context.Context, params Params) (Results, error) {
		defer func() {
			// Lambda may freeze the process after returning; push telemetry now.
			if err := tracerProvider.ForceFlush(ctx); err != nil {
				slog.Error("RESULT: Failed to flush traces", "error", err)
			}
			if err := meterProvider.ForceFlush(ctx); err != nil {
				slog.Error("RESULT: Failed to flush metrics", "error", err)
			}
		}()

		recs, err := svc.Recommend(ctx, params.Query)
		switch {
		case errors.Is(err, recommend.ErrEmptyQuery):
			return Results{Success: false, Error: "Query is required"}, nil
		case errors.Is(err, inventory.ErrSourceUnavailable):
			slog.Error("RESULT: Inventory unavailable", "error", err)
			return Results{Success: false, Error: "inventory is temporarily unavailable"}, nil
		case err != nil:
			slog.Error("RESULT: Error handling query", "error", err)
			return Results{}, err
		}

		return Results{Success: true, Recommendations: recs}, nil
	}

	lambda.StartWithOptions(fn, lambda.WithEnableSIGTERM(func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}))
}
