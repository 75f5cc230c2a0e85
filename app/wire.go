// Package app assembles the catalog and recommendation pipeline from environment
// configuration. It is shared by the CLI and the Lambda entry point.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"showroom"
	"showroom/inventory"
	"showroom/inventory/source"
	"showroom/recommend"
	"showroom/slack"
)

type Config struct {
	Catalog   showroom.CatalogConfig
	Recommend showroom.RecommendConfig
	Model     showroom.ModelConfig
	Server    showroom.ServerConfig
}

func LoadConfig() (Config, error) {
	var cfg Config
	for _, target := range []any{&cfg.Catalog, &cfg.Recommend, &cfg.Model, &cfg.Server} {
		if err := envdecode.Decode(target); err != nil {
			return Config{}, fmt.Errorf("failed to decode config: %w", err)
		}
	}
	return cfg, nil
}

type cleanups []func() error

func (c cleanups) run() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i]())
	}
	return errors.Join(errs...)
}

// NewSource builds the export source named by cfg.Source, wrapped in the xlsx
// converter when cfg.Format is xlsx.
func NewSource(ctx context.Context, cfg showroom.CatalogConfig, httpClient showroom.HTTPClient) (source.Source, func() error, error) {
	var (
		src     source.Source
		cleanup cleanups
	)

	format := strings.ToLower(cfg.Format)
	switch format {
	case "csv", "", "xlsx":
	default:
		return nil, nil, fmt.Errorf("unknown catalog format %q", cfg.Format)
	}

	switch strings.ToLower(cfg.Source) {
	case "http", "":
		src = source.NewHTTPSource(cfg.URL, httpClient)

	case "file":
		src = source.NewFileSource(cfg.Path)

	case "s3":
		if cfg.S3Bucket == "" || cfg.S3Key == "" {
			return nil, nil, fmt.Errorf("missing S3 config: CATALOG_S3_BUCKET and CATALOG_S3_KEY must be set")
		}
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		src = source.NewS3Source(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Key)

	case "gcs":
		if cfg.GCSBucket == "" || cfg.GCSObject == "" {
			return nil, nil, fmt.Errorf("missing GCS config: CATALOG_GCS_BUCKET and CATALOG_GCS_OBJECT must be set")
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create GCS client: %w", err)
		}
		cleanup = append(cleanup, client.Close)
		src = source.NewGCSSource(client, cfg.GCSBucket, cfg.GCSObject)

	default:
		return nil, nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}

	if format == "xlsx" {
		src = source.NewXLSXSource(src, cfg.XLSXSheet)
	}

	slog.Info("SETUP: Catalog source configured", "source", cfg.Source, "format", cfg.Format)
	return src, cleanup.run, nil
}

// NewCatalog builds the loader and, when cfg.CacheTTL is set, the cache in front of it.
// The returned cleanup releases any clients it opened.
func NewCatalog(ctx context.Context, cfg showroom.CatalogConfig, httpClient showroom.HTTPClient) (inventory.CatalogLoader, func() error, error) {
	src, closeSource, err := NewSource(ctx, cfg, httpClient)
	if err != nil {
		return nil, nil, err
	}
	cleanup := cleanups{closeSource}

	var loader inventory.CatalogLoader = inventory.NewLoader(inventory.LoaderOpts{
		Source:       src,
		ActiveStatus: cfg.ActiveStatus,
	})
	if cfg.CacheTTL <= 0 {
		return loader, cleanup.run, nil
	}

	var store inventory.Store
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		cleanup = append(cleanup, rdb.Close)
		store = inventory.NewRedisStore(rdb)
		slog.Info("SETUP: Catalog cache backed by Redis", "address", cfg.RedisAddress, "ttl", cfg.CacheTTL)
	} else {
		store = inventory.NewMemoryStore()
		slog.Info("SETUP: Catalog cache in memory", "ttl", cfg.CacheTTL)
	}

	return inventory.NewCachedLoader(loader, store, cfg.CacheTTL), cleanup.run, nil
}

// NewReasoner builds the reasoning backend named by cfg.Recommend.Backend.
func NewReasoner(ctx context.Context, cfg Config, catalog inventory.CatalogLoader, httpClient showroom.HTTPClient) (recommend.Reasoner, error) {
	switch strings.ToLower(cfg.Recommend.Backend) {
	case "webhook", "":
		return recommend.NewWebhookReasoner(recommend.WebhookOpts{
			URL:        cfg.Recommend.WebhookURL,
			HTTPClient: httpClient,
		})

	case "ollama":
		return recommend.NewOllamaReasoner(recommend.OllamaOpts{
			BaseEndpoint: cfg.Recommend.BaseOllamaEndpoint,
			ModelID:      cfg.Model.ModelID,
			Temperature:  cfg.Model.Temperature,
			TopP:         cfg.Model.TopP,
			Catalog:      catalog,
			HTTPClient:   httpClient,
		})

	case "bedrock":
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return recommend.NewBedrockReasoner(bedrockruntime.NewFromConfig(awsCfg), catalog, recommend.LLMOptions{
			ModelID:     cfg.Model.ModelID,
			MaxTokens:   cfg.Model.MaxTokens,
			Temperature: cfg.Model.Temperature,
			TopP:        cfg.Model.TopP,
		}), nil

	default:
		return nil, fmt.Errorf("unknown recommend backend %q", cfg.Recommend.Backend)
	}
}

type ServiceOpts struct {
	Catalog    inventory.CatalogLoader
	Logger     showroom.ExchangeLogger
	HTTPClient showroom.HTTPClient
	// Tracer and Meter are optional; with both set the orchestrator records metrics.
	Tracer trace.Tracer
	Meter  metric.Meter
}

// NewService wires reasoner, orchestrator, reconciler and alerts into a pipeline.
func NewService(ctx context.Context, cfg Config, opts ServiceOpts) (*recommend.Service, error) {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	reasoner, err := NewReasoner(ctx, cfg, opts.Catalog, opts.HTTPClient)
	if err != nil {
		return nil, err
	}

	var orchestrator interface {
		Recommend(ctx context.Context, query string) (recommend.Result, error)
	}
	if opts.Tracer != nil && opts.Meter != nil {
		orchestrator = recommend.NewInstrumentedOrchestrator(reasoner, cfg.Recommend.Timeout, opts.Tracer, opts.Meter)
	} else {
		orchestrator = recommend.NewOrchestrator(reasoner, cfg.Recommend.Timeout)
	}

	var notifier recommend.Notifier
	if cfg.Recommend.SlackWebhookURL != "" {
		notifier = slack.NewNotifier(slack.NewClient(cfg.Recommend.SlackWebhookURL, opts.HTTPClient), cfg.Recommend.SlackChannel)
	}

	return recommend.NewService(recommend.ServiceOpts{
		Catalog:      opts.Catalog,
		Orchestrator: orchestrator,
		Reconciler: recommend.NewReconciler(recommend.ReconcilerOpts{
			FallbackSize: cfg.Recommend.FallbackSize,
			ReasonFormat: cfg.Recommend.FallbackFormat,
		}),
		Logger:   opts.Logger,
		Notifier: notifier,
	}), nil
}
