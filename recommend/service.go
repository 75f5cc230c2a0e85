package recommend

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"showroom"
	"showroom/inventory"
)

type recommender interface {
	Recommend(ctx context.Context, query string) (Result, error)
}

// Notifier is told about exchanges that fell back because the reasoning service
// misbehaved.
type Notifier interface {
	NotifyDegraded(ctx context.Context, query string, reason, detail string) error
}

// Service runs the whole pipeline for one query: catalog snapshot and reasoning call in
// parallel, then reconciliation. Reasoners that prompt with the catalog share the
// query's snapshot instead of fetching their own.
type Service struct {
	catalog      inventory.CatalogLoader
	orchestrator recommender
	reconciler   *Reconciler
	logger       showroom.ExchangeLogger
	notifier     Notifier
}

type ServiceOpts struct {
	Catalog      inventory.CatalogLoader
	Orchestrator recommender
	Reconciler   *Reconciler
	Logger       showroom.ExchangeLogger
	Notifier     Notifier
}

func NewService(opts ServiceOpts) *Service {
	if opts.Reconciler == nil {
		opts.Reconciler = NewReconciler(ReconcilerOpts{})
	}
	if opts.Logger == nil {
		opts.Logger = showroom.NewNoOpExchangeLogger()
	}
	return &Service{
		catalog:      opts.Catalog,
		orchestrator: opts.Orchestrator,
		reconciler:   opts.Reconciler,
		logger:       opts.Logger,
		notifier:     opts.Notifier,
	}
}

type requestIDKey struct{}

// WithRequestID tags ctx so exchange logs can be correlated with access logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Recommend fails only with ErrEmptyQuery or inventory.ErrSourceUnavailable. Any
// reasoning failure is absorbed into the fallback list.
func (s *Service) Recommend(ctx context.Context, query string) ([]Enriched, error) {
	start := time.Now()
	exchange := showroom.ExchangeLog{
		RequestID: requestID(ctx),
		Timestamp: start,
		Query:     query,
	}

	if strings.TrimSpace(query) == "" {
		exchange.Error = ErrEmptyQuery.Error()
		s.logExchange(exchange)
		return nil, ErrEmptyQuery
	}

	var (
		catalog []inventory.Record
		res     Result
	)
	g, gctx := errgroup.WithContext(ctx)
	gctx, snapshot := withSnapshot(gctx, s.catalog)
	g.Go(func() error {
		var err error
		catalog, err = snapshot()
		return err
	})
	g.Go(func() error {
		var err error
		res, err = s.orchestrator.Recommend(gctx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		exchange.Error = err.Error()
		exchange.Duration = time.Since(start)
		s.logExchange(exchange)
		return nil, err
	}

	out := s.reconciler.Reconcile(query, res, catalog)

	exchange.Outcome = res.Outcome()
	exchange.FailureDetail = res.Detail
	exchange.Candidates = len(res.Candidates)
	exchange.CatalogSize = len(catalog)
	exchange.Fallback = s.reconciler.IsFallback(res, catalog)
	if !exchange.Fallback {
		exchange.Matched = len(out)
	}
	exchange.Duration = time.Since(start)
	s.logExchange(exchange)

	if res.Failure == FailureTimeout || res.Failure == FailureServiceError {
		s.notify(ctx, query, res)
	}

	slog.Info("RECOMMEND: Query answered",
		"outcome", exchange.Outcome,
		"returned", len(out),
		"fallback", exchange.Fallback,
		"duration_ms", exchange.Duration.Milliseconds(),
	)
	return out, nil
}

func (s *Service) notify(ctx context.Context, query string, res Result) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyDegraded(ctx, query, string(res.Failure), res.Detail); err != nil {
		slog.Warn("RECOMMEND: Failed to send degraded notification", "error", err)
	}
}

func (s *Service) logExchange(exchange showroom.ExchangeLog) {
	if err := s.logger.LogExchange(exchange); err != nil {
		slog.Error("Failed to log recommendation exchange", "error", err, "query", exchange.Query)
	}
}
