package recommend

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedOrchestrator is an Orchestrator that also records request, failure and
// latency metrics.
type InstrumentedOrchestrator struct {
	*Orchestrator
	tracer trace.Tracer

	requests metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
}

func NewInstrumentedOrchestrator(reasoner Reasoner, timeout time.Duration, tracer trace.Tracer, meter metric.Meter) *InstrumentedOrchestrator {
	requests, _ := meter.Int64Counter("recommend_requests_total",
		metric.WithDescription("Total number of recommendation queries dispatched"))
	failures, _ := meter.Int64Counter("recommend_failures_total",
		metric.WithDescription("Total number of reasoning exchanges that failed, by reason"))
	latency, _ := meter.Float64Histogram("recommend_latency_seconds",
		metric.WithDescription("Time spent waiting on the reasoning service in seconds"))

	return &InstrumentedOrchestrator{
		Orchestrator: NewOrchestrator(reasoner, timeout),
		tracer:       tracer,
		requests:     requests,
		failures:     failures,
		latency:      latency,
	}
}

func (o *InstrumentedOrchestrator) Recommend(ctx context.Context, query string) (Result, error) {
	ctx, span := o.tracer.Start(ctx, "InstrumentedOrchestrator.Recommend")
	defer span.End()

	if strings.TrimSpace(query) == "" {
		span.SetStatus(codes.Error, "empty query")
		return Result{}, ErrEmptyQuery
	}

	o.requests.Add(ctx, 1)

	start := time.Now()
	res := o.dispatch(ctx, query)
	elapsed := time.Since(start)
	o.latency.Record(ctx, elapsed.Seconds())

	span.SetAttributes(
		attribute.String("recommend.outcome", res.Outcome()),
		attribute.Int("recommend.candidates", len(res.Candidates)),
		attribute.Float64("recommend.latency_seconds", elapsed.Seconds()),
	)

	if !res.OK() {
		o.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(res.Failure))))
		span.SetStatus(codes.Error, string(res.Failure))
		span.AddEvent("reasoning failed", trace.WithAttributes(attribute.String("detail", res.Detail)))
	}

	slog.Info("RECOMMEND: Exchange complete",
		"outcome", res.Outcome(),
		"candidates", len(res.Candidates),
		"latency_ms", elapsed.Milliseconds(),
	)
	return res, nil
}
