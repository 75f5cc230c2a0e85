package recommend

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"showroom"
)

// ErrEmptyQuery is returned for blank queries before any outbound call is made.
var ErrEmptyQuery = errors.New("query is empty")

const DefaultTimeout = 30 * time.Second

// Orchestrator dispatches one query to the reasoning service and classifies the reply.
// It never consults the catalog and never retries.
type Orchestrator struct {
	reasoner Reasoner
	timeout  time.Duration
}

func NewOrchestrator(reasoner Reasoner, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{
		reasoner: reasoner,
		timeout:  timeout,
	}
}

// Recommend returns ErrEmptyQuery for a blank query. Every other outcome, including
// timeouts and service failures, is reported as a Result.
func (o *Orchestrator) Recommend(ctx context.Context, query string) (Result, error) {
	ctx, span := otel.Tracer(showroom.TracerNameRecommend).Start(ctx, "Orchestrator.Recommend")
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return Result{}, ErrEmptyQuery
	}

	res := o.dispatch(ctx, query)
	span.SetAttributes(
		attribute.String("recommend.outcome", res.Outcome()),
		attribute.Int("recommend.candidates", len(res.Candidates)),
	)
	return res, nil
}

type reasonReply struct {
	payload Payload
	err     error
}

func (o *Orchestrator) dispatch(ctx context.Context, query string) Result {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	slog.Info("RECOMMEND: Dispatching query", "query", query, "timeout", o.timeout)

	// Buffered so an abandoned call can still deliver its reply and exit.
	replies := make(chan reasonReply, 1)
	go func() {
		p, err := o.reasoner.Reason(ctx, query)
		replies <- reasonReply{payload: p, err: err}
	}()

	select {
	case <-ctx.Done():
		slog.Warn("RECOMMEND: Reasoning call abandoned", "error", ctx.Err())
		return Failed(FailureTimeout, ctx.Err().Error())

	case r := <-replies:
		return classify(r)
	}
}

func classify(r reasonReply) Result {
	if r.err != nil {
		if errors.Is(r.err, context.DeadlineExceeded) {
			return Failed(FailureTimeout, r.err.Error())
		}
		slog.Warn("RECOMMEND: Reasoning service failed", "error", r.err)
		return Failed(FailureServiceError, r.err.Error())
	}

	if !r.payload.Success {
		return Failed(FailureNoRecommendations, "service reported success=false")
	}
	if r.payload.Recommendations == nil {
		return Failed(FailureNoRecommendations, "reply has no recommendations")
	}

	slog.Info("RECOMMEND: Reasoning succeeded", "candidates", len(r.payload.Recommendations))
	return Succeeded(r.payload.Recommendations)
}
