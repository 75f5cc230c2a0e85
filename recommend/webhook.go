package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"showroom"
)

// Reasoner asks an external reasoning service for candidates matching a query.
type Reasoner interface {
	Reason(ctx context.Context, query string) (Payload, error)
}

// WebhookReasoner posts the query to an automation webhook that owns its own view of
// the inventory and replies with ranked candidates.
type WebhookReasoner struct {
	endpoint   string
	httpClient showroom.HTTPClient
}

type WebhookOpts struct {
	URL        string
	HTTPClient showroom.HTTPClient
}

func NewWebhookReasoner(opts WebhookOpts) (*WebhookReasoner, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &WebhookReasoner{
		endpoint:   opts.URL,
		httpClient: opts.HTTPClient,
	}, nil
}

type webhookRequest struct {
	Query string `json:"query"`
}

func (w *WebhookReasoner) Reason(ctx context.Context, query string) (Payload, error) {
	slog.Info("REASONER: Calling webhook", "query_len", len(query))

	reqBytes, err := json.Marshal(webhookRequest{Query: query})
	if err != nil {
		return Payload{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return Payload{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return Payload{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Payload{}, fmt.Errorf("REASONER: %s: %s", resp.Status, string(body))
	}

	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Payload{}, fmt.Errorf("failed to decode webhook response: %w", err)
	}

	slog.Info("REASONER: Webhook responded", "success", p.Success, "recommendations", len(p.Recommendations))
	return p, nil
}
