package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"showroom"
	"showroom/inventory"
)

type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
}

// OllamaReasoner asks a local Ollama model to pick vehicles from the catalog. The
// reply is constrained to the payload schema through Ollama's structured outputs.
type OllamaReasoner struct {
	endpoint   string
	model      string
	catalog    inventory.CatalogLoader
	httpClient showroom.HTTPClient
	options    options
}

type OllamaOpts struct {
	BaseEndpoint string
	ModelID      string
	Temperature  float32
	TopP         float32
	Catalog      inventory.CatalogLoader
	HTTPClient   showroom.HTTPClient
}

const DefaultOllamaModelID = "llama3.2"

func NewOllamaReasoner(opts OllamaOpts) (*OllamaReasoner, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog loader is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.ModelID == "" {
		opts.ModelID = DefaultOllamaModelID
	}

	o := options{
		Temperature:   0.2,
		TopP:          0.9,
		RepeatPenalty: 1.05,
		NumCtx:        16384,
	}
	if opts.Temperature > 0 {
		o.Temperature = float64(opts.Temperature)
	}
	if opts.TopP > 0 {
		o.TopP = float64(opts.TopP)
	}

	return &OllamaReasoner{
		endpoint:   strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		model:      opts.ModelID,
		catalog:    opts.Catalog,
		httpClient: opts.HTTPClient,
		options:    o,
	}, nil
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string             `json:"model"`
	Messages []ollamaMessage    `json:"messages"`
	Format   *jsonschema.Schema `json:"format,omitempty"`
	Stream   bool               `json:"stream"`
	Options  options            `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
}

func (o *OllamaReasoner) Reason(ctx context.Context, query string) (Payload, error) {
	catalog, err := catalogFor(ctx, o.catalog)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to load catalog for prompt: %w", err)
	}

	slog.Info("LLM_CLIENT: Invoked", "model", o.model, "catalog_size", len(catalog))

	reqBytes, err := json.Marshal(ollamaRequest{
		Model: o.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: systemPrompt(catalog)},
			{Role: "user", Content: query},
		},
		Format:  payloadSchema(),
		Stream:  false,
		Options: o.options,
	})
	if err != nil {
		return Payload{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return Payload{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return Payload{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Payload{}, fmt.Errorf("LLM_CLIENT: %s: %s", resp.Status, string(body))
	}

	var wr ollamaResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return Payload{}, fmt.Errorf("failed to decode chat response: %w", err)
	}

	var p Payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(wr.Message.Content)), &p); err != nil {
		slog.Warn("LLM_CLIENT: Model reply is not a payload", "err", err, "content", wr.Message.Content)
		return Payload{}, fmt.Errorf("model reply is not valid JSON: %w", err)
	}

	slog.Info("LLM_CLIENT: Model responded", "success", p.Success, "recommendations", len(p.Recommendations))
	return p, nil
}
