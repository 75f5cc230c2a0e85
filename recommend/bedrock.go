package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"showroom/inventory"
)

const (
	// defaultBedrockModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultBedrockModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	defaultMaxTokens   = 1024
	defaultTemperature = 0.2
	defaultTopP        = 0.9
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type LLMOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// BedrockReasoner asks a Bedrock model for candidates. The model is forced to answer
// through the submit_recommendations tool, so the reply always arrives as tool input
// shaped by the payload schema.
type BedrockReasoner struct {
	brc     bedrockRuntimeClient
	catalog inventory.CatalogLoader
	opts    LLMOptions
}

func NewBedrockReasoner(brc bedrockRuntimeClient, catalog inventory.CatalogLoader, opts LLMOptions) *BedrockReasoner {
	if opts.ModelID == "" {
		opts.ModelID = defaultBedrockModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &BedrockReasoner{
		brc:     brc,
		catalog: catalog,
		opts:    opts,
	}
}

func (b *BedrockReasoner) Reason(ctx context.Context, query string) (Payload, error) {
	catalog, err := catalogFor(ctx, b.catalog)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to load catalog for prompt: %w", err)
	}

	spec, err := submitToolSpec()
	if err != nil {
		return Payload{}, err
	}

	in := &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.opts.ModelID),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: systemPrompt(catalog)},
		},
		Messages: []types.Message{
			{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: query}},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(b.opts.MaxTokens),
			Temperature: aws.Float32(b.opts.Temperature),
			TopP:        aws.Float32(b.opts.TopP),
		},
		ToolConfig: &types.ToolConfiguration{
			Tools: []types.Tool{&types.ToolMemberToolSpec{Value: spec}},
			ToolChoice: &types.ToolChoiceMemberTool{
				Value: types.SpecificToolChoice{Name: aws.String(submitToolName)},
			},
		},
	}

	slog.Info("LLM_CLIENT: Invoked", "model", b.opts.ModelID, "catalog_size", len(catalog))

	out, err := b.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("LLM_CLIENT: Bedrock invoke failed", "error", err)
		return Payload{}, err
	}

	attrs := []any{"stop_reason", out.StopReason}
	if out.Usage != nil {
		attrs = append(attrs,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens),
		)
	}
	if out.Metrics != nil {
		attrs = append(attrs, "latency_ms", aws.ToInt64(out.Metrics.LatencyMs))
	}
	slog.Info("LLM_CLIENT: Bedrock invoke succeeded", attrs...)

	switch out.StopReason {
	case types.StopReasonMaxTokens:
		return Payload{}, fmt.Errorf("model hit MaxTokens limit")
	case types.StopReasonContentFiltered, types.StopReasonGuardrailIntervened:
		return Payload{}, fmt.Errorf("model response blocked by Bedrock safety filters")
	}

	return payloadFromOutput(out)
}

func submitToolSpec() (types.ToolSpecification, error) {
	// Round-trip through JSON so the document carries the schema's own field names.
	schemaJSON, err := json.Marshal(payloadSchema())
	if err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to marshal tool schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to unmarshal tool schema: %w", err)
	}

	return types.ToolSpecification{
		Name:        aws.String(submitToolName),
		Description: aws.String("Submit the vehicles that best fit the customer's request."),
		InputSchema: &types.ToolInputSchemaMemberJson{
			Value: document.NewLazyDocument(schemaMap),
		},
	}, nil
}

// payloadFromOutput reads the submit tool's input from the assistant message.
func payloadFromOutput(out *bedrockruntime.ConverseOutput) (Payload, error) {
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return Payload{}, fmt.Errorf("no assistant message in output")
	}

	for _, cb := range msg.Value.Content {
		tu, ok := cb.(*types.ContentBlockMemberToolUse)
		if !ok || tu == nil || aws.ToString(tu.Value.Name) != submitToolName {
			continue
		}

		raw, err := tu.Value.Input.MarshalSmithyDocument()
		if err != nil {
			return Payload{}, fmt.Errorf("failed to read tool input: %w", err)
		}

		var p Payload
		if err := json.Unmarshal(raw, &p); err != nil {
			return Payload{}, fmt.Errorf("tool input is not a payload: %w", err)
		}
		return p, nil
	}

	return Payload{}, fmt.Errorf("model did not call %s", submitToolName)
}
