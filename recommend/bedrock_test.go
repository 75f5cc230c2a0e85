package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBedrockClient implements bedrockRuntimeClient for testing
type mockBedrockClient struct {
	response *bedrockruntime.ConverseOutput
	err      error
	input    *bedrockruntime.ConverseInput
}

func (m *mockBedrockClient) Converse(ctx context.Context, input *bedrockruntime.ConverseInput, opts ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.input = input
	return m.response, m.err
}

func toolUseOutput(name string, input map[string]any) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		StopReason: types.StopReasonToolUse,
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{
				Role: types.ConversationRoleAssistant,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberToolUse{
						Value: types.ToolUseBlock{
							Name:      aws.String(name),
							ToolUseId: aws.String("tooluse_1"),
							Input:     document.NewLazyDocument(input),
						},
					},
				},
			},
		},
		Usage: &types.TokenUsage{
			InputTokens:  aws.Int32(512),
			OutputTokens: aws.Int32(64),
			TotalTokens:  aws.Int32(576),
		},
		Metrics: &types.ConverseMetrics{LatencyMs: aws.Int64(900)},
	}
}

func TestNewBedrockReasoner_Defaults(t *testing.T) {
	b := NewBedrockReasoner(&mockBedrockClient{}, staticCatalog{}, LLMOptions{})
	assert.Equal(t, LLMOptions{
		ModelID:     defaultBedrockModelID,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
		TopP:        defaultTopP,
	}, b.opts)
}

func TestBedrockReasoner_Reason(t *testing.T) {
	tests := []struct {
		name     string
		response *bedrockruntime.ConverseOutput
		err      error
		want     Payload
		wantErr  bool
	}{
		{
			name: "submit tool input",
			response: toolUseOutput(submitToolName, map[string]any{
				"success": true,
				"recommendations": []any{
					map[string]any{"id": 2, "matchReason": "연비가 좋습니다"},
					map[string]any{"id": "3", "matchReason": "넓습니다"},
				},
			}),
			want: Payload{Success: true, Recommendations: []Candidate{
				{ID: 2, MatchReason: "연비가 좋습니다"},
				{ID: 3, MatchReason: "넓습니다"},
			}},
		},
		{
			name:     "other tool only",
			response: toolUseOutput("something_else", map[string]any{}),
			wantErr:  true,
		},
		{
			name: "max tokens",
			response: &bedrockruntime.ConverseOutput{
				StopReason: types.StopReasonMaxTokens,
			},
			wantErr: true,
		},
		{
			name: "text instead of tool use",
			response: &bedrockruntime.ConverseOutput{
				StopReason: types.StopReasonEndTurn,
				Output: &types.ConverseOutputMemberMessage{
					Value: types.Message{
						Role:    types.ConversationRoleAssistant,
						Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: "K5"}},
					},
				},
			},
			wantErr: true,
		},
		{
			name:    "converse error",
			err:     errors.New("ThrottlingException"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockBedrockClient{response: tt.response, err: tt.err}
			b := NewBedrockReasoner(client, staticCatalog{records: catalogOf(3)}, LLMOptions{})

			got, err := b.Reason(context.Background(), "연비 좋은 세단")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBedrockReasoner_ForcesSubmitTool(t *testing.T) {
	client := &mockBedrockClient{response: toolUseOutput(submitToolName, map[string]any{
		"success":         false,
		"recommendations": []any{},
	})}
	b := NewBedrockReasoner(client, staticCatalog{records: catalogOf(1)}, LLMOptions{ModelID: "custom-model"})

	_, err := b.Reason(context.Background(), "q")
	require.NoError(t, err)

	in := client.input
	require.NotNil(t, in)
	assert.Equal(t, "custom-model", aws.ToString(in.ModelId))

	require.Len(t, in.System, 1)
	sys, ok := in.System[0].(*types.SystemContentBlockMemberText)
	require.True(t, ok)
	assert.Contains(t, sys.Value, "1 | Avante")

	require.NotNil(t, in.ToolConfig)
	choice, ok := in.ToolConfig.ToolChoice.(*types.ToolChoiceMemberTool)
	require.True(t, ok)
	assert.Equal(t, submitToolName, aws.ToString(choice.Value.Name))

	require.Len(t, in.ToolConfig.Tools, 1)
	spec, ok := in.ToolConfig.Tools[0].(*types.ToolMemberToolSpec)
	require.True(t, ok)
	assert.Equal(t, submitToolName, aws.ToString(spec.Value.Name))
}

func TestBedrockReasoner_CatalogError(t *testing.T) {
	client := &mockBedrockClient{}
	b := NewBedrockReasoner(client, staticCatalog{err: errors.New("sheet down")}, LLMOptions{})

	_, err := b.Reason(context.Background(), "q")
	assert.Error(t, err)
	assert.Nil(t, client.input)
}
