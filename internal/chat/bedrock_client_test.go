package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConverseAPI struct {
	out  *bedrockruntime.ConverseOutput
	err  error
	last *bedrockruntime.ConverseInput
}

func (m *mockConverseAPI) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.last = params
	if m.err != nil {
		return nil, m.err
	}
	return m.out, nil
}

func converseTextOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Role: brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: text},
				},
			},
		},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(12),
			OutputTokens: aws.Int32(7),
			TotalTokens:  aws.Int32(19),
		},
	}
}

func TestBedrockLLMClientComplete(t *testing.T) {
	api := &mockConverseAPI{out: converseTextOutput("  hello there  ")}
	client := NewBedrockLLMClient(api, "anthropic.claude-3-haiku-20240307-v1:0")

	resp, err := client.Complete(context.Background(), LLMRequest{
		System:      []string{"be helpful"},
		Messages:    []Message{{Role: RoleUser, Content: "hi"}},
		MaxTokens:   1000,
		Temperature: 0.7,
	})

	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Text)
	assert.Equal(t, string(brtypes.StopReasonEndTurn), resp.StopReason)
	assert.Equal(t, int32(12), resp.Usage.InputTokens)
	assert.Equal(t, int32(19), resp.Usage.TotalTokens)
	assert.Equal(t, "bedrock", client.Provider())

	require.NotNil(t, api.last)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", aws.ToString(api.last.ModelId))
	require.Len(t, api.last.System, 1)
	require.Len(t, api.last.Messages, 1)
	require.NotNil(t, api.last.InferenceConfig)
	assert.Equal(t, int32(1000), aws.ToInt32(api.last.InferenceConfig.MaxTokens))
}

func TestBedrockLLMClientRequestModelOverridesDefault(t *testing.T) {
	api := &mockConverseAPI{out: converseTextOutput("ok")}
	client := NewBedrockLLMClient(api, "default-model")

	_, err := client.Complete(context.Background(), LLMRequest{
		Model:    "override-model",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "override-model", aws.ToString(api.last.ModelId))
}

func TestBedrockLLMClientMissingModelID(t *testing.T) {
	api := &mockConverseAPI{out: converseTextOutput("ok")}
	client := NewBedrockLLMClient(api, "")

	_, err := client.Complete(context.Background(), LLMRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})

	assert.Error(t, err)
}

func TestBedrockLLMClientSystemRoleMessagesHoisted(t *testing.T) {
	api := &mockConverseAPI{out: converseTextOutput("ok")}
	client := NewBedrockLLMClient(api, "model")

	_, err := client.Complete(context.Background(), LLMRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "you are a consultant"},
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
			{Role: RoleUser, Content: "tell me more"},
		},
	})

	require.NoError(t, err)
	assert.Len(t, api.last.System, 1)
	assert.Len(t, api.last.Messages, 3)
	assert.Equal(t, brtypes.ConversationRoleAssistant, api.last.Messages[1].Role)
}

func TestBedrockLLMClientUnsupportedRole(t *testing.T) {
	api := &mockConverseAPI{out: converseTextOutput("ok")}
	client := NewBedrockLLMClient(api, "model")

	_, err := client.Complete(context.Background(), LLMRequest{
		Messages: []Message{{Role: "tool", Content: "hi"}},
	})

	assert.Error(t, err)
}

func TestBedrockLLMClientAPIError(t *testing.T) {
	api := &mockConverseAPI{err: errors.New("throttled")}
	client := NewBedrockLLMClient(api, "model")

	_, err := client.Complete(context.Background(), LLMRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestBedrockLLMClientEmptyOutput(t *testing.T) {
	api := &mockConverseAPI{out: &bedrockruntime.ConverseOutput{}}
	client := NewBedrockLLMClient(api, "model")

	_, err := client.Complete(context.Background(), LLMRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})

	assert.Error(t, err)
}
