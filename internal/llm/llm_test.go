package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/guest-messaging/internal/llm"
)

func TestNewClientRequiresKey(t *testing.T) {
	for _, p := range []llm.Provider{llm.ProviderAnthropic, llm.ProviderOpenAI} {
		_, err := llm.NewClient(p, "")
		assert.Error(t, err, "%s with an empty key", p)
	}
	_, err := llm.NewClient("cohere", "key")
	assert.Error(t, err, "unknown provider")
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		preferred llm.Provider
		keys      llm.Keys
		want      string
	}{
		{"preferred openai", llm.ProviderOpenAI, llm.Keys{Anthropic: "a", OpenAI: "o"}, "openai"},
		{"preferred missing key", llm.ProviderOpenAI, llm.Keys{Anthropic: "a"}, "anthropic"},
		{"case insensitive", "OpenAI", llm.Keys{OpenAI: "o"}, "openai"},
		{"unknown preference", "cohere", llm.Keys{OpenAI: "o"}, "openai"},
		{"nothing configured", llm.ProviderAnthropic, llm.Keys{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := llm.Select(tt.preferred, tt.keys)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, c)
				return
			}
			require.NotNil(t, c)
			assert.Equal(t, tt.want, c.Name())
		})
	}
}

func TestOpenAIPrependsSystemMessage(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got), "decode request")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Model: "gpt-4o",
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: "Right away!"},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 12, CompletionTokens: 3},
		})
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	client := llm.NewOpenAIClientWithConfig(cfg)

	resp, err := client.Complete(context.Background(), &llm.CompletionRequest{
		System:      "You are helpful.",
		Messages:    []llm.ChatMessage{{Role: llm.RoleUser, Content: "Towels please"}},
		Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Right away!", resp.Content)
	assert.Equal(t, 12, resp.TokensIn)
	assert.Equal(t, 3, resp.TokensOut)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role, "system message goes first")
	assert.Equal(t, "You are helpful.", got.Messages[0].Content)
	assert.Equal(t, llm.DefaultOpenAIModel, got.Model)
	assert.Equal(t, 500, got.MaxTokens)
}

func TestAnthropicSendsSystemPrompt(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body), "decode request")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "Hello there"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 20, "output_tokens": 4}
		}`))
	}))
	defer srv.Close()

	client, err := llm.NewAnthropicClient("test-key", option.WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), &llm.CompletionRequest{
		System:   "You are a hotel guest.",
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "Hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", resp.Content)
	assert.Equal(t, 4, resp.TokensOut)

	system, ok := body["system"].([]any)
	require.True(t, ok, "system blocks: %#v", body["system"])
	require.Len(t, system, 1)
	block, _ := system[0].(map[string]any)
	assert.Equal(t, "You are a hotel guest.", block["text"])
	assert.Equal(t, llm.DefaultAnthropicModel, body["model"])
}
