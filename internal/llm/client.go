// Package llm provides the text completion clients behind the guest
// simulator and the staff assistant.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Chat roles understood by every provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider names a completion backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// ChatMessage is one turn sent to a provider. Role is RoleUser or
// RoleAssistant; the system prompt travels separately.
type ChatMessage struct {
	Role    string
	Content string
}

// CompletionRequest is a single non-streaming completion. Zero Model and
// MaxTokens take the provider defaults.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// CompletionResponse is the concatenated text of a completion with usage.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client completes chat requests.
type Client interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// Keys holds per-provider API keys. Empty keys mean the provider is not
// configured.
type Keys struct {
	Anthropic string
	OpenAI    string
}

func (k Keys) get(p Provider) string {
	switch p {
	case ProviderAnthropic:
		return k.Anthropic
	case ProviderOpenAI:
		return k.OpenAI
	}
	return ""
}

// NewClient creates a client for one provider. An empty provider means
// Anthropic.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch Provider(strings.ToLower(string(provider))) {
	case ProviderAnthropic, "":
		c, err := NewAnthropicClient(apiKey)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderOpenAI:
		c, err := NewOpenAIClient(apiKey)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

// Select builds a client for the preferred provider when its key is set,
// otherwise for the first configured one in the order anthropic, openai.
// It returns a nil client and no error when no key is set at all.
func Select(preferred Provider, keys Keys) (Client, error) {
	preferred = Provider(strings.ToLower(string(preferred)))
	for _, p := range []Provider{preferred, ProviderAnthropic, ProviderOpenAI} {
		if key := keys.get(p); key != "" {
			return NewClient(p, key)
		}
	}
	return nil, nil
}
