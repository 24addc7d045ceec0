// Package textgen turns a persona and a bounded conversation history into a
// single generated reply.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/guest-messaging/internal/llm"
	"github.com/capitalize-ai/guest-messaging/internal/model"
	"github.com/capitalize-ai/guest-messaging/pkg/logger"
	"github.com/capitalize-ai/guest-messaging/pkg/metrics"
	"github.com/capitalize-ai/guest-messaging/pkg/tracing"
)

// HistoryWindow is the number of most recent turns sent with a request.
const HistoryWindow = 10

var (
	// ErrNoProvider is returned when no LLM client is configured.
	ErrNoProvider = errors.New("no text generation provider configured")
	// ErrEmptyCompletion is returned when the provider answers with no text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// Role is who spoke a turn from the model's point of view.
type Role string

const (
	RoleGuest     Role = "guest"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of conversation history.
type Turn struct {
	Role Role
	Text string
}

// TurnsFromMessages maps a message log to history turns. Staff and ai
// messages both become assistant turns.
func TurnsFromMessages(msgs []model.Message) []Turn {
	turns := make([]Turn, len(msgs))
	for i, m := range msgs {
		role := RoleAssistant
		if m.Sender == model.SenderGuest {
			role = RoleGuest
		}
		turns[i] = Turn{Role: role, Text: m.Content}
	}
	return turns
}

// Window returns the last HistoryWindow turns.
func Window(turns []Turn) []Turn {
	if len(turns) > HistoryWindow {
		turns = turns[len(turns)-HistoryWindow:]
	}
	return append([]Turn(nil), turns...)
}

// Service generates a reply in a persona's voice. On failure it returns the
// persona's fallback text together with the error.
type Service interface {
	Generate(ctx context.Context, p Persona, history []Turn) (string, error)
}

// Generator is a Service backed by an llm.Client.
type Generator struct {
	client    llm.Client
	model     string
	maxTokens int
	logger    *logger.Logger
	tracer    trace.Tracer
}

// NewGenerator creates a generator. A nil client yields ErrNoProvider on
// every call.
func NewGenerator(client llm.Client, modelName string, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Global()
	}
	if modelName == "" && client != nil && client.Name() == string(llm.ProviderOpenAI) {
		modelName = llm.DefaultOpenAIModel
	}
	if modelName == "" {
		modelName = llm.DefaultAnthropicModel
	}
	return &Generator{
		client:    client,
		model:     modelName,
		maxTokens: 500,
		logger:    log.Named("textgen"),
		tracer:    tracing.Tracer("github.com/capitalize-ai/guest-messaging/internal/textgen"),
	}
}

// Generate implements Service.
func (g *Generator) Generate(ctx context.Context, p Persona, history []Turn) (string, error) {
	if g.client == nil {
		return p.Fallback, ErrNoProvider
	}

	ctx, span := g.tracer.Start(ctx, "textgen.Generate", trace.WithAttributes(
		attribute.String("persona", p.Name),
		attribute.String("model", g.model),
	))
	defer span.End()

	req := &llm.CompletionRequest{
		Model:       g.model,
		System:      p.Prompt,
		Messages:    chatMessages(history),
		MaxTokens:   g.maxTokens,
		Temperature: p.Temperature,
	}
	span.SetAttributes(attribute.Int("history.turns", len(req.Messages)))

	start := time.Now()
	resp, err := g.client.Complete(ctx, req)
	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = ErrEmptyCompletion
	}
	elapsed := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordTextGen(p.Name, g.model, "error", elapsed, 0, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn("text generation failed",
			zap.String("persona", p.Name),
			zap.String("provider", g.client.Name()),
			zap.Error(err),
		)
		return p.Fallback, fmt.Errorf("generate %s reply: %w", p.Name, err)
	}

	metrics.RecordTextGen(p.Name, g.model, "ok", elapsed, resp.TokensIn, resp.TokensOut)
	span.SetAttributes(
		attribute.Int("tokens.in", resp.TokensIn),
		attribute.Int("tokens.out", resp.TokensOut),
	)
	g.logger.Debug("text generated",
		zap.String("persona", p.Name),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Int64("latency_ms", resp.LatencyMs),
	)
	return resp.Content, nil
}

// chatMessages windows history and maps it to provider roles. An empty
// history becomes a single user greeting.
func chatMessages(history []Turn) []llm.ChatMessage {
	window := Window(history)
	if len(window) == 0 {
		return []llm.ChatMessage{{Role: llm.RoleUser, Content: "Hello"}}
	}

	out := make([]llm.ChatMessage, len(window))
	for i, t := range window {
		role := llm.RoleAssistant
		if t.Role == RoleGuest {
			role = llm.RoleUser
		}
		out[i] = llm.ChatMessage{Role: role, Content: t.Text}
	}
	return out
}
