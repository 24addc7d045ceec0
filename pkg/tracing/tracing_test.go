package tracing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/guest-messaging/pkg/tracing"
)

func TestShutdownNilProvider(t *testing.T) {
	assert.NoError(t, tracing.Shutdown(context.Background(), nil))
}

func TestInitTracer(t *testing.T) {
	tp, err := tracing.InitTracer(context.Background(), "guest-messaging-test", "localhost:4318")
	require.NoError(t, err)

	_, span := tracing.Tracer("test").Start(context.Background(), "unit")
	assert.True(t, span.SpanContext().IsValid(), "the installed provider records spans")
	span.End()

	// Nothing listens on the endpoint; only check that shutdown returns.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = tracing.Shutdown(ctx, tp)
}
