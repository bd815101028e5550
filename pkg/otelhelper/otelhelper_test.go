package otelhelper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	return recorder, provider
}

func TestStartSpan(t *testing.T) {
	recorder, provider := newRecorder(t)

	_, span := StartSpan(context.Background(), provider.Tracer("test"), "editor.run",
		attribute.String(WorkflowIDKey, "wf-1"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "editor.run", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String(WorkflowIDKey, "wf-1"))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestSetError(t *testing.T) {
	recorder, provider := newRecorder(t)

	_, span := StartSpan(context.Background(), provider.Tracer("test"), "editor.confirm_card")
	SetError(span, errors.New("boom"), attribute.String(CardIDKey, "card-1"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)

	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "exception", events[0].Name)
	assert.Contains(t, events[0].Attributes, attribute.String(CardIDKey, "card-1"))
}

func TestSetError_Nil(t *testing.T) {
	recorder, provider := newRecorder(t)

	_, span := StartSpan(context.Background(), provider.Tracer("test"), "editor.run")
	SetError(span, nil)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Empty(t, spans[0].Events())
}
