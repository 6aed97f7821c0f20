package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("recognition-gateway", "info", &buf)

	l.Info("started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "recognition-gateway", entry["service"])
	assert.Equal(t, "started", entry["msg"])
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("recognition-gateway", "warn", &buf)

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationIDFromContext(ctx))

	ctx = WithCorrelationID(ctx, "corr-123")
	assert.Equal(t, "corr-123", CorrelationIDFromContext(ctx))
}

func TestReviewerIDRoundTrip(t *testing.T) {
	ctx := WithReviewerID(context.Background(), "emp-42")
	assert.Equal(t, "emp-42", ReviewerIDFromContext(ctx))
}

func TestFromContext_Default(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestWithContext_EnrichesFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter("recognition-gateway", "info", &buf)

	ctx := WithCorrelationID(context.Background(), "corr-9")
	ctx = WithReviewerID(ctx, "emp-7")

	WithContext(ctx, base).Info("submit review")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "corr-9", entry["correlation_id"])
	assert.Equal(t, "emp-7", entry["reviewer_id"])
}
