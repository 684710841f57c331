package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odk-sre/webform-manager/internal/middleware"
)

func TestContextHandlerAddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(New(slog.NewJSONHandler(&buf, nil)))

	ctx := middleware.NewContextWithCorrelationID(context.Background(), "abc-123")
	logger.InfoContext(ctx, "staged instance")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "abc-123", record[middleware.RequestLoggerKeyCorrelationID])
	assert.Equal(t, "staged instance", record["msg"])
}

func TestContextHandlerWithoutCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(New(slog.NewJSONHandler(&buf, nil)))

	logger.InfoContext(context.Background(), "starting up")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.NotContains(t, record, middleware.RequestLoggerKeyCorrelationID)
}

func TestContextHandlerKeepsCorrelationIDThroughWith(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(New(slog.NewJSONHandler(&buf, nil))).With("component", "survey")

	ctx := middleware.NewContextWithCorrelationID(context.Background(), "abc-123")
	logger.InfoContext(ctx, "created survey")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "abc-123", record[middleware.RequestLoggerKeyCorrelationID])
	assert.Equal(t, "survey", record["component"])
}
