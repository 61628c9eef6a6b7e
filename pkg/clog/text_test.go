package clog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewAttributesHandler(NewTextHandler(&buf, WithColor(false), WithLevel(slog.LevelDebug))))

	ctx := ContextWithSlog(context.Background())
	AddAttributes(ctx, map[string]any{"method": "GET", "path": "/api/projects", "status": 200})
	AddError(ctx, errors.New("boom"))
	logger.InfoContext(ctx, "OK", "project_id", "p1")

	out := buf.String()
	assert.Contains(t, out, "INFO GET /api/projects 200 OK \"boom\"\n")
	assert.Contains(t, out, "    project_id=p1\n")
}

func TestTextHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTextHandler(&buf, WithColor(false)))
	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestContextAttributes(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddAttributes(ctx, map[string]any{"a": map[string]any{"x": 1}})
	AddAttributes(ctx, map[string]any{"a": map[string]any{"y": 2}})
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, GetAttributes(ctx)["a"])

	AddStack(ctx, "trace")
	assert.Equal(t, "trace", GetStack(ctx))

	assert.Nil(t, GetAttributes(context.Background()))
}

func TestHTTPStatusToLevel(t *testing.T) {
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(200))
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(499))
	assert.Equal(t, LevelWarn, HTTPStatusToLevel(404))
	assert.Equal(t, LevelError, HTTPStatusToLevel(500))
}
