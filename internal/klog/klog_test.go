package klog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWritesToFileWriterWhenConfigured(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: slog.LevelInfo, FileWriter: &buf})
	logger.Info("hello", "key", "value")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), `"key":"value"`)
}

func TestNewWithoutFileWriterStillLogsToStderrHandler(t *testing.T) {
	logger := New(Options{Level: slog.LevelInfo})
	assert.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestDiscardDropsEverything(t *testing.T) {
	logger := Discard()
	logger.Info("should not panic")
}
