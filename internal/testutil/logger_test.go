package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCaptureLogger(t *testing.T) {
	logger, buf := NewCaptureLogger(t, slog.LevelWarn)

	logger.Info("dropped")
	logger.Warn("kept", slog.String("column", "ModifiedBy"))

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "level=WARN msg=kept column=ModifiedBy")
}
