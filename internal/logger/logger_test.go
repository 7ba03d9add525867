package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FormatAutoDetection(t *testing.T) {
	var prod bytes.Buffer
	New(Config{Writer: &prod, Environment: "production"}).Info("hello", "k", "v")

	var record map[string]any
	require.NoError(t, json.Unmarshal(prod.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "v", record["k"])

	var dev bytes.Buffer
	New(Config{Writer: &dev, Environment: "development"}).Info("hello", "k", "v")
	assert.Contains(t, dev.String(), "INF")
	assert.Contains(t, dev.String(), "k=v")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(input))
		})
	}
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: formatPretty, Level: slog.LevelWarn})

	log.Info("quiet")
	log.Warn("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestPrettyHandler_GroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)
	slog.New(h).WithGroup("req").With("id", "abc").Info("served", "status", 200)

	out := buf.String()
	assert.Contains(t, out, "req.id=abc")
	assert.Contains(t, out, "req.status=200")
}

func TestPrettyHandler_QuotesSpacedStrings(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewPrettyHandler(&buf, nil)).Info("corpus loaded", "poet", "Hafez Shirazi")
	assert.Contains(t, buf.String(), `poet="Hafez Shirazi"`)
}

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: formatJSON})

	log.WithComponent("corpus").WithError(errors.New("boom")).Error("reload failed")

	line := strings.TrimSpace(buf.String())
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "corpus", record["component"])
	assert.Equal(t, "boom", record["error"])
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}
