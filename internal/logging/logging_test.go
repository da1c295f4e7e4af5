package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json output filtered by level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, err := New("warn", "json", &buf)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		logger.Info("hidden")
		logger.Warn("shown", "staff_id", "eddy")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 1 {
			t.Fatalf("expected one line, got %q", buf.String())
		}
		var record map[string]any
		if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
			t.Fatalf("expected JSON record, got %v", err)
		}
		if record["msg"] != "shown" || record["staff_id"] != "eddy" {
			t.Fatalf("unexpected record %v", record)
		}
	})

	t.Run("text output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, err := New("", "TEXT", &buf)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		logger.Info("ready")
		if !strings.Contains(buf.String(), "msg=ready") {
			t.Fatalf("expected text record, got %q", buf.String())
		}
	})

	t.Run("rejects unknown settings", func(t *testing.T) {
		t.Parallel()

		if _, err := New("loud", "json", &bytes.Buffer{}); err == nil {
			t.Fatalf("expected level error")
		}
		if _, err := New("info", "xml", &bytes.Buffer{}); err == nil {
			t.Fatalf("expected format error")
		}
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for input, want := range cases {
		got, err := ParseLevel(input)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; expected %v", input, got, err, want)
		}
	}
}

func TestContextWithLogger(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatalf("expected logger round trip")
	}
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected nil logger for bare context")
	}
	if got := ContextWithLogger(ctx, nil); FromContext(got) != logger {
		t.Fatalf("expected nil logger to leave context unchanged")
	}
}
