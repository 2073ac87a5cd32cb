package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace":   LevelTrace,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerLabelsTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)
	logger.Log(context.Background(), LevelTrace, "prompt", "step", 1)
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected TRACE label, got %q", buf.String())
	}

	buf.Reset()
	logger = NewLogger("info", &buf)
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug output at info level: %q", buf.String())
	}
}

func TestDecisionLoggerDisabledAtInfo(t *testing.T) {
	dir := t.TempDir()
	if dl := NewDecisionLogger(dir, "info"); dl != nil {
		t.Fatal("expected nil decision logger at info level")
	}
	var dl *DecisionLogger
	dl.Log(map[string]any{"a": 1})
	if err := dl.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}

func TestDecisionLoggerWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	dl := NewDecisionLogger(dir, "debug")
	if dl == nil {
		t.Fatal("expected decision logger at debug level")
	}
	event := map[string]any{"step": 1, "response": "3"}
	dl.Log(event)
	dl.Log(map[string]any{"step": 2, "response": "7"})
	if err := dl.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := event["time"]; ok {
		t.Error("Log mutated the caller's map")
	}

	f, err := os.Open(filepath.Join(dir, "decisions.jsonl"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	var lines int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %d not JSON: %v", lines, err)
		}
		if _, ok := m["time"]; !ok {
			t.Errorf("line %d missing time", lines)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}

	// Logging after close is a no-op.
	dl.Log(map[string]any{"step": 3})
}
