package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, raw string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line %q is not json: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestJSONFormatFields(t *testing.T) {
	var buf bytes.Buffer
	_, log, err := newService(Config{Level: "debug", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("newService: %v", err)
	}

	log.With(String("comp", "source")).Info("quiz fetched",
		Int("options", 4),
		Duration("took", 1500*time.Millisecond),
		Err(errors.New("boom")),
		Err(nil))

	lines := decodeLines(t, buf.String())
	if len(lines) != 1 {
		t.Fatalf("lines=%d want 1: %q", len(lines), buf.String())
	}
	got := lines[0]
	checks := map[string]any{
		"level":   "info",
		"message": "quiz fetched",
		"comp":    "source",
		"options": float64(4),
		"took":    "1.5s",
		"err":     "boom",
	}
	for k, want := range checks {
		if got[k] != want {
			t.Fatalf("%s=%v want %v", k, got[k], want)
		}
	}
	if c, _ := got["caller"].(string); !strings.HasPrefix(c, "logx_test.go:") {
		t.Fatalf("caller=%q want logx_test.go:<line>", c)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	_, log, err := newService(Config{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("newService: %v", err)
	}
	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")
	log.Error("shown")

	lines := decodeLines(t, buf.String())
	if len(lines) != 2 {
		t.Fatalf("lines=%d want 2: %q", len(lines), buf.String())
	}
	for _, l := range lines {
		if l["message"] != "shown" {
			t.Fatalf("unexpected event %v", l)
		}
	}
}

func TestConsoleFormatIsHumanReadable(t *testing.T) {
	var buf bytes.Buffer
	_, log, err := newService(Config{}, &buf)
	if err != nil {
		t.Fatalf("newService: %v", err)
	}
	log.Info("quiz bot started", String("chat", "@devops_quiz"))
	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("console output looks like json: %q", out)
	}
	if !strings.Contains(out, "quiz bot started") || !strings.Contains(out, "@devops_quiz") {
		t.Fatalf("missing message or field: %q", out)
	}
}

func TestFileSink(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "bot.log")
	svc, log, err := newService(Config{Format: "json", File: FileConfig{Enabled: true, Path: path}}, &buf)
	if err != nil {
		t.Fatalf("newService: %v", err)
	}
	log.Info("to file")
	if buf.Len() != 0 {
		t.Fatalf("stdout written without Console: %q", buf.String())
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := decodeLines(t, string(raw))
	if len(lines) != 1 || lines[0]["message"] != "to file" {
		t.Fatalf("file content %q", raw)
	}

	// after Close events fall back to stdout
	log.Info("after close")
	if !strings.Contains(buf.String(), "after close") {
		t.Fatalf("stdout=%q want fallback event", buf.String())
	}
}

func TestFileOpenError(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "missing", "dir", "bot.log")
	if _, _, err := newService(Config{File: FileConfig{Enabled: true, Path: path}}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for %s", path)
	}
}

func TestZeroAndNop(t *testing.T) {
	t.Parallel()
	var zero Logger
	if !zero.IsZero() {
		t.Fatalf("zero value must be IsZero")
	}
	if Nop().IsZero() {
		t.Fatalf("Nop must not be IsZero")
	}
	if zero.With(String("k", "v")).IsZero() {
		t.Fatalf("logger with fields must not be IsZero")
	}
	// neither may panic
	zero.Info("dropped", Any("x", 1))
	Nop().Error("dropped", Strings("xs", []string{"a"}))
}

func TestValidLevelAndFormat(t *testing.T) {
	t.Parallel()
	levels := map[string]bool{"": true, "debug": true, " WARN ": true, "warning": true, "loud": false}
	for in, want := range levels {
		if got := ValidLevel(in); got != want {
			t.Fatalf("ValidLevel(%q)=%v want %v", in, got, want)
		}
	}
	formats := map[string]bool{"": true, "console": true, "JSON": true, "xml": false}
	for in, want := range formats {
		if got := ValidFormat(in); got != want {
			t.Fatalf("ValidFormat(%q)=%v want %v", in, got, want)
		}
	}
}
