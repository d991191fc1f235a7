package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerEmitsJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter("testcomp", &buf)

	logger.Info("hello", Field{Key: "count", Value: 3})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if line["message"] != "hello" {
		t.Errorf("message = %v", line["message"])
	}
	if line["component"] != "testcomp" {
		t.Errorf("component = %v", line["component"])
	}
	if line["count"] != float64(3) {
		t.Errorf("count = %v", line["count"])
	}
	if line["level"] != "info" {
		t.Errorf("level = %v", line["level"])
	}
}

func TestWithAddsPersistentFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter("", &buf).With(Field{Key: "request_id", Value: "abc"})

	logger.Warn("first")
	logger.Error("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	for _, l := range lines {
		if !strings.Contains(l, `"request_id":"abc"`) {
			t.Errorf("line missing persistent field: %s", l)
		}
	}
}

func TestNopDiscards(t *testing.T) {
	t.Parallel()

	// Must not panic or write anywhere.
	logger := Nop()
	logger.Debug("a")
	logger.Info("b", Field{Key: "k", Value: "v"})
	logger.Warn("c")
	logger.Error("d")
	logger.With(Field{Key: "k", Value: 1}).Info("e")

	if OrNop(nil) == nil {
		t.Error("OrNop(nil) returned nil")
	}
	if OrNop(logger) != logger {
		t.Error("OrNop did not pass through a non-nil logger")
	}
}
