package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewDefaultsUnknownLevel(t *testing.T) {
	logger := New("engine", "not-a-level", "json")
	if logger.Logger.Level.String() != "info" {
		t.Errorf("level = %s, want info", logger.Logger.Level.String())
	}
}

func TestNewFromEnvDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	logger := NewFromEnv("query")
	if logger.service != "query" {
		t.Errorf("service = %s, want query", logger.service)
	}
}

func TestWithContextIncludesIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger := New("query", "debug", "json")
	logger.SetOutput(&buf)

	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithJobID(ctx, "job-1")
	ctx = WithTrackID(ctx, 42)

	logger.Info(ctx, "resolved track", nil)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if line["trace_id"] != "trace-1" {
		t.Errorf("trace_id = %v, want trace-1", line["trace_id"])
	}
	if line["job_id"] != "job-1" {
		t.Errorf("job_id = %v, want job-1", line["job_id"])
	}
	if line["track_id"] != float64(42) {
		t.Errorf("track_id = %v, want 42", line["track_id"])
	}
}

func TestGetTraceIDMissing(t *testing.T) {
	if got := GetTraceID(context.Background()); got != "" {
		t.Errorf("GetTraceID = %q, want empty", got)
	}
}

func TestNewIDUnique(t *testing.T) {
	a := NewID()
	b := NewID()
	if a == b {
		t.Error("expected distinct ids")
	}
}

func TestLogStorageQuery(t *testing.T) {
	var buf bytes.Buffer
	logger := New("query", "debug", "json")
	logger.SetOutput(&buf)

	logger.LogStorageQuery(context.Background(), "select events by track", 3*time.Millisecond, nil)
	if buf.Len() == 0 {
		t.Error("expected a log line for successful query")
	}

	buf.Reset()
	logger.LogStorageQuery(context.Background(), "select events by track", 3*time.Millisecond, errors.New("boom"))
	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if line["level"] != "error" {
		t.Errorf("level = %v, want error", line["level"])
	}
}

func TestLogJobCompletion(t *testing.T) {
	var buf bytes.Buffer
	logger := New("job", "debug", "json")
	logger.SetOutput(&buf)

	logger.LogJobCompletion(context.Background(), "cancelled", 10*time.Millisecond, errors.New("cancelled by caller"))

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if line["state"] != "cancelled" {
		t.Errorf("state = %v, want cancelled", line["state"])
	}
}

func TestLogLRUSweep(t *testing.T) {
	var buf bytes.Buffer
	logger := New("memmgr", "debug", "json")
	logger.SetOutput(&buf)

	logger.LogLRUSweep(context.Background(), 5, 4096, true)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if line["evicted"] != float64(5) {
		t.Errorf("evicted = %v, want 5", line["evicted"])
	}
	if line["met_budget"] != true {
		t.Errorf("met_budget = %v, want true", line["met_budget"])
	}
}

func TestFormatDuration(t *testing.T) {
	got := FormatDuration(1500 * time.Microsecond)
	if got != "1.50ms" {
		t.Errorf("FormatDuration = %s, want 1.50ms", got)
	}
}

func TestDefaultLoggerSingleton(t *testing.T) {
	defaultLogger = nil
	first := Default()
	second := Default()
	if first != second {
		t.Error("expected Default() to return the same instance")
	}
}
