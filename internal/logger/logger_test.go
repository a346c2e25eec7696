package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestContextAttrsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "lab-radar", LevelDebug)

	ctx := WithAction(context.Background(), "submit_answer")
	ctx = WithLabID(ctx, "lab-1")
	ctx = WithRequestID(ctx, "req-9")
	l.Error(ctx, "answer failed", errors.New("boom"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}

	want := map[string]string{
		"message":    "answer failed",
		"action":     "submit_answer",
		"lab_id":     "lab-1",
		"request_id": "req-9",
		"service":    "lab-radar",
	}
	for k, v := range want {
		if rec[k] != v {
			t.Errorf("%s = %v, want %q", k, rec[k], v)
		}
	}
	errObj, ok := rec["error"].(map[string]any)
	if !ok || errObj["msg"] != "boom" {
		t.Errorf("error = %v", rec["error"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "lab-radar", LevelWarn)
	l.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at WARN level: %s", buf.String())
	}
	l.Warn(context.Background(), "shown")
	if buf.Len() == 0 {
		t.Fatal("warn not logged")
	}
}

func TestValidateLogLevel(t *testing.T) {
	if !ValidateLogLevel("INFO") || ValidateLogLevel("verbose") {
		t.Fatal("ValidateLogLevel mismatch")
	}
}
