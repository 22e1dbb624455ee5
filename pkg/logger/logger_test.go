package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestAppLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("warn", &buf)

	l.Info("hidden")
	l.Debug("hidden")
	l.Warn("anchor not found", "annotation_id", "a-1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info/debug to be filtered, got %q", out)
	}
	if !strings.Contains(out, "WARN: anchor not found annotation_id=a-1") {
		t.Fatalf("unexpected log line: %q", out)
	}
}

func TestAppLogger_ErrorFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("debug", &buf)

	l.Error("create failed", errors.New("boom"), "note_id", 7)

	if !strings.Contains(buf.String(), "ERROR: create failed error=boom note_id=7") {
		t.Fatalf("unexpected log line: %q", buf.String())
	}
}

func TestParseLogLevel_Default(t *testing.T) {
	if parseLogLevel("nonsense") != INFO {
		t.Fatalf("expected unknown level to fall back to INFO")
	}
	if parseLogLevel("WARNING") != WARN {
		t.Fatalf("expected WARNING to parse as WARN")
	}
}
