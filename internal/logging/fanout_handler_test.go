package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil handlers")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoHandler := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	h := newFanoutHandler(infoHandler, debugHandler)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug enabled through the debug handler")
	}

	logger := slog.New(h).With("job_id", "abc").WithGroup("stage")
	logger.Debug("detail", "name", "remuxing")
	logger.Info("summary", "name", "remuxing")

	if strings.Contains(infoBuf.String(), "detail") {
		t.Fatal("info handler received debug record")
	}
	if !strings.Contains(infoBuf.String(), "summary") {
		t.Fatal("info handler missed info record")
	}
	if strings.Count(debugBuf.String(), `"job_id":"abc"`) != 2 {
		t.Fatalf("expected attrs on both debug records, got %q", debugBuf.String())
	}
	if !strings.Contains(debugBuf.String(), `"stage":{"name":"remuxing"}`) {
		t.Fatalf("expected grouped attrs, got %q", debugBuf.String())
	}
}

func TestTeeLoggerNilBase(t *testing.T) {
	var buf bytes.Buffer
	logger := TeeLogger(nil, slog.NewTextHandler(&buf, nil))
	logger.Info("tee")
	if !strings.Contains(buf.String(), "tee") {
		t.Fatalf("expected output, got %q", buf.String())
	}
}
