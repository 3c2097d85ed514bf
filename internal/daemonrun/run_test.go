package daemonrun

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"shortsdub/internal/testsupport"
)

func TestBuildStagesWiresEveryStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	stages, speech := BuildStages(cfg)
	if stages.Acquirer == nil || stages.Extractor == nil || stages.Transcriber == nil ||
		stages.Translator == nil || stages.Synthesizer == nil || stages.Remuxer == nil {
		t.Fatalf("expected every stage wired: %#v", stages)
	}
	if speech == nil {
		t.Fatal("expected speech client")
	}
	if stages.Synthesizer != speech {
		t.Fatal("synthesizer should be the shared speech client")
	}
}

func TestEnsureCurrentLogPointer(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "shortsdub-1.log")
	second := filepath.Join(dir, "shortsdub-2.log")
	for _, p := range []string{first, second} {
		if err := os.WriteFile(p, []byte(filepath.Base(p)), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := ensureCurrentLogPointer(dir, first); err != nil {
		t.Fatalf("first pointer: %v", err)
	}
	if err := ensureCurrentLogPointer(dir, second); err != nil {
		t.Fatalf("second pointer: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "shortsdub.log"))
	if err != nil {
		t.Fatalf("read pointer: %v", err)
	}
	if string(data) != "shortsdub-2.log" {
		t.Fatalf("pointer should follow the newest log, got %q", data)
	}
	if err := ensureCurrentLogPointer("", second); err != nil {
		t.Fatalf("empty dir should be a no-op: %v", err)
	}
}

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shortsdub.pid")
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
		t.Fatalf("unexpected pid file contents %q", data)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLedger(true))
	cfg.Retention.Enabled = false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Run(ctx, cfg, Options{LogLevel: "error"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, "shortsdub.pid")); !os.IsNotExist(err) {
		t.Fatalf("pid file should be removed on shutdown, stat err=%v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(cfg.Paths.LogDir, "shortsdub-*.log"))
	if len(matches) != 1 {
		t.Fatalf("expected one per-run log, got %v", matches)
	}
	if _, err := os.Stat(cfg.LedgerPath()); err != nil {
		t.Fatalf("expected ledger created: %v", err)
	}
}
