package services

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestCommandMarker(t *testing.T) {
	if !errors.Is(CommandMarker(fmt.Errorf("ffmpeg: %w", context.DeadlineExceeded)), ErrTimeout) {
		t.Fatal("expected deadline to map to ErrTimeout")
	}
	if !errors.Is(CommandMarker(errors.New("exit status 1")), ErrExternalTool) {
		t.Fatal("expected generic failure to map to ErrExternalTool")
	}
}

func TestTail(t *testing.T) {
	if got := tail("  short  ", 10); got != "short" {
		t.Fatalf("tail = %q", got)
	}
	long := strings.Repeat("a", 20) + "END"
	if got := tail(long, 5); got != "...aaEND" {
		t.Fatalf("tail = %q", got)
	}
}

func TestRunCommandMissingBinary(t *testing.T) {
	_, err := RunCommand(context.Background(), "shortsdub-definitely-missing-binary")
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if !strings.Contains(err.Error(), "shortsdub-definitely-missing-binary") {
		t.Fatalf("expected binary name in error, got %v", err)
	}
}

func TestRunCommandDeadlineKillsGrandchildren(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("process groups are unix-only")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	// sh forks sleep, which inherits stdout and stderr.
	_, err := RunCommand(ctx, "sh", "-c", "sleep 4; echo done")
	elapsed := time.Since(start)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if !errors.Is(CommandMarker(err), ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", CommandMarker(err))
	}
	if elapsed > 2*time.Second {
		t.Fatalf("runner returned %s after a 200ms deadline", elapsed)
	}
}
