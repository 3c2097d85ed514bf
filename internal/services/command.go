package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const stderrTailBytes = 2048

// commandWaitDelay bounds how long Run waits on output pipes after the
// process group has been killed.
const commandWaitDelay = 5 * time.Second

// CommandRunner executes an external tool and returns its stdout. Adapters
// accept one so tests can substitute canned tool behavior.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// RunCommand executes name with args. Stderr is captured separately so
// machine-readable stdout stays clean; its tail is attached to failures.
func RunCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return RunCommandEnv(ctx, nil, name, args...)
}

// RunCommandEnv is RunCommand with extra KEY=VALUE entries appended to the
// inherited environment.
func RunCommandEnv(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	// uvx and yt-dlp spawn children that inherit the output pipes; cancel
	// the whole group so a deadline returns promptly.
	killProcessGroupOnCancel(cmd)
	cmd.WaitDelay = commandWaitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdout.Bytes(), fmt.Errorf("%s: %w", name, ctxErr)
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w: %s", name, err, tail(stderr.String(), stderrTailBytes))
	}
	return stdout.Bytes(), nil
}

// CommandMarker classifies a command failure: context expiry becomes
// ErrTimeout, anything else ErrExternalTool.
func CommandMarker(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrExternalTool
}

func tail(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return "..." + value[len(value)-limit:]
}
