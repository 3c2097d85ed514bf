package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"shortsdub/internal/job"
	"shortsdub/internal/logging"
)

// LockFileName is created inside the output directory while a sweep runs.
const LockFileName = ".retention.lock"

// ErrSweepInProgress reports that another process holds the sweep lock.
var ErrSweepInProgress = errors.New("retention sweep already in progress")

// Pruner drops job history older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Options configures one sweep. Ledger is optional.
type Options struct {
	OutputDir string
	LogDir    string
	MaxAge    time.Duration
	DryRun    bool
	Logger    *slog.Logger
	Ledger    Pruner
	Now       func() time.Time
}

// Result contains the outcome of a sweep.
type Result struct {
	Removed       []string
	Errors        []CleanupError
	LogsRemoved   int
	RecordsPruned int64
	Bytes         int64
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// Sweep removes job artifacts older than MaxAge. A non-positive MaxAge is a
// no-op.
func Sweep(ctx context.Context, opts Options) (Result, error) {
	result := Result{}
	outputDir := strings.TrimSpace(opts.OutputDir)
	if outputDir == "" || opts.MaxAge <= 0 {
		return result, nil
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	if _, err := os.Stat(outputDir); err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, fmt.Errorf("stat output dir: %w", err)
	}

	lock := flock.New(filepath.Join(outputDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return result, fmt.Errorf("acquire retention lock: %w", err)
	}
	if !locked {
		return result, ErrSweepInProgress
	}
	defer func() { _ = lock.Unlock() }()

	jobs, err := ListJobs(outputDir)
	if err != nil {
		return result, fmt.Errorf("read output dir: %w", err)
	}
	cutoff := now().Add(-opts.MaxAge)

	// A job is aged by its newest artifact so a run still producing files
	// keeps its earlier inputs.
	for _, group := range jobs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !group.ModTime.Before(cutoff) {
			continue
		}
		failed := false
		for _, path := range group.Paths {
			if opts.DryRun {
				result.Removed = append(result.Removed, path)
				continue
			}
			if err := os.RemoveAll(path); err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				logger.Warn("failed to remove stale artifact",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "retention_remove_failed"),
					logging.String(logging.FieldErrorHint, "check output_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
				failed = true
				continue
			}
			result.Removed = append(result.Removed, path)
		}
		if !failed {
			result.Bytes += group.Size
		}
		logger.Debug("removed stale job artifacts",
			logging.JobID(group.ID),
			logging.Int("files", len(group.Paths)),
			logging.Duration("age", now().Sub(group.ModTime)),
			logging.Bool("dry_run", opts.DryRun),
			logging.String(logging.FieldEventType, "retention_removed"),
		)
	}

	if logDir := strings.TrimSpace(opts.LogDir); logDir != "" && !opts.DryRun {
		result.LogsRemoved = logging.CleanupOldLogs(logger, opts.MaxAge, logging.RetentionTarget{
			Dir:     logging.JobLogDir(logDir),
			Pattern: "*.log",
		})
	}

	if opts.Ledger != nil && !opts.DryRun {
		pruned, err := opts.Ledger.Prune(ctx, cutoff)
		if err != nil {
			logging.WarnWithContext(logger, "ledger prune failed", "retention_prune_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "old job history remains"),
			)
		}
		result.RecordsPruned = pruned
	}

	if len(result.Removed) > 0 || result.LogsRemoved > 0 || result.RecordsPruned > 0 {
		logger.Info("retention sweep completed",
			logging.Int("artifacts_removed", len(result.Removed)),
			logging.Int("logs_removed", result.LogsRemoved),
			logging.Int64("records_pruned", result.RecordsPruned),
			logging.Int64("bytes_reclaimed", result.Bytes),
			logging.Bool("dry_run", opts.DryRun),
			logging.String(logging.FieldEventType, "retention_sweep"),
		)
	}
	return result, nil
}

// Loop sweeps every interval until ctx ends. The first sweep runs immediately.
func Loop(ctx context.Context, interval time.Duration, opts Options) {
	if interval <= 0 || opts.MaxAge <= 0 {
		return
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := Sweep(ctx, opts); err != nil && !errors.Is(err, ErrSweepInProgress) && ctx.Err() == nil {
			logging.WarnWithContext(logger, "retention sweep failed", "retention_sweep_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check output_dir permissions"),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// JobArtifacts groups the files belonging to one job.
type JobArtifacts struct {
	ID      string
	Paths   []string
	Size    int64
	ModTime time.Time
}

// ListJobs returns the jobs present in outputDir, newest first.
func ListJobs(outputDir string) ([]JobArtifacts, error) {
	outputDir = strings.TrimSpace(outputDir)
	if outputDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	byID := make(map[string]*JobArtifacts)
	for _, entry := range entries {
		id, ok := jobIDOf(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(outputDir, entry.Name())
		size, _ := entrySize(path, info)
		group := byID[id]
		if group == nil {
			group = &JobArtifacts{ID: id}
			byID[id] = group
		}
		group.Paths = append(group.Paths, path)
		group.Size += size
		if info.ModTime().After(group.ModTime) {
			group.ModTime = info.ModTime()
		}
	}

	jobs := make([]JobArtifacts, 0, len(byID))
	for _, group := range byID {
		sort.Strings(group.Paths)
		jobs = append(jobs, *group)
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].ModTime.Equal(jobs[j].ModTime) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].ModTime.After(jobs[j].ModTime)
	})
	return jobs, nil
}

func jobIDOf(name string) (string, bool) {
	if len(name) <= job.IDLength || name[job.IDLength] != '_' {
		return "", false
	}
	id := name[:job.IDLength]
	return id, job.ValidID(id)
}

func entrySize(path string, info os.FileInfo) (int64, error) {
	if !info.IsDir() {
		return info.Size(), nil
	}
	var size int64
	err := filepath.Walk(path, func(_ string, fi os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !fi.IsDir() {
			size += fi.Size()
		}
		return nil
	})
	return size, err
}
