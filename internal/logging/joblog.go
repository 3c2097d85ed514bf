package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
)

// JobLogDir returns the directory holding per-job log files.
func JobLogDir(logDir string) string {
	return filepath.Join(logDir, "jobs")
}

// JobLogPath returns the per-job log file path for jobID.
func JobLogPath(logDir, jobID string) string {
	return filepath.Join(JobLogDir(logDir), jobID+".log")
}

// OpenJobLogger tees base into a JSON log file dedicated to one job. The
// returned closer must be called once the job finishes. With an empty logDir
// the base logger is returned unchanged.
func OpenJobLogger(base *slog.Logger, logDir, jobID string) (*slog.Logger, io.Closer, error) {
	if base == nil {
		base = NewNop()
	}
	if logDir == "" || jobID == "" {
		return base.With(String(FieldJobID, jobID)), io.NopCloser(nil), nil
	}
	file, err := openLogFile(JobLogPath(logDir, jobID))
	if err != nil {
		return nil, nil, fmt.Errorf("open job log: %w", err)
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	fileHandler, err := newJSONHandler(file, levelVar, false)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	logger := TeeLogger(base, fileHandler).With(String(FieldJobID, jobID))
	return logger, file, nil
}
