package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shortsdub/internal/logging"
	"shortsdub/internal/pipeline"
)

// Job is the folded view of one dubbing run.
type Job struct {
	ID          string         `json:"job_id"`
	SourceURL   string         `json:"source_url"`
	State       pipeline.State `json:"state"`
	FailedStage pipeline.Stage `json:"failed_stage,omitempty"`
	Message     string         `json:"message,omitempty"`
	SourceText  string         `json:"source_text,omitempty"`
	TargetText  string         `json:"target_text,omitempty"`
	OutputPath  string         `json:"output_path,omitempty"`
	Elapsed     time.Duration  `json:"elapsed_ns"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Event is one recorded state transition.
type Event struct {
	From     pipeline.State `json:"from,omitempty"`
	To       pipeline.State `json:"to"`
	Stage    pipeline.Stage `json:"stage,omitempty"`
	At       time.Time      `json:"at"`
	Duration time.Duration  `json:"duration_ns"`
	Artifact string         `json:"artifact,omitempty"`
	Message  string         `json:"message,omitempty"`
}

const jobColumns = "id, source_url, state, failed_stage, message, source_text, target_text, output_path, elapsed_ms, created_at, updated_at"

// Record appends a transition and updates the job row.
func (s *Store) Record(ctx context.Context, t pipeline.Transition) error {
	if t.JobID == "" {
		return errors.New("ledger record: job id required")
	}
	at := t.At
	if at.IsZero() {
		at = s.now()
	}
	timestamp := formatTime(at)

	if err := s.exec(ctx,
		`INSERT INTO jobs (id, source_url, state, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		t.JobID, t.SourceURL, string(t.To), timestamp, timestamp,
	); err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	if t.To == pipeline.StateFailed {
		if err := s.exec(ctx,
			`UPDATE jobs SET failed_stage = ?, message = ?, elapsed_ms = ? WHERE id = ?`,
			nullableString(string(t.Stage)), nullableString(t.Message), t.Duration.Milliseconds(), t.JobID,
		); err != nil {
			return fmt.Errorf("record failure: %w", err)
		}
	}
	if err := s.exec(ctx,
		`INSERT INTO job_events (job_id, from_state, to_state, stage, at, duration_ms, artifact, message)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.JobID,
		nullableString(string(t.From)),
		string(t.To),
		nullableString(string(t.Stage)),
		timestamp,
		t.Duration.Milliseconds(),
		nullableString(t.Artifact),
		nullableString(t.Message),
	); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Finish stores the texts and output of a completed run.
func (s *Store) Finish(ctx context.Context, outcome pipeline.Outcome) error {
	if outcome.JobID == "" {
		return nil
	}
	err := s.exec(ctx,
		`UPDATE jobs SET state = ?, failed_stage = ?, message = ?, source_text = ?, target_text = ?,
            output_path = ?, elapsed_ms = ?, updated_at = ? WHERE id = ?`,
		string(outcome.State),
		nullableString(string(outcome.FailedStage)),
		nullableString(outcome.Message),
		nullableString(outcome.SourceText),
		nullableString(outcome.TargetText),
		nullableString(outcome.OutputPath),
		outcome.Elapsed.Milliseconds(),
		formatTime(s.now()),
		outcome.JobID,
	)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	return nil
}

// List returns the most recent jobs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Get returns one job and its transitions in order.
func (s *Store) Get(ctx context.Context, id string) (Job, []Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, nil, ErrNotFound
	}
	if err != nil {
		return Job{}, nil, fmt.Errorf("get job: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT from_state, to_state, stage, at, duration_ms, artifact, message
         FROM job_events WHERE job_id = ? ORDER BY id`, id)
	if err != nil {
		return Job{}, nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			from, stage, artifact, message, at sql.NullString
			to                                 string
			durationMS                         int64
		)
		if err := rows.Scan(&from, &to, &stage, &at, &durationMS, &artifact, &message); err != nil {
			return Job{}, nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, Event{
			From:     pipeline.State(from.String),
			To:       pipeline.State(to),
			Stage:    pipeline.Stage(stage.String),
			At:       parseTime(at),
			Duration: time.Duration(durationMS) * time.Millisecond,
			Artifact: artifact.String,
			Message:  message.String,
		})
	}
	return job, events, rows.Err()
}

// Stats counts jobs per state.
func (s *Store) Stats(ctx context.Context) (map[pipeline.State]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(1) FROM jobs GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("ledger stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[pipeline.State]int)
	for rows.Next() {
		var state pipeline.State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		stats[state] = count
	}
	return stats, rows.Err()
}

// Prune deletes jobs created before cutoff along with their events.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	stamp := formatTime(cutoff)
	err := retryOnBusy(ctx, func() error {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM job_events WHERE job_id IN (SELECT id FROM jobs WHERE created_at < ?)`, stamp); err != nil {
			return err
		}
		res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE created_at < ?`, stamp)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return removed, nil
}

// Observer adapts the store to pipeline transitions. Write failures are
// logged and never fail the job.
func (s *Store) Observer(logger *slog.Logger) pipeline.Observer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return pipeline.ObserverFunc(func(ctx context.Context, t pipeline.Transition) {
		if err := s.Record(context.WithoutCancel(ctx), t); err != nil {
			logging.WarnWithContext(logger, "ledger write failed", "ledger_write_failed",
				logging.JobID(t.JobID),
				logging.String("state", string(t.To)),
				logging.String(logging.FieldImpact, "job history incomplete"),
				logging.Error(err),
			)
		}
	})
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (Job, error) {
	var (
		job                                                      Job
		state                                                    string
		failedStage, message, sourceText, targetText, outputPath sql.NullString
		createdRaw, updatedRaw                                   sql.NullString
		elapsedMS                                                int64
	)
	if err := scanner.Scan(
		&job.ID,
		&job.SourceURL,
		&state,
		&failedStage,
		&message,
		&sourceText,
		&targetText,
		&outputPath,
		&elapsedMS,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return Job{}, err
	}
	job.State = pipeline.State(state)
	job.FailedStage = pipeline.Stage(failedStage.String)
	job.Message = message.String
	job.SourceText = sourceText.String
	job.TargetText = targetText.String
	job.OutputPath = outputPath.String
	job.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	job.CreatedAt = parseTime(createdRaw)
	job.UpdatedAt = parseTime(updatedRaw)
	return job, nil
}
