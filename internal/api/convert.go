package api

import (
	"time"

	"shortsdub/internal/deps"
	"shortsdub/internal/ledger"
	"shortsdub/internal/pipeline"
	"shortsdub/internal/stage"
)

// FromLedgerJob converts a ledger record to its API representation.
func FromLedgerJob(job ledger.Job) Job {
	dto := Job{
		ID:          job.ID,
		SourceURL:   job.SourceURL,
		State:       string(job.State),
		FailedStage: string(job.FailedStage),
		Error:       job.Message,
		SourceText:  job.SourceText,
		TargetText:  job.TargetText,
		ElapsedMS:   job.Elapsed.Milliseconds(),
		CreatedAt:   formatTime(job.CreatedAt),
		UpdatedAt:   formatTime(job.UpdatedAt),
	}
	if job.State == pipeline.StateDone && job.OutputPath != "" {
		dto.DownloadURL = DownloadURL(job.ID)
	}
	return dto
}

// FromLedgerJobs converts a slice of ledger records.
func FromLedgerJobs(jobs []ledger.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromLedgerJob(job))
	}
	return out
}

// FromLedgerEvents converts recorded transitions.
func FromLedgerEvents(events []ledger.Event) []JobEvent {
	out := make([]JobEvent, 0, len(events))
	for _, evt := range events {
		out = append(out, JobEvent{
			From:       string(evt.From),
			To:         string(evt.To),
			Stage:      string(evt.Stage),
			At:         formatTime(evt.At),
			DurationMS: evt.Duration.Milliseconds(),
			Artifact:   evt.Artifact,
			Message:    evt.Message,
		})
	}
	return out
}

// FromDependencies converts binary probe results.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

// FromStageHealth keeps the pipeline's stage order.
func FromStageHealth(health []stage.Health) []StageHealth {
	out := make([]StageHealth, len(health))
	for i, h := range health {
		out[i] = StageHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail}
	}
	return out
}

// MergeStats keys ledger counts by state name, including zero entries for
// every terminal state.
func MergeStats(stats map[pipeline.State]int) map[string]int {
	out := map[string]int{
		string(pipeline.StateDone):   0,
		string(pipeline.StateFailed): 0,
	}
	for state, count := range stats {
		out[string(state)] = count
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
