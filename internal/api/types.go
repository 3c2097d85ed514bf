package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// TranslateRequest is the inbound dubbing request.
type TranslateRequest struct {
	URL string `json:"url"`
}

// TranslateResponse is returned when every stage succeeded.
type TranslateResponse struct {
	Success     bool   `json:"success"`
	JobID       string `json:"job_id"`
	SourceText  string `json:"source_text"`
	TargetText  string `json:"target_text"`
	DownloadURL string `json:"download_url"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Voice describes a selectable synthesis voice.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// VoiceListResponse wraps the voices available for the target language.
type VoiceListResponse struct {
	Voices []Voice `json:"voices"`
}

// Job describes a ledger entry in a transport-friendly format.
type Job struct {
	ID          string `json:"job_id"`
	SourceURL   string `json:"source_url"`
	State       string `json:"state"`
	FailedStage string `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`
	SourceText  string `json:"source_text,omitempty"`
	TargetText  string `json:"target_text,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	ElapsedMS   int64  `json:"elapsed_ms"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// JobEvent is one recorded state transition.
type JobEvent struct {
	From       string `json:"from,omitempty"`
	To         string `json:"to"`
	Stage      string `json:"stage,omitempty"`
	At         string `json:"at"`
	DurationMS int64  `json:"duration_ms"`
	Artifact   string `json:"artifact,omitempty"`
	Message    string `json:"message,omitempty"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs  []Job          `json:"jobs"`
	Stats map[string]int `json:"stats,omitempty"`
}

// JobDetailResponse wraps a single job and its transitions.
type JobDetailResponse struct {
	Job    Job        `json:"job"`
	Events []JobEvent `json:"events"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// HealthStatus aggregates readiness for API consumers.
type HealthStatus struct {
	Status         string             `json:"status"`
	PID            int                `json:"pid"`
	SourceLanguage string             `json:"source_language"`
	TargetLanguage string             `json:"target_language"`
	LedgerPath     string             `json:"ledger_path,omitempty"`
	Stages         []StageHealth      `json:"stages"`
	Dependencies   []DependencyStatus `json:"dependencies"`
}
