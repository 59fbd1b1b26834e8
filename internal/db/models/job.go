package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jungho-shin/data-migration-study/internal/datasets"
)

// Field names for job model
const (
	// JobIDColumn is the field name for the job identifier
	JobIDColumn = "id"
	// JobStatusColumn is the field name for job status
	JobStatusColumn = "status"
	// JobCreatedAtField is the field name for the job creation timestamp
	JobCreatedAtField = "created_at"
)

// JobStatus represents the current state of an acquisition job
type JobStatus string

// Job status constants
const (
	// JobStatusPending indicates the job is queued and waiting for a worker
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently fetching periods
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job finished, by exhausting its
	// period range or by reaching its budget
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job was aborted by a fatal error
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled indicates the job was stopped on request
	JobStatusCancelled JobStatus = "cancelled"
)

// String returns the string representation of the job status
func (s JobStatus) String() string {
	return string(s)
}

// Valid reports whether s is a known job status
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether s is a final status with no further transitions
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next respects the
// forward-only lifecycle pending -> running -> {completed, failed, cancelled}.
// A pending job may also finalize directly, e.g. cancelled before a worker
// picks it up.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusRunning || next.Terminal()
	case JobStatusRunning:
		return next.Terminal()
	default:
		return false
	}
}

// ParseJobStatus converts a string to a JobStatus type
func ParseJobStatus(str string) (JobStatus, error) {
	s := JobStatus(str)
	if !s.Valid() {
		return "", fmt.Errorf("invalid job status: %s", str)
	}
	return s, nil
}

// FileOutcome represents the outcome of one period within a job
type FileOutcome string

// File outcome constants
const (
	// OutcomeSkippedExisting indicates a non-empty canonical file was
	// already on disk, so no network call was made
	OutcomeSkippedExisting FileOutcome = "skipped_existing"
	// OutcomeDownloaded indicates the period's file was fetched and written
	OutcomeDownloaded FileOutcome = "downloaded"
	// OutcomeNotFound indicates the provider does not publish this period
	OutcomeNotFound FileOutcome = "not_found"
	// OutcomeFailed indicates retries were exhausted or conversion failed
	OutcomeFailed FileOutcome = "failed"
)

// String returns the string representation of the file outcome
func (o FileOutcome) String() string {
	return string(o)
}

// FileResult is the recorded outcome of one period within a job
type FileResult struct {
	Period       datasets.Period       `json:"period"`
	RemoteURL    string                `json:"remote_url"`
	LocalPath    string                `json:"local_path,omitempty"`
	Size         int64                 `json:"size"`
	SourceFormat datasets.SourceFormat `json:"source_format"`
	Converted    bool                  `json:"converted"`
	Outcome      FileOutcome           `json:"outcome"`
	Error        string                `json:"error,omitempty"`
}

// FileResults is the ordered list of per-period outcomes, stored as JSONB
type FileResults []FileResult

// Value implements the driver.Valuer interface
func (fr FileResults) Value() (driver.Value, error) {
	if fr == nil {
		return nil, nil
	}
	return json.Marshal(fr)
}

// Scan implements the sql.Scanner interface
func (fr *FileResults) Scan(value interface{}) error {
	if value == nil {
		*fr = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}

	var results []FileResult
	if err := json.Unmarshal(bytes, &results); err != nil {
		return fmt.Errorf("failed to unmarshal file results: %w", err)
	}
	*fr = results
	return nil
}

// Job represents one dataset acquisition request and its progress.
// Results grow in period order while the job runs; TotalBytes sums the
// sizes of downloaded results, and FileCount counts the results that
// occupy budgeted space on disk (downloaded and skipped-existing).
type Job struct {
	ID         string        `json:"id" gorm:"primaryKey"`
	Dataset    datasets.Kind `json:"dataset" gorm:"not null;index"`
	StartYear  int           `json:"start_year" gorm:"not null"`
	StartMonth int           `json:"start_month" gorm:"not null"`
	EndYear    int           `json:"end_year" gorm:"not null"`
	EndMonth   int           `json:"end_month" gorm:"not null"`
	MaxBytes   int64         `json:"max_bytes,omitempty"`
	MaxFiles   int           `json:"max_files,omitempty"`
	OutputDir  string        `json:"output_dir" gorm:"type:text;not null"`
	Status     JobStatus     `json:"status" gorm:"not null;index"`
	Results    FileResults   `json:"results" gorm:"type:jsonb"`
	TotalBytes int64         `json:"total_bytes"`
	FileCount  int           `json:"file_count"`
	Error      string        `json:"error,omitempty" gorm:"type:text"`
	CreatedAt  time.Time     `json:"created_at" gorm:"index"`
	UpdatedAt  time.Time     `json:"updated_at"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// Range returns the job's inclusive period range
func (j *Job) Range() datasets.Range {
	return datasets.Range{
		Start: datasets.Period{Year: j.StartYear, Month: j.StartMonth},
		End:   datasets.Period{Year: j.EndYear, Month: j.EndMonth},
	}
}

// AppendResult records the outcome of one period and refreshes the derived
// aggregates
func (j *Job) AppendResult(r FileResult) {
	j.Results = append(j.Results, r)
	switch r.Outcome {
	case OutcomeDownloaded:
		j.TotalBytes += r.Size
		j.FileCount++
	case OutcomeSkippedExisting:
		j.FileCount++
	}
}

// Validate ensures that the job data is valid
func (j *Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id cannot be empty")
	}
	if !j.Dataset.Valid() {
		return fmt.Errorf("invalid dataset kind: %q", j.Dataset)
	}
	if err := j.Range().Validate(); err != nil {
		return err
	}
	if j.MaxBytes < 0 {
		return fmt.Errorf("max_bytes cannot be negative")
	}
	if j.MaxFiles < 0 {
		return fmt.Errorf("max_files cannot be negative")
	}
	if j.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if !j.Status.Valid() {
		return fmt.Errorf("invalid job status: %q", j.Status)
	}
	return nil
}

// BeforeCreate is a GORM hook that runs before creating a new job
func (j *Job) BeforeCreate(_ *gorm.DB) error {
	if j.Status == "" {
		j.Status = JobStatusPending
	}
	return j.Validate()
}
