package models

// NOTE: This package uses type aliases to internal definitions
// as a temporary measure. This should be revisited
// during a proper refactoring to define stable public types.

import (
	internalmodels "github.com/jungho-shin/data-migration-study/internal/db/models"
)

// Job represents a dataset acquisition job record
type Job = internalmodels.Job

// JobStatus represents the current state of an acquisition job
type JobStatus = internalmodels.JobStatus

const (
	// JobStatusPending indicates the job is queued and waiting for a worker
	JobStatusPending JobStatus = internalmodels.JobStatusPending
	// JobStatusRunning indicates the job is currently fetching periods
	JobStatusRunning JobStatus = internalmodels.JobStatusRunning
	// JobStatusCompleted indicates the job finished, by exhausting its
	// period range or by reaching its budget
	JobStatusCompleted JobStatus = internalmodels.JobStatusCompleted
	// JobStatusFailed indicates the job was aborted by a fatal error
	JobStatusFailed JobStatus = internalmodels.JobStatusFailed
	// JobStatusCancelled indicates the job was stopped on request
	JobStatusCancelled JobStatus = internalmodels.JobStatusCancelled
)

// ParseJobStatus converts a string into a JobStatus
var ParseJobStatus = internalmodels.ParseJobStatus

// FileOutcome represents the outcome of one period within a job
type FileOutcome = internalmodels.FileOutcome

const (
	// OutcomeSkippedExisting indicates a non-empty canonical file was
	// already on disk, so no network call was made
	OutcomeSkippedExisting FileOutcome = internalmodels.OutcomeSkippedExisting
	// OutcomeDownloaded indicates the period's file was fetched and written
	OutcomeDownloaded FileOutcome = internalmodels.OutcomeDownloaded
	// OutcomeNotFound indicates the provider does not publish this period
	OutcomeNotFound FileOutcome = internalmodels.OutcomeNotFound
	// OutcomeFailed indicates retries were exhausted or conversion failed
	OutcomeFailed FileOutcome = internalmodels.OutcomeFailed
)

// FileResult represents the recorded outcome of one period within a job
type FileResult = internalmodels.FileResult

// FileResults is the JSON-backed collection of per-period outcomes
type FileResults = internalmodels.FileResults

// ListOptions represents pagination and filtering options for list operations
type ListOptions = internalmodels.ListOptions

// NOTE: Constants like DefaultLimit are not aliased here,
// as they are often specific to internal usage (like DB batching)
// or defined contextually (like page size in handlers).
