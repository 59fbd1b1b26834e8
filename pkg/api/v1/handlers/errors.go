// Package handlers provides HTTP request handling
package handlers

// Common error messages
const (
	ErrMsgInvalidReqFormat = "Invalid request format"
	ErrMsgInvalidReqBody   = "Invalid request body"
)

// Job error messages
const (
	ErrMsgInvalidJobID     = "Invalid job id"
	ErrMsgJobIDRequired    = "Job id is required"
	ErrMsgJobNotFound      = "Job not found"
	ErrMsgJobStatusInvalid = "Invalid job status"
	ErrMsgJobSubmitFailed  = "Failed to submit job"
	ErrMsgJobListFailed    = "Failed to list jobs"
	ErrMsgJobGetFailed     = "Failed to get job"
	ErrMsgJobCancelFailed  = "Failed to cancel job"
)

// File error messages
const (
	ErrMsgFileListFailed = "Failed to list output files"
)

// Pagination error messages
const (
	ErrMsgNegativePagination = "Page must be a positive number from 1"
)
