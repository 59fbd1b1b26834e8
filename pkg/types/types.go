// Package types provides public types for the collector API
package types

// NOTE: This package uses type aliases to internal definitions
// as a temporary measure. This should be revisited
// during a proper refactoring to define stable public types.

import (
	internaltypes "github.com/jungho-shin/data-migration-study/internal/types"
)

// SubmitJobRequest represents a request to submit an acquisition job
type SubmitJobRequest = internaltypes.SubmitJobRequest

// PaginationResponse represents pagination metadata in list responses
type PaginationResponse = internaltypes.PaginationResponse

// FileInfo represents one acquired file in the output directory
type FileInfo = internaltypes.FileInfo

// HealthResponse represents the health check response
type HealthResponse = internaltypes.HealthResponse

// ErrorResponse represents an error response from the API
type ErrorResponse = internaltypes.ErrorResponse

// Slug identifies the kind of an API response envelope
type Slug = internaltypes.Slug

const (
	SuccessSlug      Slug = internaltypes.SuccessSlug
	ErrorSlug        Slug = internaltypes.ErrorSlug
	InvalidInputSlug Slug = internaltypes.InvalidInputSlug
	NotFoundSlug     Slug = internaltypes.NotFoundSlug
	ServerErrorSlug  Slug = internaltypes.ServerErrorSlug
)

// SlugResponse is the envelope wrapping every slug-based API response
type SlugResponse = internaltypes.SlugResponse

// NOTE: ListResponse is not aliased here. Generic type aliases need a
// newer Go release than this module targets. The API client unwraps
// list envelopes and returns plain row slices, so callers do not need
// the generic wrapper.
