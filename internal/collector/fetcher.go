package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jungho-shin/data-migration-study/internal/datasets"
	"github.com/jungho-shin/data-migration-study/internal/db/models"
	"github.com/jungho-shin/data-migration-study/internal/logger"
)

// Retry policy toward the provider
const (
	// DefaultAttempts is the total number of tries per file, the first
	// attempt plus the retries
	DefaultAttempts = 3
	// DefaultInitialBackoff is the wait before the first retry; it doubles
	// on each subsequent retry up to maxBackoff
	DefaultInitialBackoff = 1 * time.Second

	maxBackoff = 30 * time.Second
)

// partSuffix marks in-progress writes. Files appear under their canonical
// name only through a rename after a complete write, so a crashed or
// failed transfer never leaves a partial file that a later run would
// mistake for a finished one.
const partSuffix = ".part"

// errRemoteNotFound marks a 404 from the provider. The period is simply
// not published, so the fetch is not retried.
var errRemoteNotFound = errors.New("remote file not found")

// errFilesystem marks a local write failure. Unlike a flaky network
// response it will not heal on retry and poisons every later period, so
// the caller aborts the whole job.
var errFilesystem = errors.New("filesystem error")

// Fetcher downloads one period's file at a time: idempotent skip of
// already acquired files, bounded retries with exponential backoff, and
// atomic writes through a temporary sibling.
type Fetcher struct {
	baseURL        string
	client         *http.Client
	attempts       int
	initialBackoff time.Duration
}

// FetcherOptions configures a Fetcher. Zero values fall back to the
// defaults above.
type FetcherOptions struct {
	// BaseURL is the provider root, defaulting to the public CloudFront
	// distribution
	BaseURL string
	// Client is the HTTP client used for downloads. The default has no
	// overall timeout; monthly files run to gigabytes and transfers are
	// bounded by context cancellation instead.
	Client *http.Client
	// Attempts is the total number of tries per file
	Attempts int
	// InitialBackoff is the wait before the first retry
	InitialBackoff time.Duration
}

// NewFetcher creates a Fetcher with the given options
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = datasets.DefaultBaseURL
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}
	return &Fetcher{
		baseURL:        opts.BaseURL,
		client:         opts.Client,
		attempts:       opts.Attempts,
		initialBackoff: opts.InitialBackoff,
	}
}

// Fetch acquires one period's file into outputDir. When the canonical CSV
// is already present and non-empty the provider is not contacted at all.
// Parquet-era periods are downloaded under their remote name; converting
// them to the canonical CSV is the caller's next step.
//
// Per-period problems, a missing remote file or exhausted retries, are
// folded into the result's outcome so the caller can move on to the next
// period. The returned error is non-nil only for local filesystem
// failures, which are fatal to the whole job.
func (f *Fetcher) Fetch(ctx context.Context, kind datasets.Kind, period datasets.Period, outputDir string) (models.FileResult, error) {
	result := models.FileResult{
		Period:       period,
		RemoteURL:    datasets.URL(f.baseURL, kind, period),
		SourceFormat: datasets.FormatFor(period),
	}

	canonicalPath := filepath.Join(outputDir, datasets.FileName(kind, period))
	if info, err := os.Stat(canonicalPath); err == nil && info.Size() > 0 {
		logger.DebugWithFields("Skipping existing file", map[string]interface{}{
			"path": canonicalPath,
			"size": info.Size(),
		})
		result.Outcome = models.OutcomeSkippedExisting
		result.LocalPath = canonicalPath
		result.Size = info.Size()
		return result, nil
	}

	downloadPath := canonicalPath
	if result.SourceFormat == datasets.FormatParquet {
		downloadPath = filepath.Join(outputDir, datasets.RemoteFileName(kind, period))
	}

	size, err := f.download(ctx, result.RemoteURL, downloadPath)
	if err != nil {
		result.Error = err.Error()
		result.Outcome = models.OutcomeFailed
		switch {
		case errors.Is(err, errRemoteNotFound):
			result.Outcome = models.OutcomeNotFound
			return result, nil
		case errors.Is(err, errFilesystem):
			return result, err
		default:
			return result, nil
		}
	}

	result.Outcome = models.OutcomeDownloaded
	result.LocalPath = downloadPath
	result.Size = size
	return result, nil
}

// download streams the remote file to path, retrying transient failures
// with exponential backoff. Missing remote files and local write failures
// are terminal and returned immediately.
func (f *Fetcher) download(ctx context.Context, remoteURL, path string) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		if attempt > 1 {
			backoff := f.initialBackoff * time.Duration(1<<(attempt-2))
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			logger.DebugWithFields("Retrying download", map[string]interface{}{
				"url":     remoteURL,
				"attempt": attempt,
				"backoff": backoff.String(),
			})
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(backoff):
			}
		}

		size, err := f.tryDownload(ctx, remoteURL, path)
		if err == nil {
			return size, nil
		}
		if errors.Is(err, errRemoteNotFound) || errors.Is(err, errFilesystem) {
			return 0, err
		}
		lastErr = err
		logger.WarnWithFields("Download attempt failed", map[string]interface{}{
			"url":     remoteURL,
			"attempt": attempt,
			"error":   err.Error(),
		})
		if ctx.Err() != nil {
			return 0, lastErr
		}
	}
	return 0, fmt.Errorf("download failed after %d attempts: %w", f.attempts, lastErr)
}

func (f *Fetcher) tryDownload(ctx context.Context, remoteURL, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request for %s: %w", remoteURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request to %s failed: %w", remoteURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%w: %s", errRemoteNotFound, remoteURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("unexpected status %s from %s", resp.Status, remoteURL)
	}

	return atomicWrite(path, resp.Body)
}

// atomicWrite streams r to path through a .part sibling and renames it
// into place only after the full body was written and flushed.
func atomicWrite(path string, r io.Reader) (int64, error) {
	tmpPath := path + partSuffix
	out, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create %s: %v", errFilesystem, tmpPath, err)
	}

	written, err := io.Copy(out, r)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		// The file's own write errors surface as path errors; anything
		// else is a short or broken body read, which the caller may retry.
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return 0, fmt.Errorf("%w: failed to write %s: %v", errFilesystem, tmpPath, err)
		}
		return 0, fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: failed to close %s: %v", errFilesystem, tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: failed to rename %s: %v", errFilesystem, tmpPath, err)
	}
	return written, nil
}
