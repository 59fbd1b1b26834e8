// Package services provides business logic for job operations, sitting
// between the HTTP handlers and the registry plus the acquisition engine.
package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jungho-shin/data-migration-study/config"
	"github.com/jungho-shin/data-migration-study/internal/db/models"
	"github.com/jungho-shin/data-migration-study/internal/db/repos"
	"github.com/jungho-shin/data-migration-study/internal/logger"
	"github.com/jungho-shin/data-migration-study/internal/types"
)

// Scheduler is the execution surface the job service drives. The
// collector manager implements it.
type Scheduler interface {
	Enqueue(jobID string) error
	Cancel(ctx context.Context, jobID string) error
	ActiveCount() int
}

// Job provides business logic for job operations
type Job struct {
	jobRepo   *repos.JobRepository
	scheduler Scheduler
	cfg       *config.Collector
}

// NewJobService creates a new job service instance
func NewJobService(jobRepo *repos.JobRepository, scheduler Scheduler, cfg *config.Collector) *Job {
	return &Job{jobRepo: jobRepo, scheduler: scheduler, cfg: cfg}
}

// SubmitJob validates the request, registers a pending job and hands it
// to the scheduler. If the queue is full the job is finalized as failed
// immediately, so no pending record lingers that nobody will pick up.
func (s *Job) SubmitJob(ctx context.Context, req *types.SubmitJobRequest) (*models.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	kind, err := req.Kind()
	if err != nil {
		return nil, err
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = s.cfg.OutputDir
	}

	job := &models.Job{
		ID:         uuid.New().String(),
		Dataset:    kind,
		StartYear:  req.StartYear,
		StartMonth: req.StartMonth,
		EndYear:    req.EndYear,
		EndMonth:   req.EndMonth,
		MaxBytes:   req.MaxBytes,
		MaxFiles:   req.MaxFiles,
		OutputDir:  outputDir,
		Status:     models.JobStatusPending,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	if err := s.scheduler.Enqueue(job.ID); err != nil {
		now := time.Now().UTC()
		if _, terr := s.jobRepo.TransitionStatus(ctx, job.ID, models.JobStatusPending, models.JobStatusFailed,
			map[string]interface{}{"finished_at": now, "error": err.Error()}); terr != nil {
			logger.Errorf("Failed to finalize unschedulable job %s: %v", job.ID, terr)
		}
		return nil, fmt.Errorf("failed to schedule job: %w", err)
	}

	logger.InfoWithFields("Job submitted", map[string]interface{}{
		"job_id":  job.ID,
		"dataset": job.Dataset.String(),
		"range":   job.Range().String(),
	})
	return job, nil
}

// GetJob retrieves a job by its ID
func (s *Job) GetJob(ctx context.Context, id string) (*models.Job, error) {
	return s.jobRepo.GetByID(ctx, id)
}

// ListJobs retrieves a page of jobs, newest first, along with the total
// count for the same filter
func (s *Job) ListJobs(ctx context.Context, opts *models.ListOptions) ([]models.Job, int64, error) {
	jobs, err := s.jobRepo.List(ctx, opts)
	if err != nil {
		return nil, 0, err
	}

	var status *models.JobStatus
	if opts != nil {
		status = opts.Status
	}
	total, err := s.jobRepo.Count(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// CancelOrDeleteJob cancels a job that is still in flight, or removes the
// record of one that already finished. The returned flag reports whether
// the record was deleted.
func (s *Job) CancelOrDeleteJob(ctx context.Context, id string) (bool, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	if job.Status.Terminal() {
		if err := s.jobRepo.Delete(ctx, id); err != nil {
			return false, err
		}
		logger.Infof("Deleted finished job %s", id)
		return true, nil
	}

	return false, s.scheduler.Cancel(ctx, id)
}

// ListOutputFiles returns the canonical CSV files under dir, sorted by
// name. An empty dir falls back to the configured output directory; a
// directory that does not exist yet simply yields no files.
func (s *Job) ListOutputFiles(dir string) ([]types.FileInfo, error) {
	if dir == "" {
		dir = s.cfg.OutputDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.FileInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read output directory %s: %w", dir, err)
	}

	files := make([]types.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		files = append(files, types.FileInfo{
			Name:       entry.Name(),
			Path:       filepath.Join(dir, entry.Name()),
			Size:       info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	return files, nil
}

// ActiveJobs returns how many jobs are currently being executed
func (s *Job) ActiveJobs() int {
	return s.scheduler.ActiveCount()
}
