// Package repos provides database access for job records.
package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jungho-shin/data-migration-study/internal/db/models"
)

// JobRepository provides access to job-related database operations
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create creates a new job in the database
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// Update persists the current state of an existing job
func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Save(job).Error; err != nil {
		return fmt.Errorf("failed to update job %s: %w", job.ID, err)
	}
	return nil
}

// GetByID retrieves a job by its ID
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).Where(&models.Job{ID: id}).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job %s not found: %w", id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// List returns jobs newest first, optionally filtered by status
func (r *JobRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.Job, error) {
	if opts == nil {
		opts = &models.ListOptions{Limit: models.DefaultLimit}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = models.DefaultLimit
	}

	qry := &models.Job{}
	if opts.Status != nil {
		qry.Status = *opts.Status
	}

	var jobs []models.Job
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where(qry).
		Limit(limit).Offset(opts.Offset).
		Order(models.JobCreatedAtField + " DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// ListByStatus returns all jobs with the given status, oldest first. Used
// at startup to re-queue pending jobs in submission order and to finalize
// jobs interrupted mid-run.
func (r *JobRepository) ListByStatus(ctx context.Context, status models.JobStatus) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.WithContext(ctx).
		Where(&models.Job{Status: status}).
		Order(models.JobCreatedAtField + " ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s jobs: %w", status, err)
	}
	return jobs, nil
}

// TransitionStatus atomically moves a job from one status to another,
// together with any extra column updates. It returns false when the job
// was no longer in the expected status, which keeps the forward-only
// lifecycle safe against concurrent cancel and start attempts.
func (r *JobRepository) TransitionStatus(ctx context.Context, id string, from, to models.JobStatus, updates map[string]interface{}) (bool, error) {
	if !from.CanTransition(to) {
		return false, fmt.Errorf("invalid job status transition: %s -> %s", from, to)
	}

	values := map[string]interface{}{models.JobStatusColumn: to}
	for k, v := range updates {
		values[k] = v
	}

	result := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition job %s to %s: %w", id, to, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Count returns the number of jobs, optionally filtered by status
func (r *JobRepository) Count(ctx context.Context, status *models.JobStatus) (int64, error) {
	qry := &models.Job{}
	if status != nil {
		qry.Status = *status
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Job{}).Where(qry).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

// Delete removes a job record
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Job{ID: id})
	if result.Error != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job %s not found: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}
