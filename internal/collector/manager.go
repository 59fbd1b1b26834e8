package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jungho-shin/data-migration-study/internal/db/models"
	"github.com/jungho-shin/data-migration-study/internal/db/repos"
	"github.com/jungho-shin/data-migration-study/internal/logger"
)

// Manager defaults
const (
	// DefaultWorkers is the number of jobs allowed to run concurrently
	DefaultWorkers = 2
	// DefaultQueueCapacity bounds how many submitted jobs may wait for a
	// worker before submissions are rejected
	DefaultQueueCapacity = 256
	// DefaultCourtesyDelay is the pause between consecutive requests to
	// the provider within one job
	DefaultCourtesyDelay = 1 * time.Second
)

// ErrQueueFull is returned by Enqueue when the submission queue is at
// capacity.
var ErrQueueFull = errors.New("job queue is full")

// ManagerOptions configures a Manager. Zero values fall back to the
// defaults above.
type ManagerOptions struct {
	Workers       int
	QueueCapacity int
	CourtesyDelay time.Duration
}

// Manager runs acquisition jobs as supervised background tasks. A FIFO
// queue feeds a fixed pool of workers, each driving one job at a time
// through its period loop. All status changes go through compare-and-set
// updates, so the forward-only lifecycle holds even when a cancel races a
// worker picking the same job up.
type Manager struct {
	repo    *repos.JobRepository
	fetcher *Fetcher
	opts    ManagerOptions

	queue chan string

	mu      sync.Mutex
	running map[string]context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a Manager over the given registry and fetcher
func NewManager(repo *repos.JobRepository, fetcher *Fetcher, opts ManagerOptions) *Manager {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}
	if opts.CourtesyDelay <= 0 {
		opts.CourtesyDelay = DefaultCourtesyDelay
	}
	return &Manager{
		repo:    repo,
		fetcher: fetcher,
		opts:    opts,
		queue:   make(chan string, opts.QueueCapacity),
		running: make(map[string]context.CancelFunc),
	}
}

// Start recovers jobs left over from a previous process and launches the
// worker pool. Jobs found running are finalized as failed, they were
// interrupted mid-flight; pending jobs are re-queued in submission order.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.recoverJobs(); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	for i := 0; i < m.opts.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
	logger.Infof("Job manager started with %d worker(s)", m.opts.Workers)
	return nil
}

// Stop signals the workers to shut down and waits up to timeout for
// in-flight work to wind down. Jobs still running at that point stay
// running in the registry and are recovered on the next start.
func (m *Manager) Stop(timeout time.Duration) error {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Job manager stopped")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("job manager did not stop within %s", timeout)
	}
}

// Enqueue adds a pending job to the FIFO queue without blocking
func (m *Manager) Enqueue(jobID string) error {
	select {
	case m.queue <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

// ActiveCount returns the number of jobs currently held by a worker
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.running)
}

// Cancel requests cancellation of a job. A running job stops at its next
// period boundary; a pending job is finalized as cancelled on the spot.
// Cancelling a job that already reached a terminal status is a no-op.
func (m *Manager) Cancel(ctx context.Context, jobID string) error {
	// Two passes: a worker may move the job from pending to running
	// between the map lookup and the status update. Workers register
	// their cancel func before that transition, so whenever the update
	// loses the race the second lookup finds the func.
	for attempt := 0; attempt < 2; attempt++ {
		m.mu.Lock()
		cancelRun, isRunning := m.running[jobID]
		m.mu.Unlock()
		if isRunning {
			cancelRun()
			logger.Infof("Cancellation requested for job %s", jobID)
			return nil
		}

		job, err := m.repo.GetByID(ctx, jobID)
		if err != nil {
			return err
		}
		if job.Status.Terminal() {
			return nil
		}

		ok, err := m.repo.TransitionStatus(ctx, jobID, models.JobStatusPending, models.JobStatusCancelled,
			map[string]interface{}{"finished_at": time.Now().UTC()})
		if err != nil {
			return err
		}
		if ok {
			logger.Infof("Cancelled pending job %s", jobID)
			return nil
		}
	}
	return nil
}

// recoverJobs reconciles the registry with reality after a restart
func (m *Manager) recoverJobs() error {
	interrupted, err := m.repo.ListByStatus(m.ctx, models.JobStatusRunning)
	if err != nil {
		return err
	}
	for i := range interrupted {
		m.finalize(&interrupted[i], models.JobStatusFailed, "interrupted by restart")
	}

	pending, err := m.repo.ListByStatus(m.ctx, models.JobStatusPending)
	if err != nil {
		return err
	}
	for i := range pending {
		if err := m.Enqueue(pending[i].ID); err != nil {
			logger.Warnf("Could not re-queue pending job %s: %v", pending[i].ID, err)
		}
	}

	if len(interrupted) > 0 || len(pending) > 0 {
		logger.Infof("Recovery: failed %d interrupted job(s), re-queued %d pending job(s)",
			len(interrupted), len(pending))
	}
	return nil
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()
	logger.Debugf("Worker %d started", id)
	for {
		select {
		case <-m.ctx.Done():
			logger.Debugf("Worker %d stopping", id)
			return
		case jobID := <-m.queue:
			m.runJob(jobID)
		}
	}
}

// runJob claims one dequeued job. The cancel func is registered before
// the pending to running transition, so a cancellation always reaches the
// job through exactly one of the two paths in Cancel.
func (m *Manager) runJob(jobID string) {
	jobCtx, cancelJob := context.WithCancel(m.ctx)
	m.mu.Lock()
	m.running[jobID] = cancelJob
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.running, jobID)
		m.mu.Unlock()
		cancelJob()
	}()

	job, err := m.repo.GetByID(m.ctx, jobID)
	if err != nil {
		logger.Errorf("Worker could not load job %s: %v", jobID, err)
		return
	}
	if job.Status != models.JobStatusPending {
		// Cancelled or otherwise finalized while waiting in the queue.
		logger.Debugf("Skipping queued job %s in status %s", jobID, job.Status)
		return
	}

	m.run(jobCtx, job)
}

// run drives one job through its period loop. Cancellation is
// cooperative: jobCtx is polled at period boundaries and interrupts the
// courtesy wait, but never an in-flight fetch; a download runs to its own
// completion or failure. Only engine shutdown (m.ctx) aborts transfers,
// leaving the job to be recovered as interrupted on the next start.
func (m *Manager) run(jobCtx context.Context, job *models.Job) {
	if ok := m.markRunning(job); !ok {
		return
	}

	logger.InfoWithFields("Job started", map[string]interface{}{
		"job_id":  job.ID,
		"dataset": job.Dataset.String(),
		"range":   job.Range().String(),
	})

	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		m.finalize(job, models.JobStatusFailed, fmt.Sprintf("failed to create output directory: %v", err))
		return
	}

	periods, err := job.Range().Periods()
	if err != nil {
		// The range was validated at submission; reaching this means the
		// stored record was edited behind the engine's back.
		m.finalize(job, models.JobStatusFailed, err.Error())
		return
	}

	tracker := newBudget(job.MaxBytes, job.MaxFiles)
	limiter := rate.NewLimiter(rate.Every(m.opts.CourtesyDelay), 1)

	for _, period := range periods {
		if m.ctx.Err() != nil {
			logger.Warnf("Shutdown while job %s is running, leaving it for recovery", job.ID)
			return
		}
		if jobCtx.Err() != nil {
			m.finalize(job, models.JobStatusCancelled, "")
			return
		}
		if !tracker.mayProceed() {
			logger.InfoWithFields("Budget reached", map[string]interface{}{
				"job_id": job.ID,
				"bytes":  tracker.bytes,
				"files":  tracker.files,
			})
			m.finalize(job, models.JobStatusCompleted, "")
			return
		}

		// Courtesy pause toward the provider. The limiter starts with a
		// full token, so the first period never waits; a cancellation
		// arriving during the wait stops the job before the next fetch.
		if err := limiter.Wait(jobCtx); err != nil {
			if m.ctx.Err() != nil {
				return
			}
			m.finalize(job, models.JobStatusCancelled, "")
			return
		}

		result, fetchErr := m.fetcher.Fetch(m.ctx, job.Dataset, period, job.OutputDir)
		if fetchErr == nil && result.Outcome == models.OutcomeDownloaded {
			result = normalizeDownload(result)
		}

		switch result.Outcome {
		case models.OutcomeDownloaded, models.OutcomeSkippedExisting:
			tracker.record(result.Size)
		}

		job.AppendResult(result)
		if err := m.repo.Update(m.ctx, job); err != nil {
			logger.Errorf("Failed to persist progress for job %s: %v", job.ID, err)
		}

		if fetchErr != nil {
			// Local filesystem failure; every later period would hit the
			// same wall.
			m.finalize(job, models.JobStatusFailed, fetchErr.Error())
			return
		}
	}

	m.finalize(job, models.JobStatusCompleted, "")
}

// markRunning claims the job for this worker, returning false when
// another actor finalized it first
func (m *Manager) markRunning(job *models.Job) bool {
	now := time.Now().UTC()
	ok, err := m.repo.TransitionStatus(m.ctx, job.ID, models.JobStatusPending, models.JobStatusRunning,
		map[string]interface{}{"started_at": now})
	if err != nil {
		logger.Errorf("Failed to mark job %s running: %v", job.ID, err)
		return false
	}
	if !ok {
		logger.Debugf("Job %s was finalized before it could start", job.ID)
		return false
	}
	job.Status = models.JobStatusRunning
	job.StartedAt = &now
	return true
}

// finalize moves the job to a terminal status. A lost transition means
// someone else finalized first; their result stands.
func (m *Manager) finalize(job *models.Job, status models.JobStatus, errMsg string) {
	now := time.Now().UTC()
	ok, err := m.repo.TransitionStatus(m.ctx, job.ID, job.Status, status, map[string]interface{}{
		"finished_at": now,
		"error":       errMsg,
	})
	if err != nil {
		logger.Errorf("Failed to finalize job %s as %s: %v", job.ID, status, err)
		return
	}
	if !ok {
		logger.Debugf("Job %s already left status %s, not finalizing as %s", job.ID, job.Status, status)
		return
	}
	job.Status = status
	job.FinishedAt = &now
	job.Error = errMsg

	logger.InfoWithFields("Job finalized", map[string]interface{}{
		"job_id":      job.ID,
		"status":      status.String(),
		"files":       job.FileCount,
		"total_bytes": job.TotalBytes,
	})
}
