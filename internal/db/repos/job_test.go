package repos

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jungho-shin/data-migration-study/internal/datasets"
	"github.com/jungho-shin/data-migration-study/internal/db/models"
)

func (s *DBRepositoryTestSuite) TestCreateJob() {
	job := s.createTestJob()
	s.NotEmpty(job.ID)

	found, err := s.jobRepo.GetByID(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(job.ID, found.ID)
	s.Equal(models.JobStatusPending, found.Status)
	s.Equal(datasets.KindYellow, found.Dataset)
}

func (s *DBRepositoryTestSuite) TestCreateJobRejectsInvalid() {
	job := &models.Job{
		ID:        "invalid-range-job",
		Dataset:   datasets.KindYellow,
		StartYear: 2023, StartMonth: 5,
		EndYear: 2023, EndMonth: 2,
		OutputDir: "data",
	}
	err := s.jobRepo.Create(s.ctx, job)
	s.Error(err)
	s.ErrorIs(err, datasets.ErrInvalidRange)
}

func (s *DBRepositoryTestSuite) TestGetJobByIDNotFound() {
	_, err := s.jobRepo.GetByID(s.ctx, "does-not-exist")
	s.Require().Error(err)
	s.True(errors.Is(err, gorm.ErrRecordNotFound))
}

func (s *DBRepositoryTestSuite) TestUpdateJobPersistsResults() {
	job := s.createTestJob()

	now := time.Now().UTC()
	job.Status = models.JobStatusRunning
	job.StartedAt = &now
	job.AppendResult(models.FileResult{
		Period:       datasets.Period{Year: 2023, Month: 1},
		RemoteURL:    "http://example.com/yellow_tripdata_2023-01.parquet",
		LocalPath:    "data/yellow_tripdata_2023-01.csv",
		Size:         512,
		SourceFormat: datasets.FormatParquet,
		Converted:    true,
		Outcome:      models.OutcomeDownloaded,
	})
	s.Require().NoError(s.jobRepo.Update(s.ctx, job))

	found, err := s.jobRepo.GetByID(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.JobStatusRunning, found.Status)
	s.NotNil(found.StartedAt)
	s.Require().Len(found.Results, 1)
	s.Equal(models.OutcomeDownloaded, found.Results[0].Outcome)
	s.Equal(int64(512), found.Results[0].Size)
	s.True(found.Results[0].Converted)
	s.Equal(int64(512), found.TotalBytes)
	s.Equal(1, found.FileCount)
}

func (s *DBRepositoryTestSuite) TestListJobsNewestFirst() {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	oldest := s.createTestJobAt(models.JobStatusCompleted, base)
	middle := s.createTestJobAt(models.JobStatusPending, base.Add(time.Minute))
	newest := s.createTestJobAt(models.JobStatusRunning, base.Add(2*time.Minute))

	jobs, err := s.jobRepo.List(s.ctx, &models.ListOptions{Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(jobs, 3)
	s.Equal(newest.ID, jobs[0].ID)
	s.Equal(middle.ID, jobs[1].ID)
	s.Equal(oldest.ID, jobs[2].ID)
}

func (s *DBRepositoryTestSuite) TestListJobsPagination() {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.createTestJobAt(models.JobStatusPending, base.Add(time.Duration(i)*time.Minute))
	}

	page, err := s.jobRepo.List(s.ctx, &models.ListOptions{Limit: 2, Offset: 2})
	s.Require().NoError(err)
	s.Len(page, 2)

	rest, err := s.jobRepo.List(s.ctx, &models.ListOptions{Limit: 10, Offset: 4})
	s.Require().NoError(err)
	s.Len(rest, 1)
}

func (s *DBRepositoryTestSuite) TestListJobsStatusFilter() {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	s.createTestJobAt(models.JobStatusCompleted, base)
	running := s.createTestJobAt(models.JobStatusRunning, base.Add(time.Minute))

	status := models.JobStatusRunning
	jobs, err := s.jobRepo.List(s.ctx, &models.ListOptions{Limit: 10, Status: &status})
	s.Require().NoError(err)
	s.Require().Len(jobs, 1)
	s.Equal(running.ID, jobs[0].ID)
}

func (s *DBRepositoryTestSuite) TestListByStatusOldestFirst() {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	first := s.createTestJobAt(models.JobStatusPending, base)
	second := s.createTestJobAt(models.JobStatusPending, base.Add(time.Minute))
	s.createTestJobAt(models.JobStatusCompleted, base.Add(2*time.Minute))

	jobs, err := s.jobRepo.ListByStatus(s.ctx, models.JobStatusPending)
	s.Require().NoError(err)
	s.Require().Len(jobs, 2)
	s.Equal(first.ID, jobs[0].ID)
	s.Equal(second.ID, jobs[1].ID)
}

func (s *DBRepositoryTestSuite) TestCountJobs() {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	s.createTestJobAt(models.JobStatusPending, base)
	s.createTestJobAt(models.JobStatusCompleted, base.Add(time.Minute))
	s.createTestJobAt(models.JobStatusCompleted, base.Add(2*time.Minute))

	total, err := s.jobRepo.Count(s.ctx, nil)
	s.Require().NoError(err)
	s.Equal(int64(3), total)

	status := models.JobStatusCompleted
	completed, err := s.jobRepo.Count(s.ctx, &status)
	s.Require().NoError(err)
	s.Equal(int64(2), completed)
}

func (s *DBRepositoryTestSuite) TestDeleteJob() {
	job := s.createTestJob()

	s.Require().NoError(s.jobRepo.Delete(s.ctx, job.ID))

	_, err := s.jobRepo.GetByID(s.ctx, job.ID)
	s.Error(err)
}

func (s *DBRepositoryTestSuite) TestDeleteJobNotFound() {
	err := s.jobRepo.Delete(s.ctx, "does-not-exist")
	s.Require().Error(err)
	s.True(errors.Is(err, gorm.ErrRecordNotFound))
}

func (s *DBRepositoryTestSuite) TestTransitionStatus() {
	job := s.createTestJob()

	ok, err := s.jobRepo.TransitionStatus(s.ctx, job.ID, models.JobStatusPending, models.JobStatusRunning,
		map[string]interface{}{"started_at": time.Now().UTC()})
	s.Require().NoError(err)
	s.True(ok)

	found, err := s.jobRepo.GetByID(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.JobStatusRunning, found.Status)
	s.NotNil(found.StartedAt)

	// The job already left pending, so a second claim loses.
	ok, err = s.jobRepo.TransitionStatus(s.ctx, job.ID, models.JobStatusPending, models.JobStatusRunning, nil)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *DBRepositoryTestSuite) TestTransitionStatusRejectsBackward() {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	job := s.createTestJobAt(models.JobStatusCompleted, base)

	_, err := s.jobRepo.TransitionStatus(s.ctx, job.ID, models.JobStatusCompleted, models.JobStatusRunning, nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "invalid job status transition")
}
