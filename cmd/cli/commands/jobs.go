package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jungho-shin/data-migration-study/internal/datasets"
	"github.com/jungho-shin/data-migration-study/internal/db/models"
	"github.com/jungho-shin/data-migration-study/internal/types"
)

// pollInterval is how often `jobs submit --wait` re-reads the job
const pollInterval = 2 * time.Second

// jobOutput represents the filtered output for a job
type jobOutput struct {
	ID         string `json:"id"`
	Dataset    string `json:"dataset"`
	Period     string `json:"period"`
	Status     string `json:"status"`
	Files      int    `json:"files"`
	TotalBytes int64  `json:"total_bytes"`
	Error      string `json:"error,omitempty"`
}

// jobListOutput represents the filtered output for a list of jobs
type jobListOutput struct {
	Jobs []jobOutput `json:"jobs"`
}

// resultOutput represents one acquired period in `jobs get` output
type resultOutput struct {
	Period  string `json:"period"`
	Outcome string `json:"outcome"`
	Size    int64  `json:"size"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

// jobDetailOutput is the `jobs get` output, a job plus its per-period results
type jobDetailOutput struct {
	jobOutput
	Results []resultOutput `json:"results"`
}

func init() {
	jobsCmd.AddCommand(submitJobCmd)
	jobsCmd.AddCommand(listJobsCmd)
	jobsCmd.AddCommand(getJobCmd)
	jobsCmd.AddCommand(cancelJobCmd)

	// Add flags
	submitJobCmd.Flags().StringP("dataset", "d", "", "Dataset kind (yellow, green, fhv, fhvhv)")
	submitJobCmd.Flags().String("start", "", "First period to acquire, YYYY-MM")
	submitJobCmd.Flags().String("end", "", "Last period to acquire, YYYY-MM")
	submitJobCmd.Flags().Int64("max-bytes", 0, "Stop once this many bytes have been acquired (0 = unbounded)")
	submitJobCmd.Flags().Int("max-files", 0, "Stop once this many files have been acquired (0 = unbounded)")
	submitJobCmd.Flags().StringP("output", "o", "", "Output directory on the server (default: the server's directory)")
	submitJobCmd.Flags().BoolP("wait", "w", false, "Wait for the job to finish and print the final record")
	_ = submitJobCmd.MarkFlagRequired("dataset")
	_ = submitJobCmd.MarkFlagRequired("start")
	_ = submitJobCmd.MarkFlagRequired("end")

	listJobsCmd.Flags().IntP("page", "p", 1, "Page of jobs to fetch")
	listJobsCmd.Flags().String("status", "", "Filter jobs by status")

	getJobCmd.Flags().StringP("id", "i", "", "Job ID to fetch")
	_ = getJobCmd.MarkFlagRequired("id")

	cancelJobCmd.Flags().StringP("id", "i", "", "Job ID to cancel or delete")
	_ = cancelJobCmd.MarkFlagRequired("id")
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage acquisition jobs",
}

var submitJobCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a new acquisition job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dataset, _ := cmd.Flags().GetString("dataset")
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		maxBytes, _ := cmd.Flags().GetInt64("max-bytes")
		maxFiles, _ := cmd.Flags().GetInt("max-files")
		output, _ := cmd.Flags().GetString("output")
		wait, _ := cmd.Flags().GetBool("wait")

		startPeriod, err := parsePeriod(start)
		if err != nil {
			return fmt.Errorf("invalid start period: %w", err)
		}
		endPeriod, err := parsePeriod(end)
		if err != nil {
			return fmt.Errorf("invalid end period: %w", err)
		}

		req := &types.SubmitJobRequest{
			Dataset:    dataset,
			StartYear:  startPeriod.Year,
			StartMonth: startPeriod.Month,
			EndYear:    endPeriod.Year,
			EndMonth:   endPeriod.Month,
			MaxBytes:   maxBytes,
			MaxFiles:   maxFiles,
			OutputDir:  output,
		}

		job, err := apiClient.CreateJob(context.Background(), req)
		if err != nil {
			return fmt.Errorf("error submitting job: %w", err)
		}

		if !wait {
			return printJSON(cmd, formatJob(job))
		}

		final, err := waitForTerminal(job.ID)
		if err != nil {
			return err
		}
		return printJSON(cmd, formatJobDetail(final))
	},
}

var listJobsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		page, _ := cmd.Flags().GetInt("page")
		status, _ := cmd.Flags().GetString("status")

		var statusFilter *models.JobStatus
		if status != "" {
			parsed, err := models.ParseJobStatus(status)
			if err != nil {
				return err
			}
			statusFilter = &parsed
		}

		// Call the API client
		jobs, err := apiClient.GetJobs(context.Background(), page, statusFilter)
		if err != nil {
			return fmt.Errorf("error fetching jobs: %w", err)
		}

		// Filter the response to only include relevant fields
		output := jobListOutput{
			Jobs: make([]jobOutput, len(jobs)),
		}
		for i, job := range jobs {
			output.Jobs[i] = formatJob(job)
		}

		return printJSON(cmd, output)
	},
}

var getJobCmd = &cobra.Command{
	Use:   "get",
	Short: "Get a specific job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("id")

		// Call the API client
		job, err := apiClient.GetJob(context.Background(), jobID)
		if err != nil {
			return fmt.Errorf("error fetching job: %w", err)
		}

		return printJSON(cmd, formatJobDetail(job))
	},
}

var cancelJobCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel a job, or delete its record if it already finished",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("id")

		message, err := apiClient.DeleteJob(context.Background(), jobID)
		if err != nil {
			return fmt.Errorf("error cancelling job: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), message)
		return nil
	},
}

// GetJobsCmd returns the jobs command
func GetJobsCmd() *cobra.Command {
	return jobsCmd
}

// parsePeriod parses a YYYY-MM flag value
func parsePeriod(s string) (datasets.Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return datasets.Period{}, fmt.Errorf("%q is not of the form YYYY-MM", s)
	}
	return datasets.Period{Year: t.Year(), Month: int(t.Month())}, nil
}

// waitForTerminal polls the job until it finishes, one way or another
func waitForTerminal(id string) (models.Job, error) {
	for {
		job, err := apiClient.GetJob(context.Background(), id)
		if err != nil {
			return models.Job{}, fmt.Errorf("error polling job: %w", err)
		}
		if job.Status.Terminal() {
			return job, nil
		}
		time.Sleep(pollInterval)
	}
}

func formatJob(job models.Job) jobOutput {
	return jobOutput{
		ID:         job.ID,
		Dataset:    string(job.Dataset),
		Period:     job.Range().String(),
		Status:     string(job.Status),
		Files:      job.FileCount,
		TotalBytes: job.TotalBytes,
		Error:      job.Error,
	}
}

func formatJobDetail(job models.Job) jobDetailOutput {
	detail := jobDetailOutput{
		jobOutput: formatJob(job),
		Results:   make([]resultOutput, len(job.Results)),
	}
	for i, res := range job.Results {
		detail.Results[i] = resultOutput{
			Period:  res.Period.String(),
			Outcome: string(res.Outcome),
			Size:    res.Size,
			Path:    res.LocalPath,
			Error:   res.Error,
		}
	}
	return detail
}

// printJSON pretty prints v on the command's output
func printJSON(cmd *cobra.Command, v interface{}) error {
	prettyJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(prettyJSON))
	return nil
}
