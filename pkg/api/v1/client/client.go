// Package client provides the API client for interacting with the collector API
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/jungho-shin/data-migration-study/internal/db/models"
	"github.com/jungho-shin/data-migration-study/internal/types"
	"github.com/jungho-shin/data-migration-study/pkg/api/v1/routes"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// Client is the interface for API client
type Client interface {
	// Health Check
	HealthCheck(ctx context.Context) (types.HealthResponse, error)

	// File Endpoints
	GetFiles(ctx context.Context, outputDir string) ([]types.FileInfo, error)

	// Job Endpoints
	GetJobs(ctx context.Context, page int, status *models.JobStatus) ([]models.Job, error)
	GetJob(ctx context.Context, id string) (models.Job, error)
	CreateJob(ctx context.Context, req *types.SubmitJobRequest) (models.Job, error)
	DeleteJob(ctx context.Context, id string) (string, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate the base URL
	_, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &APIClient{
		baseURL: opts.BaseURL,
		timeout: opts.Timeout,
	}, nil
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	// Resolve the endpoint URL
	fullURL := c.baseURL + endpoint

	// Create a new agent based on the HTTP method
	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	case http.MethodPut:
		agent = fiber.Put(fullURL)
	case http.MethodDelete:
		agent = fiber.Delete(fullURL)
	case http.MethodPatch:
		agent = fiber.Patch(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	// Set common headers
	agent.Set("Content-Type", "application/json")
	agent.Set("Accept", "application/json")

	// Add body if provided
	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// doRequest sends the HTTP request and processes the response
func (c *APIClient) doRequest(agent *fiber.Agent, v interface{}) error {
	// Execute the request
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}

	// Check for non-success status codes
	if statusCode < 200 || statusCode >= 300 {
		// If we can't decode the error response, return an error with the raw body as the message
		return &fiber.Error{
			Code:    statusCode,
			Message: string(body),
		}
	}

	// Decode the response body if a target is provided
	if v != nil && len(body) > 0 {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}

	return nil
}

// executeRequest creates an agent, sends the request, and processes the response
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint string, body, response interface{}) error {
	agent, err := c.createAgent(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	return c.doRequest(agent, response)
}

// executeSlug sends the request and unwraps the slug envelope into result
func (c *APIClient) executeSlug(ctx context.Context, method, endpoint string, body, result interface{}) error {
	var slugResp types.SlugResponse
	if err := c.executeRequest(ctx, method, endpoint, body, &slugResp); err != nil {
		return err
	}

	// Check for application-level errors
	if slugResp.Slug != types.SuccessSlug {
		return fmt.Errorf("request failed: %s", slugResp.Error)
	}

	// If result is nil, the caller does not need the data
	if result == nil || slugResp.Data == nil {
		return nil
	}

	// Since slugResp.Data is interface{}, marshal it back to JSON and
	// unmarshal it into the target result struct.
	dataBytes, err := json.Marshal(slugResp.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal data field: %w", err)
	}

	if err := json.Unmarshal(dataBytes, result); err != nil {
		return fmt.Errorf("failed to unmarshal data into result: %w", err)
	}

	return nil
}

// Health check implementation

// HealthCheck checks the health of the API
func (c *APIClient) HealthCheck(ctx context.Context) (types.HealthResponse, error) {
	endpoint := routes.HealthCheckURL()
	var response types.HealthResponse
	if err := c.executeRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return types.HealthResponse{}, err
	}
	return response, nil
}

// File methods implementation

// GetFiles lists acquired files in an output directory. An empty outputDir
// lists the server's default directory.
func (c *APIClient) GetFiles(ctx context.Context, outputDir string) ([]types.FileInfo, error) {
	q := url.Values{}
	if outputDir != "" {
		q.Set("output_dir", outputDir)
	}

	endpoint := routes.GetFilesURL(q)
	var files []types.FileInfo
	if err := c.executeSlug(ctx, http.MethodGet, endpoint, nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// Job methods implementation

// getQueryParams creates url.Values for the job listing endpoint
func getQueryParams(page int, status *models.JobStatus) url.Values {
	q := url.Values{}
	if page > 1 {
		q.Set("page", fmt.Sprintf("%d", page))
	}
	if status != nil {
		q.Set("status", status.String())
	}
	return q
}

// GetJobs lists jobs with optional status filtering
func (c *APIClient) GetJobs(ctx context.Context, page int, status *models.JobStatus) ([]models.Job, error) {
	endpoint := routes.GetJobsURL(getQueryParams(page, status))
	var response types.ListResponse[models.Job]
	if err := c.executeSlug(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}
	return response.Rows, nil
}

// GetJob retrieves a job by ID
func (c *APIClient) GetJob(ctx context.Context, id string) (models.Job, error) {
	endpoint := routes.GetJobURL(id)
	var job models.Job
	if err := c.executeSlug(ctx, http.MethodGet, endpoint, nil, &job); err != nil {
		return models.Job{}, err
	}
	return job, nil
}

// CreateJob submits a new acquisition job and returns the created record
func (c *APIClient) CreateJob(ctx context.Context, req *types.SubmitJobRequest) (models.Job, error) {
	endpoint := routes.CreateJobURL()
	var job models.Job
	if err := c.executeSlug(ctx, http.MethodPost, endpoint, req, &job); err != nil {
		return models.Job{}, err
	}
	return job, nil
}

// DeleteJob cancels a queued or running job, or deletes a finished job's
// record. The returned message reports which of the two happened.
func (c *APIClient) DeleteJob(ctx context.Context, id string) (string, error) {
	endpoint := routes.DeleteJobURL(id)
	var message string
	if err := c.executeSlug(ctx, http.MethodDelete, endpoint, nil, &message); err != nil {
		return "", err
	}
	return message, nil
}
