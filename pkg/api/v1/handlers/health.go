package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/jungho-shin/data-migration-study/internal/types"
)

// HealthCheck reports liveness and how many jobs are currently running
func (h *JobHandler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(types.HealthResponse{
		Status:     "healthy",
		ActiveJobs: h.jobService.ActiveJobs(),
	})
}
