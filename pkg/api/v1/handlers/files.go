package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/jungho-shin/data-migration-study/internal/types"
)

// GetFiles handles the request to list acquired files in an output directory.
// Without an output_dir query parameter it lists the engine's default
// directory.
func (h *JobHandler) GetFiles(c *fiber.Ctx) error {
	files, err := h.jobService.ListOutputFiles(c.Query("output_dir"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(types.ErrServer(err.Error()))
	}

	return c.JSON(types.Success(files))
}
