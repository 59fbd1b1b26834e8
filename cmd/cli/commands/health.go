package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the collector API is up",
	RunE: func(cmd *cobra.Command, _ []string) error {
		health, err := apiClient.HealthCheck(context.Background())
		if err != nil {
			return fmt.Errorf("error checking health: %w", err)
		}

		return printJSON(cmd, health)
	},
}

// GetHealthCmd returns the health command
func GetHealthCmd() *cobra.Command {
	return healthCmd
}
