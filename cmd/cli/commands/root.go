// Package commands implements the collector CLI on top of the API client
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jungho-shin/data-migration-study/internal/constants"
	"github.com/jungho-shin/data-migration-study/pkg/api/v1/client"
	"github.com/jungho-shin/data-migration-study/pkg/api/v1/routes"
)

// flag names
const (
	flagServerAddress = "server-address"
)

var (
	// apiClient is the shared API client instance
	apiClient client.Client
	// serverAddress holds the target API server address. Flag parsing sets this.
	serverAddress string
)

// initClient initializes the API client
func initClient() error {
	var err error
	// Use the serverAddress determined by PersistentPreRunE
	opts := client.DefaultOptions() // Start with defaults
	opts.BaseURL = serverAddress    // Override BaseURL

	apiClient, err = client.NewClient(opts)
	return err
}

func init() {
	// Set a basic default for the flag. PersistentPreRunE will handle env var override.
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", routes.DefaultBaseURL,
		"Address of the collector API server (env: "+constants.EnvServerAddress+")")

	RootCmd.AddCommand(GetJobsCmd())
	RootCmd.AddCommand(GetFilesCmd())
	RootCmd.AddCommand(GetHealthCmd())
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "collector",
	Short: "Collector CLI - a command line interface for the trip-data collector API",
	Long: `Collector CLI submits and tracks dataset acquisition jobs through the
collector API, and inspects the files the jobs produce.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Check if the server address flag was explicitly set by the user.
		if !cmd.Flags().Changed(flagServerAddress) {
			// If not set via flag, check the environment variable.
			if envAddr := os.Getenv(constants.EnvServerAddress); envAddr != "" {
				serverAddress = envAddr // Override the default value with the env var
			}
		}

		// Now serverAddress has the correct precedence: Flag > Env Var > Default
		if serverAddress == "" {
			return fmt.Errorf("server address cannot be empty")
		}
		// Initialization happens here, using the correct serverAddress
		return initClient()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}
