package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// fileOutput represents the filtered output for an acquired file
type fileOutput struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}

// fileListOutput represents the filtered output for a list of files
type fileListOutput struct {
	Files []fileOutput `json:"files"`
}

func init() {
	filesCmd.AddCommand(listFilesCmd)

	// Add flags
	listFilesCmd.Flags().StringP("output-dir", "o", "", "Directory to list (default: the server's directory)")
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Inspect acquired files",
}

var listFilesCmd = &cobra.Command{
	Use:   "list",
	Short: "List acquired files in an output directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		outputDir, _ := cmd.Flags().GetString("output-dir")

		// Call the API client
		files, err := apiClient.GetFiles(context.Background(), outputDir)
		if err != nil {
			return fmt.Errorf("error fetching files: %w", err)
		}

		// Filter the response to only include relevant fields
		output := fileListOutput{
			Files: make([]fileOutput, len(files)),
		}
		for i, f := range files {
			output.Files[i] = fileOutput{
				Name:       f.Name,
				Size:       f.Size,
				ModifiedAt: f.ModifiedAt.Format(time.RFC3339),
			}
		}

		return printJSON(cmd, output)
	},
}

// GetFilesCmd returns the files command
func GetFilesCmd() *cobra.Command {
	return filesCmd
}
