package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/eduvision/internal"
)

// metadataCmd represents the metadata command
var metadataCmd = &cobra.Command{
	Use:   "metadata [URL]",
	Short: "Get metadata from YouTube video",
	Example: `  # Get metadata from YouTube video
  eduvision metadata "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
  eduvision metadata dQw4w9WgXcQ

  # Save metadata to file
  eduvision metadata dQw4w9WgXcQ -o metadata.json

  # Format output as pretty JSON
  eduvision metadata dQw4w9WgXcQ --pretty`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkVideoArg(cmd, args[0]); err != nil {
			return err
		}

		app, err := newApp()
		if err != nil {
			return err
		}

		spinner := newUI(cmd).NewSpinner("Fetching video metadata...")
		metadata, err := app.Metadata(cmd.Context(), internal.ExpandVideoID(args[0]))
		spinner.Finish()
		if err != nil {
			return err
		}

		var jsonData []byte
		pretty, _ := cmd.Flags().GetBool("pretty")
		if pretty {
			jsonData, err = json.MarshalIndent(metadata, "", "  ")
		} else {
			jsonData, err = json.Marshal(metadata)
		}
		if err != nil {
			return fmt.Errorf("error converting metadata to JSON: %w", err)
		}

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			return os.WriteFile(outputFile, jsonData, 0644)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
		return nil
	},
}

func init() {
	metadataCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	metadataCmd.Flags().Bool("pretty", false, "Format output as pretty JSON")
	rootCmd.AddCommand(metadataCmd)
}
