package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/eduvision/internal"
)

// transcribeCmd represents the transcribe command
var transcribeCmd = &cobra.Command{
	Use:   "transcribe [YouTube URL or ID]",
	Short: "Get transcript from YouTube (cached or downloaded)",
	Example: `  # Get transcript from YouTube captions
  eduvision transcribe "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
  eduvision transcribe dQw4w9WgXcQ

  # Save transcript to file
  eduvision transcribe dQw4w9WgXcQ -o transcript.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkVideoArg(cmd, args[0]); err != nil {
			return err
		}

		transcript, err := fetchTranscript(cmd, args[0])
		if err != nil {
			return err
		}

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			return os.WriteFile(outputFile, []byte(transcript), 0644)
		}

		fmt.Fprintln(cmd.OutOrStdout(), transcript)
		return nil
	},
}

// fetchTranscript acquires the transcript for arg behind a spinner
func fetchTranscript(cmd *cobra.Command, arg string) (string, error) {
	app, err := newApp()
	if err != nil {
		return "", err
	}

	spinner := newUI(cmd).NewSpinner("Fetching YouTube captions...")
	transcript, _, err := app.Transcript(cmd.Context(), internal.ExpandVideoID(arg))
	spinner.Finish()
	return transcript, err
}

func init() {
	transcribeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	rootCmd.AddCommand(transcribeCmd)
}
