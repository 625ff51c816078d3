package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

// cpCmd copies the transcript to the system clipboard instead of printing to stdout.
var cpCmd = &cobra.Command{
	Use:   "cp [URL]",
	Short: "Copy transcript from YouTube to the clipboard",
	Example: `  # Copy transcript from YouTube captions
  eduvision cp "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
  eduvision cp dQw4w9WgXcQ`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkVideoArg(cmd, args[0]); err != nil {
			return err
		}

		transcript, err := fetchTranscript(cmd, args[0])
		if err != nil {
			return err
		}

		if err := clipboard.WriteAll(transcript); err != nil {
			return fmt.Errorf("copying transcript to clipboard: %w", err)
		}

		newUI(cmd).Println("Transcript copied to clipboard")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cpCmd)
}
