package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/eduvision/internal"
)

// summarizeCmd represents the summarize command
var summarizeCmd = &cobra.Command{
	Use:   "summarize [YouTube URL or ID]",
	Short: "Generate summary from YouTube video",
	Example: `  # Generate summary from YouTube video
  eduvision summarize "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
  eduvision summarize dQw4w9WgXcQ

  # Use a specific Gemini model
  eduvision summarize dQw4w9WgXcQ --model gemini-2.5-pro

  # Use custom prompt
  eduvision summarize dQw4w9WgXcQ --prompt "tldr in {{.Words}} words: {{.Transcript}}"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkVideoArg(cmd, args[0]); err != nil {
			return err
		}
		if err := internal.HandleGenerationFlags(cmd, config); err != nil {
			return err
		}
		if err := internal.ValidateGenerationRequirements(config); err != nil {
			return err
		}

		app, err := newApp()
		if err != nil {
			return err
		}

		spinner := newUI(cmd).NewSpinner("Summarizing video...")
		summary, err := app.Summary(cmd.Context(), internal.ExpandVideoID(args[0]))
		spinner.Finish()
		if err != nil {
			return err
		}

		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		}
		return printMarkdown(cmd, summary)
	},
}

func init() {
	internal.AddGenerationFlags(summarizeCmd)
	summarizeCmd.Flags().Bool("raw", false, "Print the summary without markdown rendering")
	rootCmd.AddCommand(summarizeCmd)
}
