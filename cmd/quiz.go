package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rtzll/eduvision/internal"
)

// quizCmd prints the multiple-choice questions for a video
var quizCmd = &cobra.Command{
	Use:   "quiz [YouTube URL or ID]",
	Short: "Generate multiple-choice questions from YouTube video",
	Example: `  # Show the quiz with answers marked
  eduvision quiz dQw4w9WgXcQ

  # Hide the answers
  eduvision quiz dQw4w9WgXcQ --hide-answers

  # Discard the cached quiz and generate a new one
  eduvision quiz dQw4w9WgXcQ --refresh

  # Print the questions as JSON
  eduvision quiz dQw4w9WgXcQ --json`,
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

		refresh, _ := cmd.Flags().GetBool("refresh")

		spinner := newUI(cmd).NewSpinner("Generating questions...")
		questions, err := app.Questions(cmd.Context(), internal.ExpandVideoID(args[0]), refresh)
		spinner.Finish()
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, internal.QuestionsResponse{Questions: questions})
		}

		hide, _ := cmd.Flags().GetBool("hide-answers")
		return printMarkdown(cmd, questionsMarkdown(questions, !hide))
	},
}

func init() {
	internal.AddGenerationFlags(quizCmd)
	quizCmd.Flags().Bool("refresh", false, "Ignore the cached quiz and generate a new one")
	quizCmd.Flags().Bool("hide-answers", false, "Do not mark the correct answers")
	quizCmd.Flags().Bool("json", false, "Print the questions as JSON")
	rootCmd.AddCommand(quizCmd)
}
