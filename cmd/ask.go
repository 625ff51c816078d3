package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rtzll/eduvision/internal"
)

// askCmd answers questions about a video from its transcript
var askCmd = &cobra.Command{
	Use:   "ask [YouTube URL or ID] [question]",
	Short: "Ask questions about a YouTube video",
	Long: `Ask questions about a YouTube video. Answers come only from the
video's transcript; questions it does not cover get a fixed refusal.

With a question argument one answer is printed. Without one an
interactive session starts where every answer becomes context for the
next question. Type "exit" or press Ctrl-D to leave.`,
	Example: `  # One question
  eduvision ask dQw4w9WgXcQ "What is the song about?"

  # Interactive session
  eduvision ask dQw4w9WgXcQ

  # Continue a saved conversation and save it again afterwards
  eduvision ask dQw4w9WgXcQ --history chat.json --save-history chat.json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkVideoArg(cmd, args[0]); err != nil {
			return err
		}
		if err := internal.HandleChatFlags(cmd, config); err != nil {
			return err
		}
		if err := internal.ValidateChatRequirements(config); err != nil {
			return err
		}

		history, err := loadHistory(cmd)
		if err != nil {
			return err
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		ui := newUI(cmd)
		videoURL := internal.ExpandVideoID(args[0])

		ask := func(question string) error {
			spinner := ui.NewSpinner("Thinking...")
			answer, err := app.AskQuestion(cmd.Context(), videoURL, question, history)
			spinner.Finish()
			if err != nil {
				return err
			}
			history = append(history,
				internal.ChatTurn{Role: internal.RoleUser, Content: question},
				internal.ChatTurn{Role: internal.RoleAssistant, Content: answer},
			)
			return printMarkdown(cmd, answer)
		}

		if len(args) == 2 {
			if err := ask(args[1]); err != nil {
				return err
			}
			return saveHistory(cmd, history)
		}

		scanner := bufio.NewScanner(cmd.InOrStdin())
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for {
			fmt.Fprint(cmd.ErrOrStderr(), "> ")
			if !scanner.Scan() {
				break
			}
			question := strings.TrimSpace(scanner.Text())
			if question == "" {
				continue
			}
			if question == "exit" || question == "quit" {
				break
			}
			if err := ask(question); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			if cmd.Context().Err() != nil {
				break
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		return saveHistory(cmd, history)
	},
}

func loadHistory(cmd *cobra.Command) ([]internal.ChatTurn, error) {
	path, _ := cmd.Flags().GetString("history")
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	var history []internal.ChatTurn
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parsing history %s: %w", path, err)
	}
	return history, nil
}

func saveHistory(cmd *cobra.Command, history []internal.ChatTurn) error {
	path, _ := cmd.Flags().GetString("save-history")
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func init() {
	internal.AddChatFlags(askCmd)
	askCmd.Flags().String("history", "", "JSON file with earlier turns ([{\"role\", \"content\"}])")
	askCmd.Flags().String("save-history", "", "Write the conversation to this JSON file on exit")
	rootCmd.AddCommand(askCmd)
}
