package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rtzll/eduvision/internal"
)

// newApp builds the application with a CLI logger
func newApp() (*internal.App, error) {
	return internal.NewApp(config, internal.WithLogger(internal.NewCLILogger(config.Verbose)))
}

// newUI returns the status UI for the current invocation
func newUI(cmd *cobra.Command) internal.UIManager {
	quiet, _ := cmd.Flags().GetBool("quiet")
	return internal.NewUIManager(quiet || config.Verbose)
}

// checkVideoArg rejects arguments that look like mistyped subcommands
func checkVideoArg(cmd *cobra.Command, arg string) error {
	if !internal.IsLikelyCommand(arg) {
		return nil
	}

	var suggestions []string
	for _, c := range cmd.Root().Commands() {
		name := c.Name()
		if strings.Contains(name, arg) || (len(arg) <= len(name) && strings.HasPrefix(name, arg)) {
			suggestions = append(suggestions, name)
		}
	}

	if len(suggestions) > 0 {
		return fmt.Errorf("'%s' doesn't look like a YouTube URL or video ID. Did you mean: %s?", arg, strings.Join(suggestions, ", "))
	}
	return fmt.Errorf("'%s' doesn't look like a YouTube URL or video ID. Use --help to see available commands", arg)
}

// printJSON writes v as indented JSON to the command's stdout
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// printMarkdown renders content for the terminal and writes it to stdout
func printMarkdown(cmd *cobra.Command, content string) error {
	rendered, err := internal.RenderMarkdown(content)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return nil
}

// questionsMarkdown formats a question set as a numbered quiz
func questionsMarkdown(questions internal.QuestionSet, showAnswers bool) string {
	var sb strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&sb, "%d. **%s**\n\n", i+1, q.Question)
		for j, option := range q.Options {
			marker := ""
			if showAnswers && option == q.Answer {
				marker = " ✓"
			}
			fmt.Fprintf(&sb, "   %c) %s%s\n", 'A'+j, option, marker)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
