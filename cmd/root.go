package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rtzll/eduvision/internal"
)

var (
	config *internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "eduvision [YouTube URL or ID]",
	Short: "Turn YouTube videos into summaries, quizzes and answers",
	Long: `EduVision turns a YouTube video into study material.

It fetches the video's captions, then uses Gemini to write a summary
and a multiple-choice quiz, and OpenAI to answer questions about it.
Every result is cached per video, so repeat requests are instant.

Run "eduvision serve" to expose the same features over HTTP.`,
	Example: `  # Summarize a video and generate a quiz
  eduvision "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
  eduvision dQw4w9WgXcQ

  # Print the full result as JSON
  eduvision dQw4w9WgXcQ --json

  # Use a custom summary prompt
  eduvision dQw4w9WgXcQ --prompt "Explain like I'm five: {{.Transcript}}"`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return internal.HandleVerboseFlag(cmd, config)
	},
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

		spinner := newUI(cmd).NewSpinner("Processing video...")
		result, err := app.ProcessVideo(cmd.Context(), internal.ExpandVideoID(args[0]))
		spinner.Finish()
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, result)
		}

		content := fmt.Sprintf("# Summary\n\n%s\n\n# Quiz\n\n%s\n_Processed in %s_\n",
			result.Summary, questionsMarkdown(result.Questions, true), result.ProcessingTime)
		return printMarkdown(cmd, content)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config = internal.InitConfig()

	if err := internal.EnsureDirs(config.ConfigDir, config.DataDir, config.CacheDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating XDG directories: %v\n", err)
		os.Exit(1)
	}

	if err := internal.EnsureDefaultConfig(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default config: %v\n", err)
	}

	// Long-running commands install their own shutdown handling through ctx
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()

		if isServing() {
			return
		}

		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal. Cleaning up and shutting down...")

		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cleanupCancel()

		cleanupDone := make(chan struct{})
		go func() {
			if err := internal.CleanupTempDir(config.TempDir); err != nil {
				fmt.Fprintf(os.Stderr, "Error cleaning up temporary files: %v\n", err)
			}
			close(cleanupDone)
		}()

		select {
		case <-cleanupDone:
		case <-cleanupCtx.Done():
			fmt.Fprintln(os.Stderr, "Warning: Cleanup timed out, forcing exit")
		}

		os.Exit(130)
	}()

	rootCmd.SetContext(ctx)

	return rootCmd.Execute()
}

func init() {
	internal.AddGenerationFlags(rootCmd)
	rootCmd.Flags().Bool("json", false, "Print the result as JSON")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress output")
}
