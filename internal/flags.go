package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AddGenerationFlags adds flags related to summary and question generation
func AddGenerationFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("model", "m", "", "Gemini model to use for summaries and questions")
	cmd.Flags().StringP("prompt", "p", "", "Custom summary prompt (string or file path)")
}

// AddChatFlags adds flags related to question answering
func AddChatFlags(cmd *cobra.Command) {
	cmd.Flags().String("chat-model", "", "OpenAI model to use for answering questions")
}

// HandleGenerationFlags applies --model and --prompt to config
func HandleGenerationFlags(cmd *cobra.Command, config *Config) error {
	if f := cmd.Flags().Lookup("model"); f != nil && f.Changed {
		model, err := cmd.Flags().GetString("model")
		if err != nil {
			return fmt.Errorf("failed to get model flag: %w", err)
		}
		if model == "" {
			return fmt.Errorf("model must not be empty")
		}
		config.GenerationModel = model
	}

	if f := cmd.Flags().Lookup("prompt"); f != nil && f.Changed {
		prompt, err := cmd.Flags().GetString("prompt")
		if err != nil {
			return fmt.Errorf("failed to get prompt flag: %w", err)
		}
		config.SummaryPrompt = prompt
	}
	return nil
}

// HandleChatFlags applies --chat-model to config
func HandleChatFlags(cmd *cobra.Command, config *Config) error {
	if f := cmd.Flags().Lookup("chat-model"); f != nil && f.Changed {
		model, err := cmd.Flags().GetString("chat-model")
		if err != nil {
			return fmt.Errorf("failed to get chat-model flag: %w", err)
		}
		if model == "" {
			return fmt.Errorf("chat model must not be empty")
		}
		config.ChatModel = model
	}
	return nil
}

// HandleVerboseFlag processes the --verbose flag to update config
func HandleVerboseFlag(cmd *cobra.Command, config *Config) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return fmt.Errorf("failed to get verbose flag: %w", err)
	}
	if verbose {
		config.Verbose = true
	}
	return nil
}

// ValidateGenerationRequirements checks the Gemini credential
func ValidateGenerationRequirements(config *Config) error {
	return ValidateAPIKey("Google", "GOOGLE_API_KEY", config.GoogleAPIKey)
}

// ValidateChatRequirements checks the OpenAI credential
func ValidateChatRequirements(config *Config) error {
	return ValidateAPIKey("OpenAI", "OPENAI_API_KEY", config.OpenAIAPIKey)
}
