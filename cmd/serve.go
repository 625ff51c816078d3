package cmd

import (
	"log/slog"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/rtzll/eduvision/internal"
)

// serving is set while a server owns shutdown handling
var serving atomic.Bool

func isServing() bool {
	return serving.Load()
}

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the EduVision HTTP API",
	Long: `Run the EduVision HTTP API.

Endpoints:
  GET  /                   liveness status
  GET  /health             liveness status
  GET  /metrics            Prometheus metrics
  POST /process_video      {"url"} -> transcript, summary, questions
  POST /refresh_questions  {"url"} -> a new question set
  POST /ask_question       {"url", "question", "history"} -> answer

On SIGINT or SIGTERM the server stops accepting connections and waits
for in-flight requests to finish.`,
	Example: `  # Serve on the configured port (default 8000)
  eduvision serve

  # Serve on another port with Redis as the artifact cache
  EDUVISION_CACHE_BACKEND=redis eduvision serve --port 9000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if f := cmd.Flags().Lookup("port"); f.Changed {
			config.Port, _ = cmd.Flags().GetInt("port")
		}
		if dedupe, _ := cmd.Flags().GetBool("dedupe"); dedupe {
			config.DedupeInflight = true
		}

		logger := internal.NewServerLogger(config.Verbose)
		slog.SetDefault(logger)

		if err := internal.ValidateGenerationRequirements(config); err != nil {
			logger.Warn("summaries and questions will degrade to fallbacks", "error", err)
		}
		if err := internal.ValidateChatRequirements(config); err != nil {
			logger.Warn("question answering is unavailable", "error", err)
		}

		app, err := internal.NewApp(config, internal.WithLogger(logger))
		if err != nil {
			return err
		}

		handler := internal.NewHandler(app, logger)
		srv := internal.NewHTTPServer(config, handler.Router(config.AllowedOrigins))

		serving.Store(true)
		defer serving.Store(false)

		return internal.Serve(cmd.Context(), srv, config, logger)
	},
}

func init() {
	serveCmd.Flags().Int("port", 8000, "Port to listen on")
	serveCmd.Flags().Bool("dedupe", false, "Collapse concurrent identical requests for the same video")
	rootCmd.AddCommand(serveCmd)
}
