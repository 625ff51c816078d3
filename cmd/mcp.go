package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/rtzll/eduvision/internal"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run MCP server for EduVision",
	Long: `Run a Model Context Protocol (MCP) server that exposes EduVision as tools.

Tools:
- process_video: transcript, summary and quiz for a video
- refresh_questions: generate a new quiz for a video
- ask_question: answer a question from the video transcript
- get_youtube_transcript: caption transcript only
- get_youtube_metadata: video details including caption availability

Transport options:
- stdio (default): Standard MCP transport via stdin/stdout
- http: HTTP transport on specified port (use --port to configure)

Logs go to mcp.log in the cache directory (see "eduvision paths").`,
	Example: `  # Run MCP server with stdio transport (e.g. for Claude Desktop)
  eduvision mcp

  # Run MCP server with HTTP transport on port 8080
  eduvision mcp --transport=http --port=8080

  # Set up Claude Desktop integration
  eduvision mcp setup-claude`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		logger, closer := internal.NewMCPLogger(config)
		defer closer.Close()

		app, err := internal.NewApp(config, internal.WithLogger(logger))
		if err != nil {
			logger.Error("initializing app failed", "error", err)
			return err
		}

		serving.Store(true)
		defer serving.Store(false)

		mcpServer := internal.NewMCPServer(app, version, logger)
		return mcpServer.Start(cmd.Context(), transport, port)
	},
}

var setupClaudeCmd = &cobra.Command{
	Use:   "setup-claude",
	Short: "Register the EduVision MCP server with Claude Desktop",
	Long: `Add or update the "eduvision" entry in Claude Desktop's claude_desktop_config.json.

Other MCP servers and unrelated settings in the file are left untouched.
Claude Desktop does not inherit your shell environment, so the entry carries
the XDG base directories and, with --with-keys, the provider API keys.`,
	Example: `  # Register with Claude Desktop
  eduvision mcp setup-claude

  # Include GOOGLE_API_KEY and OPENAI_API_KEY in the entry
  eduvision mcp setup-claude --with-keys

  # Show the resulting file without writing it
  eduvision mcp setup-claude --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		withKeys, _ := cmd.Flags().GetBool("with-keys")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		if path == "" {
			p, err := claudeDesktopConfigPath(runtime.GOOS)
			if err != nil {
				return err
			}
			path = p
		}

		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("getting executable path: %w", err)
		}
		if execPath, err = filepath.EvalSymlinks(execPath); err != nil {
			return fmt.Errorf("resolving executable path: %w", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("claude desktop config not found at %s: %w", path, err)
		}
		existing, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		updated, err := mergeMCPServer(existing, mcpServerName, mcpServerEntry(execPath, withKeys))
		if err != nil {
			return fmt.Errorf("updating %s: %w", path, err)
		}

		if dryRun {
			fmt.Fprintln(cmd.OutOrStdout(), string(updated))
			return nil
		}
		if err := writeFileAtomic(path, updated, info.Mode().Perm()); err != nil {
			return err
		}

		ui := newUI(cmd)
		ui.Printf("Registered %q in %s\n", mcpServerName, path)
		ui.Println("Restart Claude Desktop to load the EduVision tools")
		return nil
	},
}

const mcpServerName = "eduvision"

// claudeServerEntry is one entry under mcpServers in claude_desktop_config.json
type claudeServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

func mcpServerEntry(execPath string, withKeys bool) claudeServerEntry {
	env := map[string]string{
		"XDG_DATA_HOME":   xdg.DataHome,
		"XDG_CONFIG_HOME": xdg.ConfigHome,
		"XDG_CACHE_HOME":  xdg.CacheHome,
	}
	if withKeys {
		if config.GoogleAPIKey != "" {
			env["GOOGLE_API_KEY"] = config.GoogleAPIKey
		}
		if config.OpenAIAPIKey != "" {
			env["OPENAI_API_KEY"] = config.OpenAIAPIKey
		}
	}
	return claudeServerEntry{Command: execPath, Args: []string{"mcp"}, Env: env}
}

// mergeMCPServer sets mcpServers[name] in a Claude Desktop config document,
// keeping every other key and server exactly as it was
func mergeMCPServer(document []byte, name string, entry claudeServerEntry) ([]byte, error) {
	root := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(document)) > 0 {
		if err := json.Unmarshal(document, &root); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	servers := map[string]json.RawMessage{}
	if raw, ok := root["mcpServers"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &servers); err != nil {
			return nil, fmt.Errorf("parsing mcpServers: %w", err)
		}
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	servers[name] = encoded

	if root["mcpServers"], err = json.Marshal(servers); err != nil {
		return nil, err
	}
	return json.MarshalIndent(root, "", "  ")
}

func claudeDesktopConfigPath(goos string) (string, error) {
	const file = "claude_desktop_config.json"
	switch goos {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "Claude", file), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, "Claude", file), nil
	case "linux":
		return filepath.Join(xdg.ConfigHome, "Claude", file), nil
	default:
		return "", fmt.Errorf("unsupported platform: %s", goos)
	}
}

// writeFileAtomic replaces path via a temp file in the same directory
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol (stdio or http)")
	mcpCmd.Flags().Int("port", 8080, "Port for HTTP transport (only used with --transport=http)")
	setupClaudeCmd.Flags().String("config", "", "Path to claude_desktop_config.json (default: platform location)")
	setupClaudeCmd.Flags().Bool("with-keys", false, "Store GOOGLE_API_KEY and OPENAI_API_KEY in the server entry")
	setupClaudeCmd.Flags().Bool("dry-run", false, "Print the updated config instead of writing it")
	mcpCmd.AddCommand(setupClaudeCmd)
	rootCmd.AddCommand(mcpCmd)
}
