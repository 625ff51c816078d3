package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/eduvision/internal"
)

// pathsCmd represents the paths command
var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show paths used by the application",
	Example: `  # Show all application paths
  eduvision paths`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config directory: %s\n", config.ConfigDir)
		fmt.Fprintf(out, "Data directory: %s\n", config.DataDir)
		fmt.Fprintf(out, "Cache directory: %s\n", config.CacheDir)
		fmt.Fprintf(out, "Subtitle downloads: %s\n", config.TempDir)
		if config.CacheBackend == internal.CacheBackendRedis {
			fmt.Fprintf(out, "Artifact cache: redis://%s/%d\n", config.RedisAddr, config.RedisDB)
		} else {
			fmt.Fprintf(out, "Artifact cache: %s\n", config.ArtifactsDir)
		}
		fmt.Fprintf(out, "MCP log: %s\n", internal.MCPLogPath(config))
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
