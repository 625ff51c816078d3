package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	version = "dev" // overridden at build time via -ldflags
	commit  = ""
	date    = ""
)

type versionInfo struct {
	Version         string `json:"version"`
	Commit          string `json:"commit,omitempty"`
	Date            string `json:"date,omitempty"`
	GoVersion       string `json:"go_version,omitempty"`
	GenerationModel string `json:"generation_model"`
	ChatModel       string `json:"chat_model"`
	CacheBackend    string `json:"cache_backend"`
}

// buildInfo fills commit and date from the module's VCS stamp when ldflags left them empty
func buildInfo() versionInfo {
	info := versionInfo{Version: version, Commit: commit, Date: date}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		}
	}
	return info
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number and configured models",
	Example: `  # Show version information
  eduvision version
  eduvision version --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildInfo()
		info.GenerationModel = config.GenerationModel
		info.ChatModel = config.ChatModel
		info.CacheBackend = config.CacheBackend

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, info)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "eduvision v%s", info.Version)
		if info.Commit != "" {
			fmt.Fprintf(out, " (commit: %s", info.Commit)
			if info.Date != "" {
				fmt.Fprintf(out, ", built %s", info.Date)
			}
			fmt.Fprint(out, ")")
		}
		fmt.Fprintln(out)
		if info.GoVersion != "" {
			fmt.Fprintf(out, "go:         %s\n", info.GoVersion)
		}
		fmt.Fprintf(out, "generation: %s\n", info.GenerationModel)
		fmt.Fprintf(out, "chat:       %s\n", info.ChatModel)
		fmt.Fprintf(out, "cache:      %s\n", info.CacheBackend)
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "Print version information as JSON")
	rootCmd.AddCommand(versionCmd)
}
