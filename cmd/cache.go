package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/eduvision/internal"
)

// cacheCmd groups artifact cache maintenance
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear cached transcripts, summaries and quizzes",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the artifact cache holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		stats, err := app.CacheStats(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, stats)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Backend: %s\n", stats.Backend)
		fmt.Fprintf(out, "Location: %s\n", stats.Location)
		for _, kind := range internal.ArtifactKinds {
			fmt.Fprintf(out, "%-12s %d\n", kind+":", stats.Entries[kind])
		}
		fmt.Fprintf(out, "Total: %d entries, %d bytes\n", stats.Total(), stats.TotalSize)
		return nil
	},
}

var cacheRmCmd = &cobra.Command{
	Use:   "rm [YouTube URL or ID]",
	Short: "Remove cached artifacts for one video",
	Example: `  # Forget everything about a video
  eduvision cache rm dQw4w9WgXcQ

  # Only drop the quiz and summary
  eduvision cache rm dQw4w9WgXcQ --kind questions --kind summary`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, _ := cmd.Flags().GetStringSlice("kind")
		kinds := make([]internal.ArtifactKind, 0, len(names))
		for _, name := range names {
			kind, err := internal.ParseArtifactKind(name)
			if err != nil {
				return err
			}
			kinds = append(kinds, kind)
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		id, err := app.InvalidateCache(cmd.Context(), internal.ExpandVideoID(args[0]), kinds...)
		if err != nil {
			return err
		}
		newUI(cmd).Printf("Removed cached artifacts for %s\n", id.VideoID())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached artifact",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		n, err := app.ClearCache(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached artifacts\n", n)
		return nil
	},
}

func init() {
	cacheStatsCmd.Flags().Bool("json", false, "Print the stats as JSON")
	cacheRmCmd.Flags().StringSlice("kind", nil, "Artifact kind to remove: transcript, summary or questions (default all)")
	cacheCmd.AddCommand(cacheStatsCmd, cacheRmCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
