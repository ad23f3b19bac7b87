package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/trackbank/internal/playlist"
)

var (
	gapsThreshold float64
	gapsRemaining string
)

var gapsCmd = &cobra.Command{
	Use:   "gaps <playlist>",
	Short: "Re-run gap analysis on a saved playlist",
	Long: `Classify every prompt of a saved playlist as no match, low quality or good,
optionally against a different similarity threshold.

Examples:
  trackbank gaps playlists/night-study.yaml
  trackbank gaps playlists/night-study.json --min-similarity 0.7 --remaining remaining.md`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNoStore: "true"},
	RunE:        runGaps,
}

func init() {
	gapsCmd.Flags().Float64Var(&gapsThreshold, "min-similarity", 0, "threshold (default: the one saved in the playlist)")
	gapsCmd.Flags().StringVar(&gapsRemaining, "remaining", "", "write prompts without a selection to this Markdown file")
}

func runGaps(cmd *cobra.Command, args []string) error {
	pl, err := playlist.Read(args[0])
	if err != nil {
		return err
	}

	threshold := pl.Gaps.Threshold
	if cmd.Flags().Changed("min-similarity") {
		if gapsThreshold < 0 || gapsThreshold > 1 {
			return fmt.Errorf("min-similarity %.3f outside [0,1]", gapsThreshold)
		}
		threshold = gapsThreshold
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, heading(pl.Title))
	printGapReport(w, pl.Reanalyze(threshold))

	if gapsRemaining != "" {
		if err := playlist.WriteRemainingFile(gapsRemaining, pl); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nRemaining prompts saved to %s\n", gapsRemaining)
	}
	return nil
}
