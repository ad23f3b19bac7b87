package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/trackbank/internal/config"
	"github.com/raphaelgruber/trackbank/internal/match"
	"github.com/raphaelgruber/trackbank/internal/models"
	"github.com/raphaelgruber/trackbank/internal/parser"
	"github.com/raphaelgruber/trackbank/internal/playlist"
	"github.com/raphaelgruber/trackbank/internal/service"
)

var (
	planDuration      int
	planTopK          int
	planDepth         int
	planMinSimilarity float64
	planGapThreshold  float64
	planProfile       string
	planSkipRecent    int
	planMaxUsage      int
	planOutput        string
	planRemaining     string
	planShowItems     bool
)

var planCmd = &cobra.Command{
	Use:   "plan <prompts.md>",
	Short: "Match a production document against the catalog",
	Long: `Parse a production prompt document, rank catalog items for every prompt,
fill each arc to its share of the target duration and write the playlist.

The target duration comes from --duration, then the document's frontmatter,
then the configured default.

Examples:
  trackbank plan prompts/night-study.md
  trackbank plan prompts/night-study.md --duration 120 --profile fresh
  trackbank plan prompts/night-study.md --skip-recent 2 --max-usage 3 -o out/playlist.json
  trackbank plan prompts/night-study.md --remaining out/remaining.md`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().IntVarP(&planDuration, "duration", "d", 0, "target duration in minutes")
	planCmd.Flags().IntVarP(&planTopK, "top-k", "k", 0, "candidates reported per prompt (0 = all)")
	planCmd.Flags().IntVar(&planDepth, "depth", 0, "candidates the allocator may draw from per prompt (0 = every match above the floor, not only the top-k; set equal to --top-k to fill arcs from reported matches only)")
	planCmd.Flags().Float64Var(&planMinSimilarity, "min-similarity", 0, "raw similarity floor")
	planCmd.Flags().Float64Var(&planGapThreshold, "gap-threshold", 0, "similarity below which a match counts as low quality")
	planCmd.Flags().StringVarP(&planProfile, "profile", "p", "", fmt.Sprintf("scoring profile %v", match.ProfileNames()))
	planCmd.Flags().IntVar(&planSkipRecent, "skip-recent", 0, "exclude items used in the last N productions")
	planCmd.Flags().IntVar(&planMaxUsage, "max-usage", 0, "exclude items used more than N times")
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "", "playlist file, .yaml or .json (default playlists/<title>.yaml)")
	planCmd.Flags().StringVar(&planRemaining, "remaining", "", "write prompts without a selection to this Markdown file")
	planCmd.Flags().BoolVar(&planShowItems, "items", false, "print every selected item")
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read prompts: %w", err)
	}
	doc, err := parser.ParseProduction(string(content))
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}
	if doc.Title == "" {
		doc.Title = trimExt(filepath.Base(args[0]))
	}

	m := planMatching(cmd, cfg.Matching, doc)
	opts, err := m.Options()
	if err != nil {
		return err
	}

	e, err := getEmbedder(ctx)
	if err != nil {
		return err
	}
	svc := service.NewPlanService(store, e, logger, collector).WithBatchSize(cfg.EmbedBatchSize)

	res, err := svc.Plan(ctx, service.PlanRequest{Doc: doc, Options: opts, Profile: m.Profile})
	if err != nil {
		return err
	}
	pl := res.Playlist

	out := planOutput
	if out == "" {
		out = filepath.Join("playlists", models.Slugify(doc.Title)+".yaml")
	}
	if err := playlist.Write(out, pl); err != nil {
		return err
	}
	if planRemaining != "" {
		if err := playlist.WriteRemainingFile(planRemaining, pl); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	printPlaylist(w, pl)
	if planShowItems {
		printEntries(w, pl)
	}
	printGapReport(w, pl.Gaps)

	fmt.Fprintf(w, "\nPlaylist saved to %s\n", out)
	if planRemaining != "" {
		fmt.Fprintf(w, "Remaining prompts saved to %s\n", planRemaining)
	}
	return nil
}

// planMatching applies document and flag overrides to the configured matching defaults.
func planMatching(cmd *cobra.Command, m config.Matching, doc *models.ProductionDoc) config.Matching {
	flags := cmd.Flags()

	if doc.TargetMinutes > 0 {
		m.TargetMinutes = doc.TargetMinutes
	}
	if flags.Changed("duration") {
		m.TargetMinutes = planDuration
	}
	if flags.Changed("top-k") {
		m.TopK = planTopK
	}
	if flags.Changed("depth") {
		m.AllocationDepth = planDepth
	}
	if flags.Changed("min-similarity") {
		m.MinSimilarity = planMinSimilarity
	}
	if flags.Changed("gap-threshold") {
		m.GapThreshold = &planGapThreshold
	}
	if flags.Changed("profile") {
		m.Profile = planProfile
		m.Weights = nil
	}
	if flags.Changed("skip-recent") {
		m.SkipRecent = planSkipRecent
	}
	if flags.Changed("max-usage") {
		m.MaxUsage = &planMaxUsage
	}
	return m
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
