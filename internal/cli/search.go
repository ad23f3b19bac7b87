package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/trackbank/internal/service"
)

var (
	searchArc           int
	searchLimit         int
	searchMinSimilarity float64
	searchProfile       string
)

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Find catalog items matching free text",
	Long: `Score every catalog item against a free-text prompt with the planning
scorer and list the best matches. Tempo and key phrases in the text count
the same way they do in a production document.

Examples:
  trackbank search "slow warm piano with rain"
  trackbank search "upbeat drums in A minor" --arc 3 --limit 20`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchArc, "arc", 0, "arc to score section affinity against")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "max results")
	searchCmd.Flags().Float64Var(&searchMinSimilarity, "min-similarity", 0, "raw similarity floor (default from config)")
	searchCmd.Flags().StringVarP(&searchProfile, "profile", "p", "", "scoring profile (default from config)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	m := cfg.Matching
	if cmd.Flags().Changed("min-similarity") {
		m.MinSimilarity = searchMinSimilarity
	}
	if cmd.Flags().Changed("profile") {
		m.Profile = searchProfile
		m.Weights = nil
	}
	opts, err := m.Options()
	if err != nil {
		return err
	}

	e, err := getEmbedder(ctx)
	if err != nil {
		return err
	}
	results, err := service.NewSearchService(store, e, logger).Search(ctx, service.SearchOptions{
		Query:         strings.Join(args, " "),
		Arc:           searchArc,
		Limit:         searchLimit,
		MinSimilarity: opts.MinSimilarity,
		Scoring:       opts.Scoring,
		SkipRecent:    opts.SkipRecent,
		MaxUsage:      opts.MaxUsage,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(w, "No matches above the similarity floor.")
		return nil
	}

	rows := make([][]string, 0, len(results))
	for i, c := range results {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Item.ID,
			fmt.Sprintf("%.3f", c.Score.FinalScore),
			fmt.Sprintf("%.3f", c.Score.Similarity),
			strconv.Itoa(c.Item.Section),
			formatOptional(c.Item.Tempo),
			formatKey(c.Item.Key),
			strconv.Itoa(c.Item.TimesUsed),
			truncateText(c.Item.PromptText, 50),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"#", "Item", "Score", "Similarity", "Section", "BPM", "Key", "Used", "Prompt"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignRight, alignLeft},
	))
	return nil
}
