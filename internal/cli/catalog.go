package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/trackbank/internal/service"
)

var (
	importReembed bool
	importDryRun  bool
	statsLimit    int
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the clip catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <manifest.yaml>",
	Short: "Import or update items from a YAML manifest",
	Long: `Import items from a YAML manifest. Sections default to the arc encoded in
the filename (2_6_19a.mp3 is arc 2). Items without an embedding are embedded
with the configured provider. Existing items keep their usage history.

Examples:
  trackbank catalog import manifests/rainy-evenings.yaml
  trackbank catalog import manifests/rainy-evenings.yaml --reembed
  trackbank catalog import manifests/rainy-evenings.yaml --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogImport,
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog totals and usage",
	RunE:  runCatalogStats,
}

func init() {
	catalogImportCmd.Flags().BoolVar(&importReembed, "reembed", false, "regenerate embeddings for every item")
	catalogImportCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate and embed without writing")
	catalogStatsCmd.Flags().IntVarP(&statsLimit, "limit", "n", 10, "items listed per section")

	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogStatsCmd)
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	manifest, err := service.ReadManifest(args[0])
	if err != nil {
		return err
	}
	e, err := getEmbedder(ctx)
	if err != nil {
		return err
	}
	svc := service.NewCatalogService(store, e, logger, collector, cfg.EmbedBatchSize)

	run := func(ctx context.Context, progress func(done, total int)) (*service.ImportResult, error) {
		return svc.Import(ctx, manifest, service.ImportOptions{
			Reembed:  importReembed,
			DryRun:   importDryRun,
			Progress: progress,
		})
	}

	var res *service.ImportResult
	if isTerminal() {
		res, err = runWithProgress(ctx, run)
	} else {
		res, err = run(ctx, func(done, total int) {
			logger.Info("embedding", "done", done, "total", total)
		})
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	title := "✓ Import complete"
	if importDryRun {
		title = "✓ Dry run complete"
	}
	fmt.Fprintln(w, styled(defaultTheme.completedStyle(), title))
	fmt.Fprintf(w, "  Items imported: %d\n", res.ItemsImported)
	fmt.Fprintf(w, "  Items embedded: %d\n", res.ItemsEmbedded)
	fmt.Fprintf(w, "  Items skipped:  %d\n", res.ItemsSkipped)
	if len(res.Errors) > 0 {
		fmt.Fprintln(w, styled(defaultTheme.errorStyle(), fmt.Sprintf("\nWarnings (%d):", len(res.Errors))))
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  • %s\n", e)
		}
	}
	return nil
}

func runCatalogStats(cmd *cobra.Command, args []string) error {
	st, err := service.NewCatalogService(store, nil, logger, collector, 0).Stats(cmd.Context(), statsLimit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, heading("Catalog"))
	fmt.Fprintln(w, renderTable(
		[]string{"Metric", "Value"},
		[][]string{
			{"Items", strconv.Itoa(st.TotalItems)},
			{"With embedding", strconv.Itoa(st.Embedded)},
			{"Used", strconv.Itoa(st.UsedItems)},
			{"Never used", strconv.Itoa(st.UnusedItems)},
			{"Total duration", formatClock(st.TotalSeconds)},
			{"Productions", strconv.Itoa(st.Productions)},
		},
		[]columnAlignment{alignLeft, alignRight},
	))

	sections := make([]int, 0, len(st.SectionCounts))
	for s := range st.SectionCounts {
		sections = append(sections, s)
	}
	sort.Ints(sections)
	rows := make([][]string, 0, len(sections))
	for _, s := range sections {
		label := strconv.Itoa(s)
		if s == 0 {
			label = "unset"
		}
		rows = append(rows, []string{label, strconv.Itoa(st.SectionCounts[s])})
	}
	fmt.Fprintln(w, heading("\nBy section"))
	fmt.Fprintln(w, renderTable([]string{"Section", "Items"}, rows, []columnAlignment{alignLeft, alignRight}))

	if len(st.MostUsed) > 0 {
		rows = rows[:0]
		for _, it := range st.MostUsed {
			last := "-"
			if it.LastUsedAt != nil {
				last = it.LastUsedAt.Format("2006-01-02")
			}
			rows = append(rows, []string{it.ID, strconv.Itoa(it.TimesUsed), last})
		}
		fmt.Fprintln(w, heading("\nMost used"))
		fmt.Fprintln(w, renderTable([]string{"Item", "Used", "Last used"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
	}

	if len(st.Unused) > 0 {
		rows = rows[:0]
		for _, it := range st.Unused {
			rows = append(rows, []string{it.ID, strconv.Itoa(it.Section), formatClock(it.Duration)})
		}
		fmt.Fprintln(w, heading("\nNever used"))
		fmt.Fprintln(w, renderTable([]string{"Item", "Section", "Duration"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
	}
	return nil
}
