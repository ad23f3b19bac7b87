package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/trackbank/internal/models"
	"github.com/raphaelgruber/trackbank/internal/playlist"
	"github.com/raphaelgruber/trackbank/internal/service"
)

var commitPublishedAt string

var commitCmd = &cobra.Command{
	Use:   "commit <playlist>",
	Short: "Record a playlist as a production and update item usage",
	Long: `Store the playlist's production in the history and, for every selected
item, increment its usage count and stamp the production as its last use.
Both writes land together: a failed commit can simply be rerun, and a
playlist that was committed once is rejected.

Examples:
  trackbank commit playlists/night-study.yaml
  trackbank commit playlists/night-study.yaml --published-at 2026-07-01`,
	Args: cobra.ExactArgs(1),
	RunE: runCommit,
}

func init() {
	commitCmd.Flags().StringVar(&commitPublishedAt, "published-at", "", "publication date (YYYY-MM-DD or RFC 3339)")
}

func runCommit(cmd *cobra.Command, args []string) error {
	pl, err := playlist.Read(args[0])
	if err != nil {
		return err
	}

	var opts service.CommitOptions
	if commitPublishedAt != "" {
		t, err := parseDate(commitPublishedAt)
		if err != nil {
			return err
		}
		opts.PublishedAt = &t
	}

	prod, err := service.NewCommitService(store, logger).Commit(cmd.Context(), pl, opts)
	if errors.Is(err, models.ErrProductionExists) {
		return fmt.Errorf("%s was already committed as production %s", args[0], pl.ProductionID)
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, styled(defaultTheme.completedStyle(), fmt.Sprintf("✓ Committed production #%d", prod.Number)))
	fmt.Fprintf(w, "  ID:    %s\n", prod.ID)
	fmt.Fprintf(w, "  Title: %s\n", prod.Title)
	fmt.Fprintf(w, "  Items: %d\n", pl.ItemCount())
	return nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}
