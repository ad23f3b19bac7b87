package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"github.com/raphaelgruber/trackbank/internal/metrics"
	"github.com/raphaelgruber/trackbank/internal/models"
	"github.com/raphaelgruber/trackbank/internal/playlist"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// isTerminal reports whether stdout is an interactive terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// colorEnabled reports whether output may carry ANSI styling.
func colorEnabled() bool {
	return isTerminal() && os.Getenv("NO_COLOR") == ""
}

func styled(s lipgloss.Style, v string) string {
	if !colorEnabled() {
		return v
	}
	return s.Render(v)
}

func heading(v string) string {
	return styled(lipgloss.NewStyle().Bold(true).Foreground(defaultTheme.Status), v)
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if colorEnabled() {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// formatClock renders seconds as H:MM:SS.
func formatClock(seconds float64) string {
	s := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, s%3600/60, s%60)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 0, 64)
}

func formatKey(k *string) string {
	if k == nil || *k == "" {
		return "-"
	}
	return *k
}

func printPlaylist(w io.Writer, pl *playlist.Playlist) {
	fmt.Fprintln(w, heading(fmt.Sprintf("Playlist: %s", pl.Title)))
	fmt.Fprintf(w, "Production ID: %s\n\n", pl.ProductionID)

	rows := make([][]string, 0, len(pl.Arcs))
	for _, arc := range pl.Arcs {
		name := arc.Name
		if name == "" {
			name = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(arc.Number),
			name,
			strconv.Itoa(len(arc.Entries)),
			formatClock(arc.AccumulatedSeconds),
			formatClock(arc.TargetSeconds),
		})
	}
	rows = append(rows, []string{"", "Total", strconv.Itoa(pl.ItemCount()), formatClock(pl.TotalSeconds), formatClock(pl.TargetSeconds)})
	fmt.Fprintln(w, renderTable(
		[]string{"Arc", "Name", "Items", "Duration", "Target"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
	))

	for _, s := range pl.Shortfalls {
		fmt.Fprintln(w, styled(defaultTheme.warningStyle(),
			fmt.Sprintf("Arc %d ran out of unique items, %s short of target", s.Arc, formatClock(s.SecondsShort))))
	}
}

func printEntries(w io.Writer, pl *playlist.Playlist) {
	for _, arc := range pl.Arcs {
		fmt.Fprintln(w, heading(fmt.Sprintf("\nArc %d %s", arc.Number, arc.Name)))
		rows := make([][]string, 0, len(arc.Entries))
		for _, e := range arc.Entries {
			rows = append(rows, []string{
				strconv.Itoa(e.PromptNumber),
				e.ItemID,
				fmt.Sprintf("%.3f", e.Score),
				fmt.Sprintf("%.3f", e.Similarity),
				formatOptional(e.Tempo),
				formatKey(e.Key),
				formatClock(e.Duration),
				strconv.Itoa(e.TimesUsed),
			})
		}
		fmt.Fprintln(w, renderTable(
			[]string{"Prompt", "Item", "Score", "Similarity", "BPM", "Key", "Duration", "Used"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignRight, alignRight},
		))
	}
}

func printGapReport(w io.Writer, r models.GapReport) {
	fmt.Fprintln(w, heading(fmt.Sprintf("\nGap Analysis (threshold %.2f)", r.Threshold)))
	fmt.Fprintln(w, renderTable(
		[]string{"Category", "Prompts", "Percent"},
		[][]string{
			{"No match", strconv.Itoa(r.NoMatchCount), fmt.Sprintf("%.1f%%", r.NoMatchPercent)},
			{"Low quality", strconv.Itoa(r.LowQualityCount), fmt.Sprintf("%.1f%%", r.LowQualityPercent)},
			{"Good", strconv.Itoa(r.GoodCount), fmt.Sprintf("%.1f%%", r.GoodPercent)},
		},
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))

	if len(r.NoMatchPrompts)+len(r.LowQualityPrompts) > 0 {
		rows := make([][]string, 0, len(r.NoMatchPrompts)+len(r.LowQualityPrompts))
		for _, p := range r.NoMatchPrompts {
			rows = append(rows, []string{fmt.Sprintf("%d.%d", p.Arc, p.Sequence), "-", truncateText(p.Text, 60)})
		}
		for _, p := range r.LowQualityPrompts {
			rows = append(rows, []string{fmt.Sprintf("%d.%d", p.Arc, p.Sequence), fmt.Sprintf("%.3f", *p.BestSimilarity), truncateText(p.Text, 60)})
		}
		fmt.Fprintln(w, renderTable([]string{"Prompt", "Best", "Text"}, rows, []columnAlignment{alignRight, alignRight, alignLeft}))
	}

	msg := fmt.Sprintf("Recommended new generations: %d", r.RecommendedGenerationCount)
	if r.RecommendedGenerationCount == 0 {
		fmt.Fprintln(w, styled(defaultTheme.completedStyle(), msg))
	} else {
		fmt.Fprintln(w, styled(defaultTheme.warningStyle(), msg))
	}
}

func printMetrics(w io.Writer, snap metrics.Snapshot) {
	fmt.Fprintln(w, heading(fmt.Sprintf("\nTimings (%.1fs)", snap.UptimeSeconds)))
	if len(snap.Operations) == 0 {
		fmt.Fprintln(w, "No operations recorded.")
		return
	}
	rows := make([][]string, 0, len(snap.Operations))
	for _, op := range snap.Operations {
		rows = append(rows, []string{
			op.Name,
			strconv.FormatInt(op.Count, 10),
			strconv.FormatInt(op.Items, 10),
			strconv.FormatInt(op.TotalTimeMs, 10),
			fmt.Sprintf("%.1f", op.AvgTimeMs),
			strconv.FormatInt(op.MinTimeMs, 10),
			strconv.FormatInt(op.MaxTimeMs, 10),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Operation", "Count", "Items", "Total ms", "Avg ms", "Min ms", "Max ms"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
}

func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
