package cli

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/trackbank/internal/service"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Warning: lipgloss.Color("#FFAF00"), // amber
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) warningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warning)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// embedProgressMsg reports finished embedding batches.
type embedProgressMsg struct {
	done, total int
}

// importDoneMsg ends the progress display.
type importDoneMsg struct {
	err error
}

// progressModel is the bubbletea model for a running catalog import.
type progressModel struct {
	progress progress.Model
	theme    Theme
	cancel   context.CancelFunc
	done     int
	total    int
	finished bool
	quitting bool
	err      error
}

func newProgressModel(cancel context.CancelFunc) progressModel {
	return progressModel{
		progress: progress.New(
			progress.WithDefaultBlend(),
			progress.WithWidth(40),
		),
		theme:  defaultTheme,
		cancel: cancel,
	}
}

// Init returns the initial command.
func (m progressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case embedProgressMsg:
		m.done, m.total = msg.done, msg.total
		return m, nil

	case importDoneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.quitting {
		return m.theme.hintStyle().Render("\nImport cancelled.\n")
	}
	if m.finished {
		if m.err != nil {
			return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Import failed: %s\n", m.err))
		}
		return m.theme.completedStyle().Render("✓ Embeddings complete") + "\n"
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}
	status := m.theme.statusStyle().Render("[embedding]")
	counts := fmt.Sprintf("%d/%d items", m.done, m.total)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to cancel")
	return fmt.Sprintf("%s %s %s\n%s\n", status, m.progress.ViewAs(pct), counts, hint)
}

type importFunc func(ctx context.Context, progress func(done, total int)) (*service.ImportResult, error)

// runWithProgress runs fn while an interactive progress bar tracks embedding batches.
// Ctrl+C cancels the import.
func runWithProgress(ctx context.Context, fn importFunc) (*service.ImportResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		res *service.ImportResult
		err error
	}
	results := make(chan outcome, 1)

	p := tea.NewProgram(newProgressModel(cancel))
	go func() {
		res, err := fn(ctx, func(done, total int) {
			p.Send(embedProgressMsg{done: done, total: total})
		})
		results <- outcome{res, err}
		p.Send(importDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-results
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	out := <-results
	return out.res, out.err
}
