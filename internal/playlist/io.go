package playlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for a playlist path without a .yaml, .yml or .json extension.
var ErrUnknownFormat = errors.New("unknown playlist format")

type format int

const (
	formatYAML format = iota
	formatJSON
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".json":
		return formatJSON, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Write saves the playlist to path, choosing YAML or JSON by extension.
func Write(path string, p *Playlist) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create playlist directory: %w", err)
	}

	var data []byte
	switch f {
	case formatJSON:
		data, err = json.MarshalIndent(p, "", "  ")
	default:
		data, err = yaml.Marshal(p)
	}
	if err != nil {
		return fmt.Errorf("encode playlist: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write playlist: %w", err)
	}
	return nil
}

// Read loads a playlist written by Write.
func Read(path string) (*Playlist, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}

	var p Playlist
	switch f {
	case formatJSON:
		err = json.Unmarshal(data, &p)
	default:
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("parse playlist %s: %w", path, err)
	}
	return &p, nil
}

// WriteRemaining renders the prompts without a selection as Markdown, grouped by arc.
func WriteRemaining(w io.Writer, p *Playlist) error {
	remaining := p.Remaining()
	arcNames := make(map[int]string, len(p.Arcs))
	for _, a := range p.Arcs {
		arcNames[a.Number] = a.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Remaining Prompts\n\n", p.Title)
	fmt.Fprintf(&b, "**Items Selected:** %d\n\n", p.ItemCount())
	if len(remaining) == 0 {
		b.WriteString("All prompts have been filled.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	fmt.Fprintf(&b, "**Prompts Remaining:** %d\n\n---\n", len(remaining))

	arc := -1
	for _, gp := range remaining {
		if gp.Arc != arc {
			arc = gp.Arc
			name := arcNames[arc]
			if name == "" {
				name = "Remaining"
			}
			// Headings stay parseable so the document can be fed back to plan.
			fmt.Fprintf(&b, "\n## Arc %d: %s\n", arc, name)
		}
		fmt.Fprintf(&b, "\n%d. %s\n", gp.Sequence, gp.Text)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteRemainingFile writes the remaining-prompts document to path.
func WriteRemainingFile(path string, p *Playlist) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write remaining prompts: %w", err)
	}
	if err := WriteRemaining(f, p); err != nil {
		f.Close()
		return fmt.Errorf("write remaining prompts: %w", err)
	}
	return f.Close()
}
