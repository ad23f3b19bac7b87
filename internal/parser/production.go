// Package parser reads production prompt documents and catalog filenames.
package parser

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/trackbank/internal/models"
)

// frontmatter is the YAML header of a production document.
type frontmatter struct {
	Title    string `yaml:"title"`
	Theme    string `yaml:"theme"`
	Duration string `yaml:"duration"`
}

var (
	h1Regex = regexp.MustCompile(`^#\s+(.+)$`)

	// "## Arc 1: Warm Up", "### Phase 2 – Deep Focus (3 prompts)", "### 🌙 Phase 4 - Wind Down"
	arcRegex = regexp.MustCompile(`(?i)^#{2,3}\s*(?:\S+\s+)?(?:arc|phase)\s+(\d+)\s*[:–—-]\s*(.+?)\s*(?:\((.+?)\))?\s*$`)

	// "1. text", "- [x] 1. text", "X 1. text", "✓ 1. text"
	promptRegex = regexp.MustCompile(`(?i)^\s*(?:[-*]\s*\[[ x]\]\s*|[x✓✅]\s+)?(\d+)[.)]\s+(.+?)\s*$`)

	hoursRegex = regexp.MustCompile(`(?i)^(\d+)\s*(?:h|hours?)$`)
	bpmRegex   = regexp.MustCompile(`(?i)\b(\d{2,3})\s*bpm\b`)
	keyRegex   = regexp.MustCompile(`\b([A-G][#b]?)\s+(major|minor)\b`)
)

// tempoKeyword maps a phrase in a prompt to a tempo category. Order matters:
// the first matching category sets the expected tempo.
type tempoKeyword struct {
	keyword
	category string
}

// keyword is a phrase matched case-insensitively as a whole word, plural
// allowed. "pad" matches "pads" but not "padding"; "fast" never fires on "breakfast".
type keyword struct {
	phrase string
	re     *regexp.Regexp
}

func newKeyword(phrase string) keyword {
	return keyword{phrase: phrase, re: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `s?\b`)}
}

func newKeywords(phrases ...string) []keyword {
	out := make([]keyword, len(phrases))
	for i, p := range phrases {
		out[i] = newKeyword(p)
	}
	return out
}

var tempoKeywords = []tempoKeyword{
	{newKeyword("very slow"), "very_slow"},
	{newKeyword("extremely slow"), "very_slow"},
	{newKeyword("slow tempo"), "slow"},
	{newKeyword("slow"), "slow"},
	{newKeyword("downtempo"), "slow"},
	{newKeyword("mid-tempo"), "mid_tempo"},
	{newKeyword("mid tempo"), "mid_tempo"},
	{newKeyword("moderate"), "mid_tempo"},
	{newKeyword("upbeat"), "upbeat"},
	{newKeyword("energetic"), "upbeat"},
	{newKeyword("fast"), "fast"},
	{newKeyword("rapid"), "fast"},
}

// TempoBPM is the representative tempo of each category.
var TempoBPM = map[string]float64{
	"very_slow": 50,
	"slow":      70,
	"mid_tempo": 95,
	"upbeat":    120,
	"fast":      150,
}

var vibeKeywords = newKeywords(
	"ambient", "atmospheric", "nostalgic", "dreamy",
	"focused", "focus", "calm", "relaxing", "energetic",
	"melancholic", "uplifting", "dark", "bright",
	"hazy", "clear", "minimal", "rhythmic",
	"hypnotic", "smooth", "warm", "cold", "static",
)

var instrumentKeywords = newKeywords(
	"synth", "piano", "guitar", "bass", "drum machine", "percussion", "drums",
	"hi-hat", "pad", "arp", "organ", "strings", "tape", "vinyl", "analog",
)

// ParseProduction parses a Markdown production document into arcs and prompts.
// Prompts outside an arc heading are ignored.
func ParseProduction(content string) (*models.ProductionDoc, error) {
	fm, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	// TargetMinutes stays 0 without a duration so callers can fall back to their own default.
	doc := &models.ProductionDoc{Title: fm.Title, Theme: fm.Theme}
	if fm.Duration != "" {
		minutes, err := parseMinutes(fm.Duration)
		if err != nil {
			return nil, err
		}
		doc.TargetMinutes = minutes
	}

	var current *models.Arc
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()

		if doc.Title == "" {
			if m := h1Regex.FindStringSubmatch(line); m != nil {
				doc.Title = strings.TrimSpace(m[1])
				continue
			}
		}

		if m := arcRegex.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			doc.Arcs = append(doc.Arcs, models.Arc{Number: n, Name: cleanText(m[2])})
			current = &doc.Arcs[len(doc.Arcs)-1]
			continue
		}

		if current == nil {
			continue
		}
		if m := promptRegex.FindStringSubmatch(line); m != nil {
			seq, _ := strconv.Atoi(m[1])
			current.Prompts = append(current.Prompts, newPrompt(current.Number, current.Name, seq, m[2]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}

	if doc.PromptCount() == 0 {
		return nil, fmt.Errorf("no prompts found")
	}
	return doc, nil
}

// ParsePrompt builds a standalone prompt from free text, extracting the same
// tempo, key and keyword hints as document prompts.
func ParsePrompt(arc int, text string) models.Prompt {
	return newPrompt(arc, "", 1, text)
}

func newPrompt(arc int, arcName string, seq int, raw string) models.Prompt {
	text := cleanText(raw)
	p := models.Prompt{
		Arc:             arc,
		ArcName:         arcName,
		Sequence:        seq,
		Text:            text,
		TempoHints:      TempoHints(text),
		VibeHints:       matchKeywords(text, vibeKeywords),
		InstrumentHints: matchKeywords(text, instrumentKeywords),
	}

	if m := bpmRegex.FindStringSubmatch(text); m != nil {
		bpm, _ := strconv.ParseFloat(m[1], 64)
		p.ExpectedTempo = &bpm
	} else if len(p.TempoHints) > 0 {
		bpm := TempoBPM[p.TempoHints[0]]
		p.ExpectedTempo = &bpm
	}

	if m := keyRegex.FindStringSubmatch(text); m != nil {
		key := m[1] + " " + m[2]
		p.ExpectedKey = &key
	}
	return p
}

// TempoHints returns the tempo categories mentioned in text, first match first.
func TempoHints(text string) []string {
	var hints []string
	for _, kw := range tempoKeywords {
		if kw.re.MatchString(text) && !contains(hints, kw.category) {
			hints = append(hints, kw.category)
		}
	}
	return hints
}

func matchKeywords(text string, keywords []keyword) []string {
	var hits []string
	for _, kw := range keywords {
		if kw.re.MatchString(text) {
			hits = append(hits, kw.phrase)
		}
	}
	return hits
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// cleanText strips markdown emphasis and surrounding quotes.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'“”`)
	return strings.TrimSpace(s)
}

// splitFrontmatter separates an optional YAML header from the document body.
func splitFrontmatter(content string) (frontmatter, string, error) {
	var fm frontmatter
	if !strings.HasPrefix(content, "---\n") {
		return fm, content, nil
	}
	endIdx := strings.Index(content[4:], "\n---")
	if endIdx < 0 {
		return fm, content, nil
	}

	raw := content[4 : 4+endIdx]
	body := strings.TrimPrefix(content[4+endIdx+4:], "\n")
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return fm, "", fmt.Errorf("parse frontmatter: %w", err)
	}
	return fm, body, nil
}

// parseMinutes accepts "180", "3h", "3 hours" and Go durations like "2h30m".
func parseMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, validMinutes(n, s)
	}
	if m := hoursRegex.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n * 60, validMinutes(n*60, s)
	}
	d, err := time.ParseDuration(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return int(d.Minutes()), validMinutes(int(d.Minutes()), s)
}

func validMinutes(n int, raw string) error {
	if n <= 0 {
		return fmt.Errorf("invalid duration %q: must be positive", raw)
	}
	return nil
}
