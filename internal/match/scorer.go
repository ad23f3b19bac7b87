package match

import (
	"fmt"
	"math"

	"github.com/raphaelgruber/trackbank/internal/models"
)

// neutralScore is used when a signal cannot be computed for lack of data.
const neutralScore = 0.5

// Scorer combines similarity and musical signals into a ScoreBreakdown.
// It holds no state beyond its configuration and is safe for concurrent use.
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer validates cfg and returns a Scorer.
func NewScorer(cfg ScoringConfig) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Score computes every component for one (prompt, item) pair given the raw cosine similarity.
func (s *Scorer) Score(prompt models.Prompt, item models.CatalogItem, similarity float64) models.ScoreBreakdown {
	b := models.ScoreBreakdown{
		Similarity:       clamp01(similarity),
		SectionBonus:     s.sectionBonus(prompt.Arc, item.Section),
		TempoProximity:   s.tempoProximity(prompt.ExpectedTempo, item.Tempo),
		KeyCompatibility: s.keyCompatibility(prompt.ExpectedKey, item.Key),
		UsagePenalty:     UsagePenalty(item.TimesUsed),
	}

	w := s.cfg.Weights
	b.FinalScore = w.Similarity*b.Similarity +
		w.Section*b.SectionBonus +
		w.Tempo*b.TempoProximity +
		w.Key*b.KeyCompatibility +
		w.Usage*b.UsagePenalty
	return b
}

// UsagePenalty is 1/(1+timesUsed): 1 for a fresh item, approaching 0 with heavy reuse.
func UsagePenalty(timesUsed int) float64 {
	if timesUsed < 0 {
		timesUsed = 0
	}
	return 1 / (1 + float64(timesUsed))
}

func (s *Scorer) sectionBonus(arc, section int) float64 {
	if section == 0 || arc == 0 {
		return 0
	}
	switch d := arc - section; {
	case d == 0:
		return 1
	case d == 1 || d == -1:
		return s.cfg.AdjacentSectionBonus
	default:
		return 0
	}
}

func (s *Scorer) tempoProximity(expected, actual *float64) float64 {
	if expected == nil || actual == nil {
		return neutralScore
	}
	diff := math.Abs(*expected - *actual)
	tol, outer := s.cfg.TempoTolerance, s.cfg.TempoOuterBound
	switch {
	case diff <= tol:
		return 1
	case diff >= outer:
		return 0
	default:
		return 1 - (diff-tol)/(outer-tol)
	}
}

func (s *Scorer) keyCompatibility(expected, actual *string) float64 {
	if expected == nil || actual == nil {
		return neutralScore
	}
	a, okA := parseKey(*expected)
	b, okB := parseKey(*actual)
	if !okA || !okB {
		return neutralScore
	}
	switch relateKeys(a, b) {
	case keyIdentical:
		return 1
	case keyCompatible:
		return s.cfg.CompatibleKeyScore
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// formatBreakdown renders a breakdown for debug logging.
func formatBreakdown(b models.ScoreBreakdown) string {
	return fmt.Sprintf("final=%.3f sim=%.3f section=%.2f tempo=%.2f key=%.2f usage=%.2f",
		b.FinalScore, b.Similarity, b.SectionBonus, b.TempoProximity, b.KeyCompatibility, b.UsagePenalty)
}
