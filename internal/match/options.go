package match

import (
	"fmt"
	"math"
	"runtime"
	"sort"
)

// Weights are the linear coefficients of the final score.
type Weights struct {
	Similarity float64 `json:"similarity" yaml:"similarity"`
	Section    float64 `json:"section" yaml:"section"`
	Tempo      float64 `json:"tempo" yaml:"tempo"`
	Key        float64 `json:"key" yaml:"key"`
	Usage      float64 `json:"usage" yaml:"usage"`
}

// weightSumTolerance is how far the weight sum may drift from 1.0.
const weightSumTolerance = 0.01

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Similarity + w.Section + w.Tempo + w.Key + w.Usage
}

// Validate rejects negative weights and sums away from 1.0.
func (w Weights) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"similarity", w.Similarity},
		{"section", w.Section},
		{"tempo", w.Tempo},
		{"key", w.Key},
		{"usage", w.Usage},
	} {
		if f.v < 0 {
			return fmt.Errorf("%w: %s weight is negative (%.3f)", ErrConfiguration, f.name, f.v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %.3f, want 1.0", ErrConfiguration, sum)
	}
	return nil
}

// Scoring profile names.
const (
	ProfileDefault  = "default"
	ProfileSemantic = "semantic"
	ProfileMusical  = "musical"
	ProfileFresh    = "fresh"
)

var profiles = map[string]Weights{
	ProfileDefault:  {Similarity: 0.50, Section: 0.20, Tempo: 0.15, Key: 0.10, Usage: 0.05},
	ProfileSemantic: {Similarity: 0.70, Section: 0.10, Tempo: 0.10, Key: 0.05, Usage: 0.05},
	ProfileMusical:  {Similarity: 0.35, Section: 0.15, Tempo: 0.25, Key: 0.20, Usage: 0.05},
	ProfileFresh:    {Similarity: 0.45, Section: 0.15, Tempo: 0.10, Key: 0.10, Usage: 0.20},
}

// Profile returns the weights of a named scoring profile.
func Profile(name string) (Weights, error) {
	w, ok := profiles[name]
	if !ok {
		return Weights{}, fmt.Errorf("%w: unknown scoring profile %q", ErrConfiguration, name)
	}
	return w, nil
}

// ProfileNames lists the available scoring profiles in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScoringConfig controls how the Scorer turns signals into a final score.
type ScoringConfig struct {
	Weights Weights

	// AdjacentSectionBonus is the section bonus for an item one arc away.
	AdjacentSectionBonus float64

	// TempoTolerance is the BPM distance that still scores a full 1.
	TempoTolerance float64
	// TempoOuterBound is the BPM distance where the tempo score reaches 0.
	TempoOuterBound float64

	// CompatibleKeyScore is awarded for relative, parallel and fifth-related keys.
	CompatibleKeyScore float64
}

// DefaultScoringConfig returns the default profile with stock tolerances.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights:            profiles[ProfileDefault],
		TempoTolerance:     5,
		TempoOuterBound:    20,
		CompatibleKeyScore: 0.5,
	}
}

// Validate checks weights and every bounded parameter.
func (c ScoringConfig) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.AdjacentSectionBonus < 0 || c.AdjacentSectionBonus > 1 {
		return fmt.Errorf("%w: adjacent section bonus %.3f outside [0,1]", ErrConfiguration, c.AdjacentSectionBonus)
	}
	if c.CompatibleKeyScore < 0 || c.CompatibleKeyScore > 1 {
		return fmt.Errorf("%w: compatible key score %.3f outside [0,1]", ErrConfiguration, c.CompatibleKeyScore)
	}
	if c.TempoTolerance < 0 {
		return fmt.Errorf("%w: tempo tolerance is negative", ErrConfiguration)
	}
	if c.TempoOuterBound <= c.TempoTolerance {
		return fmt.Errorf("%w: tempo outer bound %.1f must exceed tolerance %.1f", ErrConfiguration, c.TempoOuterBound, c.TempoTolerance)
	}
	return nil
}

// Options configures one engine run. Zero values are not defaults; start from DefaultOptions.
type Options struct {
	Scoring ScoringConfig

	// TargetSeconds is the requested total running time across all arcs.
	TargetSeconds float64

	// TopK bounds the reported candidates per prompt. 0 means unlimited.
	TopK int
	// AllocationDepth bounds the candidates the allocator may draw from per prompt.
	// 0 means every candidate above the floor, so arcs can fill past the reported
	// top-k. Set it to TopK to draw only from the reported matches.
	AllocationDepth int
	// MinSimilarity is the raw similarity floor applied before weighting.
	MinSimilarity float64
	// GapThreshold classifies low-quality matches. Nil uses MinSimilarity.
	GapThreshold *float64

	// SkipRecent excludes items used in the last N productions. 0 disables.
	SkipRecent int
	// MaxUsage excludes items used more than this many times. Nil disables.
	MaxUsage *int

	// Concurrency bounds parallel ranking. 0 uses GOMAXPROCS.
	Concurrency int
}

// DefaultOptions returns the stock options for a three hour production.
func DefaultOptions() Options {
	return Options{
		Scoring:       DefaultScoringConfig(),
		TargetSeconds: 180 * 60,
		TopK:          5,
		MinSimilarity: 0.6,
	}
}

// Validate reports the first invalid option.
func (o Options) Validate() error {
	if err := o.Scoring.Validate(); err != nil {
		return err
	}
	if o.TargetSeconds <= 0 {
		return fmt.Errorf("%w: target duration must be positive", ErrConfiguration)
	}
	if o.TopK < 0 {
		return fmt.Errorf("%w: top-k is negative", ErrConfiguration)
	}
	if o.AllocationDepth < 0 {
		return fmt.Errorf("%w: allocation depth is negative", ErrConfiguration)
	}
	if o.MinSimilarity < 0 || o.MinSimilarity > 1 {
		return fmt.Errorf("%w: min similarity %.3f outside [0,1]", ErrConfiguration, o.MinSimilarity)
	}
	if o.GapThreshold != nil && (*o.GapThreshold < 0 || *o.GapThreshold > 1) {
		return fmt.Errorf("%w: gap threshold %.3f outside [0,1]", ErrConfiguration, *o.GapThreshold)
	}
	if o.SkipRecent < 0 {
		return fmt.Errorf("%w: skip-recent is negative", ErrConfiguration)
	}
	if o.MaxUsage != nil && *o.MaxUsage < 0 {
		return fmt.Errorf("%w: max usage is negative", ErrConfiguration)
	}
	if o.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency is negative", ErrConfiguration)
	}
	return nil
}

func (o Options) gapThreshold() float64 {
	if o.GapThreshold != nil {
		return *o.GapThreshold
	}
	return o.MinSimilarity
}

func (o Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}
