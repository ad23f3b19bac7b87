package models

import "time"

// ScoreBreakdown holds every component of a (prompt, item) score.
type ScoreBreakdown struct {
	Similarity       float64 `json:"similarity" yaml:"similarity"`
	SectionBonus     float64 `json:"section_bonus" yaml:"section_bonus"`
	TempoProximity   float64 `json:"tempo_proximity" yaml:"tempo_proximity"`
	KeyCompatibility float64 `json:"key_compatibility" yaml:"key_compatibility"`
	UsagePenalty     float64 `json:"usage_penalty" yaml:"usage_penalty"`
	FinalScore       float64 `json:"final_score" yaml:"final_score"`
}

// Candidate pairs a catalog item with its score for one prompt.
type Candidate struct {
	Item  CatalogItem
	Score ScoreBreakdown
}

// MatchResult is the ranked candidate list for one prompt, best first.
type MatchResult struct {
	Prompt     Prompt
	Candidates []Candidate
}

// Best returns the top candidate, or nil when nothing matched.
func (m MatchResult) Best() *Candidate {
	if len(m.Candidates) == 0 {
		return nil
	}
	return &m.Candidates[0]
}

// Selection is one committed-to-be (prompt, item) pair inside an arc.
type Selection struct {
	Prompt    Prompt
	Candidate Candidate
}

// ArcAllocation is the ordered selection for one arc with duration bookkeeping.
type ArcAllocation struct {
	Arc                int
	TargetSeconds      float64
	Selections         []Selection
	AccumulatedSeconds float64
}

// Shortfall records an arc that ran out of unique candidates before its target.
type Shortfall struct {
	Arc          int     `json:"arc" yaml:"arc"`
	SecondsShort float64 `json:"seconds_short" yaml:"seconds_short"`
}

// Allocation is the result of one allocator run.
type Allocation struct {
	Arcs       []ArcAllocation
	Shortfalls []Shortfall
}

// TotalSeconds sums accumulated seconds over every arc.
func (a Allocation) TotalSeconds() float64 {
	var total float64
	for _, arc := range a.Arcs {
		total += arc.AccumulatedSeconds
	}
	return total
}

// ItemCount returns the number of selections over every arc.
func (a Allocation) ItemCount() int {
	n := 0
	for _, arc := range a.Arcs {
		n += len(arc.Selections)
	}
	return n
}

// ItemIDs returns the selected item IDs in playlist order.
func (a Allocation) ItemIDs() []string {
	ids := make([]string, 0, a.ItemCount())
	for _, arc := range a.Arcs {
		for _, sel := range arc.Selections {
			ids = append(ids, sel.Candidate.Item.ID)
		}
	}
	return ids
}

// GapPrompt identifies a prompt in a gap report bucket.
type GapPrompt struct {
	Arc            int      `json:"arc" yaml:"arc"`
	Sequence       int      `json:"sequence" yaml:"sequence"`
	Text           string   `json:"text" yaml:"text"`
	BestSimilarity *float64 `json:"best_similarity,omitempty" yaml:"best_similarity,omitempty"`
}

// GapReport classifies prompts by match quality.
type GapReport struct {
	Threshold                  float64     `json:"threshold" yaml:"threshold"`
	TotalPrompts               int         `json:"total_prompts" yaml:"total_prompts"`
	NoMatchCount               int         `json:"no_match_count" yaml:"no_match_count"`
	LowQualityCount            int         `json:"low_quality_count" yaml:"low_quality_count"`
	GoodCount                  int         `json:"good_count" yaml:"good_count"`
	NoMatchPercent             float64     `json:"no_match_percent" yaml:"no_match_percent"`
	LowQualityPercent          float64     `json:"low_quality_percent" yaml:"low_quality_percent"`
	GoodPercent                float64     `json:"good_percent" yaml:"good_percent"`
	NoMatchPrompts             []GapPrompt `json:"no_match_prompts" yaml:"no_match_prompts"`
	LowQualityPrompts          []GapPrompt `json:"low_quality_prompts" yaml:"low_quality_prompts"`
	RecommendedGenerationCount int         `json:"recommended_generation_count" yaml:"recommended_generation_count"`
}

// Production is a rendered or planned output built from catalog items.
type Production struct {
	ID            string     `json:"id" yaml:"id"`
	Number        int        `json:"number,omitempty" yaml:"number,omitempty"`
	Title         string     `json:"title" yaml:"title"`
	TargetMinutes int        `json:"target_minutes,omitempty" yaml:"target_minutes,omitempty"`
	CreatedAt     time.Time  `json:"created_at" yaml:"created_at"`
	PublishedAt   *time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}
