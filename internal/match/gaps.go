package match

import "github.com/raphaelgruber/trackbank/internal/models"

// AnalyzeGaps classifies each prompt by the raw similarity of its best candidate.
//
// A prompt with no candidates is a no-match, one whose best similarity is below
// threshold is low quality, and the rest are good. Every prompt lands in exactly one bucket.
func AnalyzeGaps(results []models.MatchResult, threshold float64) models.GapReport {
	report := models.GapReport{
		Threshold:         threshold,
		TotalPrompts:      len(results),
		NoMatchPrompts:    []models.GapPrompt{},
		LowQualityPrompts: []models.GapPrompt{},
	}

	for _, r := range results {
		gp := models.GapPrompt{Arc: r.Prompt.Arc, Sequence: r.Prompt.Sequence, Text: r.Prompt.Text}
		best := r.Best()
		switch {
		case best == nil:
			report.NoMatchCount++
			report.NoMatchPrompts = append(report.NoMatchPrompts, gp)
		case best.Score.Similarity < threshold:
			sim := best.Score.Similarity
			gp.BestSimilarity = &sim
			report.LowQualityCount++
			report.LowQualityPrompts = append(report.LowQualityPrompts, gp)
		default:
			report.GoodCount++
		}
	}

	if report.TotalPrompts > 0 {
		total := float64(report.TotalPrompts)
		report.NoMatchPercent = float64(report.NoMatchCount) / total * 100
		report.LowQualityPercent = float64(report.LowQualityCount) / total * 100
		report.GoodPercent = float64(report.GoodCount) / total * 100
	}
	report.RecommendedGenerationCount = report.NoMatchCount + report.LowQualityCount
	return report
}
