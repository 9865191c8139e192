package grading

import "github.com/noah-isme/gradebook-api/internal/models"

// Rank places mine within all using competition ranking: ties share a rank
// and the next lower score skips ahead. Absent entries are not counted.
// An absent mine is unranked and yields nil.
func Rank(all []models.Score, mine models.Score) *models.RankResult {
	total := 0
	greater := 0
	for _, score := range all {
		if !models.Graded(score) {
			continue
		}
		total++
		if models.Graded(mine) && score.Float64 > mine.Float64 {
			greater++
		}
	}
	if !models.Graded(mine) {
		return nil
	}
	return &models.RankResult{Rank: greater + 1, Total: total}
}

// GradedValues extracts the numeric values of scores, skipping absent ones.
func GradedValues(scores []models.Score) []float64 {
	values := make([]float64, 0, len(scores))
	for _, score := range scores {
		if models.Graded(score) {
			values = append(values, score.Float64)
		}
	}
	return values
}
