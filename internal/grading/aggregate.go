package grading

import (
	"math"
	"sort"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// Aggregate averages one category's scores according to setting. Callers pass
// graded values only. An empty slice yields 0. BEST_N with an absent or
// non-positive N falls back to ALL; an N beyond len(scores) is clamped.
func Aggregate(scores []float64, setting models.CategorySetting) float64 {
	if len(scores) == 0 {
		return 0
	}
	if setting.CalcMethod != models.CalcBestN || !setting.N.Valid || setting.N.Int <= 0 {
		return mean(scores)
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	n := setting.N.Int
	if n > len(sorted) {
		n = len(sorted)
	}
	return mean(sorted[:n])
}

// CategoryScores collects a student's graded regular scores for columns of
// the given category, in column order.
func CategoryScores(student models.StudentGradeRow, columns []models.ScoreColumn, category models.ScoreCategory) []float64 {
	scores := make([]float64, 0, len(columns))
	for _, column := range columns {
		if column.Category != category {
			continue
		}
		score, ok := student.RegularScores[column.Index]
		if !ok || !models.Graded(score) {
			continue
		}
		scores = append(scores, score.Float64)
	}
	return scores
}

// CategoryColumnCount returns how many columns belong to category.
func CategoryColumnCount(columns []models.ScoreColumn, category models.ScoreCategory) int {
	count := 0
	for _, column := range columns {
		if column.Category == category {
			count++
		}
	}
	return count
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
