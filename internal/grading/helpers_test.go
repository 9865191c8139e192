package grading

import (
	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func score(v float64) models.Score {
	return models.ScoreOf(v)
}

func absent() models.Score {
	return null.Float64{}
}

func studentWith(id string, regular map[int]float64, periodic map[models.PeriodicName]float64) models.StudentGradeRow {
	row := models.NewStudentGradeRow(id, "Student "+id, 0)
	for k, v := range regular {
		row.SetRegularScore(k, score(v))
	}
	for name, v := range periodic {
		row.SetPeriodicScore(name, score(v))
	}
	return row
}

func columnsOf(categories ...models.ScoreCategory) []models.ScoreColumn {
	columns := make([]models.ScoreColumn, len(categories))
	for i, category := range categories {
		columns[i] = models.ScoreColumn{Index: i, Category: category, Label: string(category)}
	}
	return columns
}
