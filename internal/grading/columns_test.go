package grading

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func gradebookWithColumns(categories ...models.ScoreCategory) *models.Gradebook {
	gb := models.NewGradebook(models.CourseKey("Algebra", "MA101"))
	for i, category := range categories {
		AddColumn(gb, category, "col")
		gb.Columns[i].Label = string(category) + "-" + string(rune('A'+i))
	}
	return gb
}

func TestAddColumn(t *testing.T) {
	gb := gradebookWithColumns(models.CategoryQuiz)
	gb.Students = append(gb.Students, studentWith("s1", map[int]float64{0: 80}, nil))

	AddColumn(gb, models.CategoryHomework, "HW 1")

	require.Len(t, gb.Columns, 2)
	assert.Equal(t, models.ScoreColumn{Index: 1, Category: models.CategoryHomework, Label: "HW 1"}, gb.Columns[1])
	_, ok := gb.Students[0].RegularScores[1]
	assert.False(t, ok)
	assert.Equal(t, score(80), gb.Students[0].RegularScores[0])
	assert.NoError(t, CheckInvariants(gb))
}

func TestRemoveColumnRepacksScores(t *testing.T) {
	gb := gradebookWithColumns(models.CategoryQuiz, models.CategoryHomework, models.CategoryQuiz)
	gb.Students = append(gb.Students, studentWith("s1", map[int]float64{0: 80, 1: 90, 2: 100}, nil))
	labels := []string{gb.Columns[0].Label, gb.Columns[2].Label}

	_, err := RemoveColumn(gb, 1)
	require.NoError(t, err)

	assert.Equal(t, map[int]models.Score{0: score(80), 1: score(100)}, gb.Students[0].RegularScores)
	require.Len(t, gb.Columns, 2)
	assert.Equal(t, 0, gb.Columns[0].Index)
	assert.Equal(t, 1, gb.Columns[1].Index)
	assert.Equal(t, labels, []string{gb.Columns[0].Label, gb.Columns[1].Label})
	assert.Equal(t, models.CategoryQuiz, gb.Columns[1].Category)
	assert.NoError(t, CheckInvariants(gb))
}

func TestRemoveColumnOutOfRange(t *testing.T) {
	gb := gradebookWithColumns(models.CategoryQuiz)
	gb.Students = append(gb.Students, studentWith("s1", map[int]float64{0: 80}, nil))

	for _, index := range []int{-1, 1, 5} {
		_, err := RemoveColumn(gb, index)
		assert.True(t, errors.Is(err, ErrColumnOutOfRange), "index %d", index)
	}
	assert.Len(t, gb.Columns, 1)
	assert.Equal(t, score(80), gb.Students[0].RegularScores[0])
}

func TestRemoveColumnPreservesOtherScores(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 50; trial++ {
		count := 1 + rng.Intn(8)
		categories := make([]models.ScoreCategory, count)
		for i := range categories {
			categories[i] = models.ScoreCategories[rng.Intn(len(models.ScoreCategories))]
		}
		gb := gradebookWithColumns(categories...)
		for s := 0; s < 4; s++ {
			row := models.NewStudentGradeRow(string(rune('a'+s)), "student", 0)
			for i := 0; i < count; i++ {
				if rng.Intn(3) > 0 {
					row.SetRegularScore(i, score(float64(rng.Intn(101))))
				}
			}
			gb.Students = append(gb.Students, row)
		}

		before := make([]map[int]models.Score, len(gb.Students))
		for i, student := range gb.Students {
			before[i] = make(map[int]models.Score, len(student.RegularScores))
			for k, v := range student.RegularScores {
				before[i][k] = v
			}
		}

		k := rng.Intn(count)
		_, err := RemoveColumn(gb, k)
		require.NoError(t, err)
		require.NoError(t, CheckInvariants(gb))
		require.Len(t, gb.Columns, count-1)

		for i, student := range gb.Students {
			for j := 0; j < count; j++ {
				if j == k {
					continue
				}
				newIndex := j
				if j > k {
					newIndex = j - 1
				}
				old, hadOld := before[i][j]
				got, hasNew := student.RegularScores[newIndex]
				assert.Equal(t, hadOld, hasNew)
				assert.Equal(t, old, got)
			}
		}
	}
}

func TestUpdateColumn(t *testing.T) {
	gb := gradebookWithColumns(models.CategoryQuiz, models.CategoryQuiz)
	category := models.CategoryAttitude
	label := "Participation"
	date := null.TimeFrom(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))

	_, err := UpdateColumn(gb, 1, ColumnPatch{Category: &category, Label: &label, ExamDate: &date})
	require.NoError(t, err)
	assert.Equal(t, models.ScoreColumn{Index: 1, Category: category, Label: label, ExamDate: date}, gb.Columns[1])

	cleared := null.Time{}
	_, err = UpdateColumn(gb, 1, ColumnPatch{ExamDate: &cleared})
	require.NoError(t, err)
	assert.False(t, gb.Columns[1].ExamDate.Valid)
	assert.Equal(t, label, gb.Columns[1].Label)

	_, err = UpdateColumn(gb, 2, ColumnPatch{Label: &label})
	assert.ErrorIs(t, err, ErrColumnOutOfRange)
}

func TestCheckInvariants(t *testing.T) {
	gb := gradebookWithColumns(models.CategoryQuiz, models.CategoryQuiz)
	require.NoError(t, CheckInvariants(gb))

	gb.Columns[1].Index = 5
	assert.ErrorIs(t, CheckInvariants(gb), ErrInvariant)

	gb.Columns[1].Index = 1
	gb.Students = append(gb.Students, studentWith("s1", map[int]float64{2: 70}, nil))
	assert.ErrorIs(t, CheckInvariants(gb), ErrInvariant)
}
