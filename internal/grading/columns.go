package grading

import (
	"errors"
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/gradebook-api/internal/models"
)

var (
	// ErrColumnOutOfRange is returned for a column index outside 0..count-1.
	ErrColumnOutOfRange = errors.New("column index out of range")
	// ErrInvariant marks a gradebook whose column indices or score keys are inconsistent.
	ErrInvariant = errors.New("gradebook invariant violated")
)

// ColumnPatch carries optional metadata changes for a column.
type ColumnPatch struct {
	Category *models.ScoreCategory
	Label    *string
	ExamDate *null.Time
}

// AddColumn appends an empty column at the next index. Student scores are not
// touched, so the new column starts absent for everyone.
func AddColumn(gb *models.Gradebook, category models.ScoreCategory, label string) *models.Gradebook {
	gb.Columns = append(gb.Columns, models.ScoreColumn{
		Index:    len(gb.Columns),
		Category: category,
		Label:    label,
	})
	return gb
}

// RemoveColumn deletes the column at index and re-packs every student's
// regular scores and the column metadata so indices stay contiguous.
func RemoveColumn(gb *models.Gradebook, index int) (*models.Gradebook, error) {
	if index < 0 || index >= len(gb.Columns) {
		return gb, fmt.Errorf("%w: %d not in [0,%d)", ErrColumnOutOfRange, index, len(gb.Columns))
	}

	columns := make([]models.ScoreColumn, 0, len(gb.Columns)-1)
	for i, column := range gb.Columns {
		if i == index {
			continue
		}
		column.Index = len(columns)
		columns = append(columns, column)
	}
	gb.Columns = columns

	for i := range gb.Students {
		student := &gb.Students[i]
		repacked := make(map[int]models.Score, len(student.RegularScores))
		for k, score := range student.RegularScores {
			if k == index {
				continue
			}
			repacked[shiftIndex(k, index)] = score
		}
		student.RegularScores = repacked
	}
	return gb, nil
}

// UpdateColumn applies metadata changes to one column without touching its index.
func UpdateColumn(gb *models.Gradebook, index int, patch ColumnPatch) (*models.Gradebook, error) {
	if index < 0 || index >= len(gb.Columns) {
		return gb, fmt.Errorf("%w: %d not in [0,%d)", ErrColumnOutOfRange, index, len(gb.Columns))
	}
	column := &gb.Columns[index]
	if patch.Category != nil {
		column.Category = *patch.Category
	}
	if patch.Label != nil {
		column.Label = *patch.Label
	}
	if patch.ExamDate != nil {
		column.ExamDate = *patch.ExamDate
	}
	return gb, nil
}

// CheckInvariants verifies that columns[i].Index == i and that every regular
// score key addresses an existing column.
func CheckInvariants(gb *models.Gradebook) error {
	for i, column := range gb.Columns {
		if column.Index != i {
			return fmt.Errorf("%w: column at position %d has index %d", ErrInvariant, i, column.Index)
		}
	}
	for _, student := range gb.Students {
		for k := range student.RegularScores {
			if k < 0 || k >= len(gb.Columns) {
				return fmt.Errorf("%w: student %s has score for missing column %d", ErrInvariant, student.StudentID, k)
			}
		}
	}
	return nil
}

func shiftIndex(k, removed int) int {
	if k > removed {
		return k - 1
	}
	return k
}
