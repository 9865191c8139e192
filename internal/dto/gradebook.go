package dto

import (
	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// AddColumnRequest appends a regular score column.
type AddColumnRequest struct {
	Category string    `json:"category" validate:"required,oneof=QUIZ HOMEWORK ATTITUDE"`
	Label    string    `json:"label" validate:"required,max=100"`
	ExamDate null.Time `json:"exam_date"`
}

// UpdateColumnRequest changes column metadata. Omitted fields are kept;
// ClearExamDate removes a previously set exam date.
type UpdateColumnRequest struct {
	Category      *string   `json:"category" validate:"omitempty,oneof=QUIZ HOMEWORK ATTITUDE"`
	Label         *string   `json:"label" validate:"omitempty,min=1,max=100"`
	ExamDate      null.Time `json:"exam_date"`
	ClearExamDate bool      `json:"clear_exam_date"`
}

// ScoreEntry sets one score. Exactly one of ColumnIndex or Periodic is
// given; a null Score clears the entry.
type ScoreEntry struct {
	StudentID   string       `json:"student_id" validate:"required"`
	ColumnIndex null.Int     `json:"column_index"`
	Periodic    string       `json:"periodic" validate:"omitempty,oneof=FIRST SECOND FINAL"`
	Score       null.Float64 `json:"score"`
}

// UpdateScoresRequest applies several score edits at once. Either every
// entry is applied or none.
type UpdateScoresRequest struct {
	Items []ScoreEntry `json:"items" validate:"required,min=1,max=5000,dive"`
}

// UpdateStudentRequest edits per-student fields outside the score grid.
type UpdateStudentRequest struct {
	ManualAdjust *int    `json:"manual_adjust"`
	Remark       *string `json:"remark" validate:"omitempty,max=500"`
}

// CategorySettingRequest configures one score category.
type CategorySettingRequest struct {
	Percent    float64  `json:"percent" validate:"gte=0,lte=100"`
	CalcMethod string   `json:"calc_method" validate:"required,oneof=ALL BEST_N"`
	N          null.Int `json:"n"`
}

// UpdateSettingsRequest replaces the total score setting of a gradebook.
// The regular percent is always derived from the category percents.
type UpdateSettingsRequest struct {
	PeriodicPercent     float64                           `json:"periodic_percent" validate:"gte=0,lte=100"`
	ManualAdjustDefault int                               `json:"manual_adjust_default"`
	Categories          map[string]CategorySettingRequest `json:"categories" validate:"required,dive,keys,oneof=QUIZ HOMEWORK ATTITUDE,endkeys"`
	PeriodicEnabled     map[string]bool                   `json:"periodic_enabled" validate:"omitempty,dive,keys,oneof=FIRST SECOND FINAL,endkeys"`
}

// SettingsResponse echoes the stored setting with its non-blocking warnings.
type SettingsResponse struct {
	Setting  models.TotalScoreSetting `json:"setting"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// RosterSyncResponse reports how many roster students were added.
type RosterSyncResponse struct {
	Added    int `json:"added"`
	Students int `json:"students"`
}
