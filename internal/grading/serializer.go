package grading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// StorageSchemaVersion is written into every stored document.
const StorageSchemaVersion = 1

// ErrEmptyDocument is returned by FromStorage for an empty or null payload.
var ErrEmptyDocument = errors.New("empty gradebook document")

// The stored document spells out every score slot. The document store
// rejects unset values, so absent scores and unset optional settings are
// written as explicit JSON nulls at every nesting level.
type storedGradebook struct {
	SchemaVersion  int                   `json:"schema_version"`
	CourseKey      string                `json:"course_key"`
	Columns        []storedColumn        `json:"columns"`
	Students       []storedStudent       `json:"students"`
	TotalSetting   storedSetting         `json:"total_setting"`
	PeriodicScores []models.PeriodicName `json:"periodic_scores"`
}

type storedColumn struct {
	Index    int                  `json:"index"`
	Category models.ScoreCategory `json:"category"`
	Label    string               `json:"label"`
	ExamDate null.Time            `json:"exam_date"`
}

type storedStudent struct {
	StudentID      string                               `json:"student_id"`
	Name           string                               `json:"name"`
	RegularScores  map[int]null.Float64                 `json:"regular_scores"`
	PeriodicScores map[models.PeriodicName]null.Float64 `json:"periodic_scores"`
	ManualAdjust   int                                  `json:"manual_adjust"`
	Remark         string                               `json:"remark"`
}

type storedSetting struct {
	RegularPercent      float64                                 `json:"regular_percent"`
	PeriodicPercent     float64                                 `json:"periodic_percent"`
	ManualAdjustDefault int                                     `json:"manual_adjust_default"`
	Categories          map[models.ScoreCategory]storedCategory `json:"categories"`
	PeriodicEnabled     map[models.PeriodicName]bool            `json:"periodic_enabled"`
}

type storedCategory struct {
	Percent    float64           `json:"percent"`
	CalcMethod models.CalcMethod `json:"calc_method"`
	N          null.Int          `json:"n"`
}

// ToStorage encodes gb as the JSON document handed to the gradebook store.
// A gradebook that fails CheckInvariants is refused.
func ToStorage(gb *models.Gradebook) ([]byte, error) {
	if gb == nil {
		return nil, ErrEmptyDocument
	}
	if err := CheckInvariants(gb); err != nil {
		return nil, err
	}

	doc := storedGradebook{
		SchemaVersion:  StorageSchemaVersion,
		CourseKey:      gb.CourseKey,
		TotalSetting:   storeSetting(gb.TotalSetting),
		PeriodicScores: gb.PeriodicScores,
	}
	if gb.Columns != nil {
		doc.Columns = make([]storedColumn, len(gb.Columns))
		for i, column := range gb.Columns {
			doc.Columns[i] = storedColumn(column)
		}
	}
	if gb.Students != nil {
		doc.Students = make([]storedStudent, len(gb.Students))
		for i, student := range gb.Students {
			doc.Students[i] = storeStudent(student, len(gb.Columns))
		}
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode gradebook %s: %w", gb.CourseKey, err)
	}
	return payload, nil
}

// FromStorage decodes a stored document. Null scores become absent map
// entries, never 0.
func FromStorage(payload []byte) (*models.Gradebook, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, ErrEmptyDocument
	}
	var doc *storedGradebook
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode gradebook: %w", err)
	}
	if doc == nil {
		return nil, ErrEmptyDocument
	}
	if doc.SchemaVersion > StorageSchemaVersion {
		return nil, fmt.Errorf("decode gradebook: unsupported schema version %d", doc.SchemaVersion)
	}

	gb := &models.Gradebook{
		CourseKey:      doc.CourseKey,
		TotalSetting:   loadSetting(doc.TotalSetting),
		PeriodicScores: doc.PeriodicScores,
	}
	if doc.Columns != nil {
		gb.Columns = make([]models.ScoreColumn, len(doc.Columns))
		for i, column := range doc.Columns {
			gb.Columns[i] = models.ScoreColumn(column)
		}
	}
	if doc.Students != nil {
		gb.Students = make([]models.StudentGradeRow, len(doc.Students))
		for i, student := range doc.Students {
			gb.Students[i] = loadStudent(student)
		}
	}

	if err := CheckInvariants(gb); err != nil {
		return nil, err
	}
	return gb, nil
}

func storeStudent(student models.StudentGradeRow, columnCount int) storedStudent {
	regular := make(map[int]null.Float64, columnCount)
	for i := 0; i < columnCount; i++ {
		regular[i] = storeScore(student.RegularScores[i])
	}

	periodic := make(map[models.PeriodicName]null.Float64, len(models.PeriodicNames))
	for _, name := range models.PeriodicNames {
		periodic[name] = null.Float64{}
	}
	for name, score := range student.PeriodicScores {
		periodic[name] = storeScore(score)
	}

	return storedStudent{
		StudentID:      student.StudentID,
		Name:           student.Name,
		RegularScores:  regular,
		PeriodicScores: periodic,
		ManualAdjust:   student.ManualAdjust,
		Remark:         student.Remark,
	}
}

func storeScore(score models.Score) null.Float64 {
	if !models.Graded(score) {
		return null.Float64{}
	}
	return score
}

func loadStudent(stored storedStudent) models.StudentGradeRow {
	row := models.StudentGradeRow{
		StudentID:      stored.StudentID,
		Name:           stored.Name,
		RegularScores:  make(map[int]models.Score, len(stored.RegularScores)),
		PeriodicScores: make(map[models.PeriodicName]models.Score, len(stored.PeriodicScores)),
		ManualAdjust:   stored.ManualAdjust,
		Remark:         stored.Remark,
	}
	for index, score := range stored.RegularScores {
		row.SetRegularScore(index, score)
	}
	for name, score := range stored.PeriodicScores {
		row.SetPeriodicScore(name, score)
	}
	return row
}

func storeSetting(setting models.TotalScoreSetting) storedSetting {
	stored := storedSetting{
		RegularPercent:      setting.RegularPercent,
		PeriodicPercent:     setting.PeriodicPercent,
		ManualAdjustDefault: setting.ManualAdjustDefault,
		PeriodicEnabled:     setting.PeriodicEnabled,
	}
	if setting.Categories != nil {
		stored.Categories = make(map[models.ScoreCategory]storedCategory, len(setting.Categories))
		for category, cs := range setting.Categories {
			stored.Categories[category] = storedCategory(cs)
		}
	}
	return stored
}

func loadSetting(stored storedSetting) models.TotalScoreSetting {
	setting := models.TotalScoreSetting{
		RegularPercent:      stored.RegularPercent,
		PeriodicPercent:     stored.PeriodicPercent,
		ManualAdjustDefault: stored.ManualAdjustDefault,
		PeriodicEnabled:     stored.PeriodicEnabled,
	}
	if stored.Categories != nil {
		setting.Categories = make(map[models.ScoreCategory]models.CategorySetting, len(stored.Categories))
		for category, cs := range stored.Categories {
			setting.Categories[category] = models.CategorySetting(cs)
		}
	}
	return setting
}
