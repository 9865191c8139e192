package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/volatiletech/null/v8"
)

// ScoreCategory groups regular score columns for weighting.
type ScoreCategory string

const (
	CategoryQuiz     ScoreCategory = "QUIZ"
	CategoryHomework ScoreCategory = "HOMEWORK"
	CategoryAttitude ScoreCategory = "ATTITUDE"
)

// ScoreCategories lists every regular score category in display order.
var ScoreCategories = []ScoreCategory{CategoryQuiz, CategoryHomework, CategoryAttitude}

// Valid reports whether c is a known category.
func (c ScoreCategory) Valid() bool {
	switch c {
	case CategoryQuiz, CategoryHomework, CategoryAttitude:
		return true
	}
	return false
}

// PeriodicName identifies one of the three per-term exams.
type PeriodicName string

const (
	PeriodicFirst  PeriodicName = "FIRST"
	PeriodicSecond PeriodicName = "SECOND"
	PeriodicFinal  PeriodicName = "FINAL"
)

// PeriodicNames lists the periodic exams in term order.
var PeriodicNames = []PeriodicName{PeriodicFirst, PeriodicSecond, PeriodicFinal}

// Valid reports whether p is a known periodic exam.
func (p PeriodicName) Valid() bool {
	switch p {
	case PeriodicFirst, PeriodicSecond, PeriodicFinal:
		return true
	}
	return false
}

// CalcMethod selects how scores of one category are averaged.
type CalcMethod string

const (
	// CalcAll averages every recorded score.
	CalcAll CalcMethod = "ALL"
	// CalcBestN averages only the N highest recorded scores.
	CalcBestN CalcMethod = "BEST_N"
)

// Score is a grade that may be absent (not yet graded). Absent is distinct
// from every number, including 0.
type Score = null.Float64

// ScoreOf wraps a graded value.
func ScoreOf(v float64) Score {
	return null.Float64From(v)
}

// Graded reports whether s carries a usable numeric value.
func Graded(s Score) bool {
	return s.Valid && !math.IsNaN(s.Float64) && !math.IsInf(s.Float64, 0)
}

// ScoreColumn is one regular score column. Index is the join key into every
// student's RegularScores map and is always equal to the column's position.
type ScoreColumn struct {
	Index    int           `json:"index"`
	Category ScoreCategory `json:"category"`
	Label    string        `json:"label"`
	ExamDate null.Time     `json:"exam_date"`
}

const (
	ManualAdjustMin = -5
	ManualAdjustMax = 5
)

// ClampManualAdjust bounds a manual adjustment to the accepted range.
func ClampManualAdjust(v int) int {
	if v < ManualAdjustMin {
		return ManualAdjustMin
	}
	if v > ManualAdjustMax {
		return ManualAdjustMax
	}
	return v
}

// StudentGradeRow holds one student's scores. A missing map key means the
// score is absent; writers never store an invalid Score.
type StudentGradeRow struct {
	StudentID      string                 `json:"student_id"`
	Name           string                 `json:"name"`
	RegularScores  map[int]Score          `json:"regular_scores"`
	PeriodicScores map[PeriodicName]Score `json:"periodic_scores"`
	ManualAdjust   int                    `json:"manual_adjust"`
	Remark         string                 `json:"remark"`
}

// NewStudentGradeRow returns a row with no scores recorded.
func NewStudentGradeRow(studentID, name string, manualAdjust int) StudentGradeRow {
	return StudentGradeRow{
		StudentID:      studentID,
		Name:           name,
		RegularScores:  make(map[int]Score),
		PeriodicScores: make(map[PeriodicName]Score),
		ManualAdjust:   ClampManualAdjust(manualAdjust),
	}
}

// SetRegularScore records or clears the score for a column.
func (r *StudentGradeRow) SetRegularScore(index int, score Score) {
	if r.RegularScores == nil {
		r.RegularScores = make(map[int]Score)
	}
	if !Graded(score) {
		delete(r.RegularScores, index)
		return
	}
	r.RegularScores[index] = score
}

// SetPeriodicScore records or clears a periodic exam score.
func (r *StudentGradeRow) SetPeriodicScore(name PeriodicName, score Score) {
	if r.PeriodicScores == nil {
		r.PeriodicScores = make(map[PeriodicName]Score)
	}
	if !Graded(score) {
		delete(r.PeriodicScores, name)
		return
	}
	r.PeriodicScores[name] = score
}

// CategorySetting configures weighting and averaging for one category.
type CategorySetting struct {
	Percent    float64    `json:"percent" validate:"gte=0,lte=100"`
	CalcMethod CalcMethod `json:"calc_method" validate:"required,oneof=ALL BEST_N"`
	N          null.Int   `json:"n"`
}

// TotalScoreSetting configures how a student's total is computed.
// RegularPercent is derived from the category percents; the sum with
// PeriodicPercent is expected to be 100 but is not enforced.
type TotalScoreSetting struct {
	RegularPercent      float64                           `json:"regular_percent"`
	PeriodicPercent     float64                           `json:"periodic_percent"`
	ManualAdjustDefault int                               `json:"manual_adjust_default"`
	Categories          map[ScoreCategory]CategorySetting `json:"categories"`
	PeriodicEnabled     map[PeriodicName]bool             `json:"periodic_enabled"`
}

// DefaultTotalSetting is applied when a course has no stored gradebook.
func DefaultTotalSetting() TotalScoreSetting {
	return TotalScoreSetting{
		RegularPercent:      60,
		PeriodicPercent:     40,
		ManualAdjustDefault: 0,
		Categories: map[ScoreCategory]CategorySetting{
			CategoryQuiz:     {Percent: 20, CalcMethod: CalcAll},
			CategoryHomework: {Percent: 10, CalcMethod: CalcAll},
			CategoryAttitude: {Percent: 10, CalcMethod: CalcAll},
		},
		PeriodicEnabled: map[PeriodicName]bool{
			PeriodicFirst:  true,
			PeriodicSecond: true,
			PeriodicFinal:  true,
		},
	}
}

// Gradebook is the aggregate persisted as one document per course.
type Gradebook struct {
	CourseKey      string            `json:"course_key"`
	Columns        []ScoreColumn     `json:"columns"`
	Students       []StudentGradeRow `json:"students"`
	TotalSetting   TotalScoreSetting `json:"total_setting"`
	PeriodicScores []PeriodicName    `json:"periodic_scores"`
}

// NewGradebook returns an empty gradebook with the default settings.
func NewGradebook(courseKey string) *Gradebook {
	periodic := make([]PeriodicName, len(PeriodicNames))
	copy(periodic, PeriodicNames)
	return &Gradebook{
		CourseKey:      courseKey,
		Columns:        []ScoreColumn{},
		Students:       []StudentGradeRow{},
		TotalSetting:   DefaultTotalSetting(),
		PeriodicScores: periodic,
	}
}

// Student returns a pointer to the row for studentID, or nil.
func (g *Gradebook) Student(studentID string) *StudentGradeRow {
	for i := range g.Students {
		if g.Students[i].StudentID == studentID {
			return &g.Students[i]
		}
	}
	return nil
}

// HasPeriodic reports whether name is part of this gradebook's periodic exams.
func (g *Gradebook) HasPeriodic(name PeriodicName) bool {
	for _, p := range g.PeriodicScores {
		if p == name {
			return true
		}
	}
	return false
}

// CourseKey builds the storage key of a course gradebook.
func CourseKey(courseName, courseCode string) string {
	return fmt.Sprintf("%s(%s)", courseName, courseCode)
}

// ParseCourseKey splits a key built by CourseKey. ok is false when key has
// no trailing "(code)" part.
func ParseCourseKey(key string) (courseName, courseCode string, ok bool) {
	if !strings.HasSuffix(key, ")") {
		return "", "", false
	}
	open := strings.LastIndex(key, "(")
	if open < 0 {
		return "", "", false
	}
	courseCode = key[open+1 : len(key)-1]
	if courseCode == "" {
		return "", "", false
	}
	return key[:open], courseCode, true
}

// RosterEntry is a student enrolled in a course.
type RosterEntry struct {
	StudentID string `db:"student_id" json:"student_id"`
	Name      string `db:"name" json:"name"`
	Grade     string `db:"grade" json:"grade"`
}
