package grading

import (
	"fmt"
	"math"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// percentTolerance absorbs float noise when comparing configured percents.
const percentTolerance = 1e-9

// ComputeRegular returns the weighted regular score: each category's
// aggregate scaled by its percent.
func ComputeRegular(student models.StudentGradeRow, columns []models.ScoreColumn, setting models.TotalScoreSetting) float64 {
	regular, _ := regularComponents(student, columns, setting)
	return regular
}

func regularComponents(student models.StudentGradeRow, columns []models.ScoreColumn, setting models.TotalScoreSetting) (float64, map[models.ScoreCategory]float64) {
	averages := make(map[models.ScoreCategory]float64, len(models.ScoreCategories))
	regular := 0.0
	for _, category := range models.ScoreCategories {
		cs := setting.Categories[category]
		avg := Aggregate(CategoryScores(student, columns, category), cs)
		averages[category] = avg
		regular += avg * cs.Percent / 100
	}
	return regular, averages
}

// PeriodicAverage averages the enabled periodic exams. An enabled exam with
// no score counts as 0 rather than being skipped.
func PeriodicAverage(student models.StudentGradeRow, setting models.TotalScoreSetting) float64 {
	sum := 0.0
	enabled := 0
	for _, name := range models.PeriodicNames {
		if !setting.PeriodicEnabled[name] {
			continue
		}
		enabled++
		if score, ok := student.PeriodicScores[name]; ok && models.Graded(score) {
			sum += score.Float64
		}
	}
	if enabled == 0 {
		return 0
	}
	return sum / float64(enabled)
}

// ComputeTotal combines the regular score, the periodic average and the
// unweighted manual adjustment, rounded to the nearest integer.
func ComputeTotal(student models.StudentGradeRow, columns []models.ScoreColumn, setting models.TotalScoreSetting) int {
	return combineTotal(ComputeRegular(student, columns, setting), PeriodicAverage(student, setting), student.ManualAdjust, setting)
}

func combineTotal(regular, periodicAverage float64, manualAdjust int, setting models.TotalScoreSetting) int {
	return int(math.Round(regular + periodicAverage*setting.PeriodicPercent/100 + float64(manualAdjust)))
}

// Breakdown computes a student's total along with its components.
func Breakdown(student models.StudentGradeRow, columns []models.ScoreColumn, setting models.TotalScoreSetting) models.StudentTotal {
	regular, averages := regularComponents(student, columns, setting)
	periodic := PeriodicAverage(student, setting)

	return models.StudentTotal{
		StudentID:        student.StudentID,
		Name:             student.Name,
		CategoryAverages: averages,
		Regular:          regular,
		PeriodicAverage:  periodic,
		ManualAdjust:     student.ManualAdjust,
		Total:            combineTotal(regular, periodic, student.ManualAdjust, setting),
		Remark:           student.Remark,
	}
}

// NormalizeSetting returns a copy of setting whose RegularPercent is the sum
// of the category percents. Missing categories are filled with a zero-weight
// ALL setting and missing periodic flags with false.
func NormalizeSetting(setting models.TotalScoreSetting) models.TotalScoreSetting {
	normalized := setting
	normalized.Categories = make(map[models.ScoreCategory]models.CategorySetting, len(models.ScoreCategories))
	normalized.PeriodicEnabled = make(map[models.PeriodicName]bool, len(models.PeriodicNames))

	sum := 0.0
	for _, category := range models.ScoreCategories {
		cs, ok := setting.Categories[category]
		if !ok || cs.CalcMethod == "" {
			cs.CalcMethod = models.CalcAll
		}
		normalized.Categories[category] = cs
		sum += cs.Percent
	}
	for _, name := range models.PeriodicNames {
		normalized.PeriodicEnabled[name] = setting.PeriodicEnabled[name]
	}
	normalized.RegularPercent = sum
	normalized.ManualAdjustDefault = models.ClampManualAdjust(setting.ManualAdjustDefault)
	return normalized
}

// RestrictPeriodic returns a copy of setting with every exam outside exams
// disabled, so an exam that cannot be scored never counts toward the average.
func RestrictPeriodic(setting models.TotalScoreSetting, exams []models.PeriodicName) models.TotalScoreSetting {
	restricted := setting
	restricted.PeriodicEnabled = make(map[models.PeriodicName]bool, len(setting.PeriodicEnabled))
	for name, enabled := range setting.PeriodicEnabled {
		restricted.PeriodicEnabled[name] = enabled && containsPeriodic(exams, name)
	}
	return restricted
}

// SettingWarnings describes configuration problems an editor should surface.
// exams is the gradebook's list of periodic exams. None of the warnings block
// computation.
func SettingWarnings(setting models.TotalScoreSetting, columns []models.ScoreColumn, exams []models.PeriodicName) []string {
	var warnings []string

	sum := 0.0
	for _, category := range models.ScoreCategories {
		sum += setting.Categories[category].Percent
	}
	if sum > 100+percentTolerance {
		warnings = append(warnings, fmt.Sprintf("category percents sum to %g, above 100", sum))
	}
	if math.Abs(sum+setting.PeriodicPercent-100) > percentTolerance {
		warnings = append(warnings, fmt.Sprintf("regular %g%% + periodic %g%% does not equal 100%%", sum, setting.PeriodicPercent))
	}

	for _, category := range models.ScoreCategories {
		cs := setting.Categories[category]
		if cs.CalcMethod != models.CalcBestN {
			continue
		}
		if !cs.N.Valid || cs.N.Int <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s uses BEST_N without a positive n; all scores are averaged", category))
			continue
		}
		if available := CategoryColumnCount(columns, category); cs.N.Int > available {
			warnings = append(warnings, fmt.Sprintf("%s BEST_N n=%d exceeds %d available columns", category, cs.N.Int, available))
		}
	}

	for _, name := range models.PeriodicNames {
		if setting.PeriodicEnabled[name] && !containsPeriodic(exams, name) {
			warnings = append(warnings, fmt.Sprintf("periodic %s enabled but not part of this gradebook", name))
		}
	}
	return warnings
}

func containsPeriodic(exams []models.PeriodicName, name models.PeriodicName) bool {
	for _, exam := range exams {
		if exam == name {
			return true
		}
	}
	return false
}
