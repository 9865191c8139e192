package models

import "github.com/volatiletech/null/v8"

// PercentileStatistics carries the five-tier reference scores and the mean.
// Every field is null when computed over an empty population.
type PercentileStatistics struct {
	Mean     null.Float64 `json:"mean"`
	Top      null.Float64 `json:"top"`
	UpperMid null.Float64 `json:"upper_mid"`
	Mid      null.Float64 `json:"mid"`
	LowerMid null.Float64 `json:"lower_mid"`
	Bottom   null.Float64 `json:"bottom"`
}

// DistributionBucket counts scores within one fixed range.
type DistributionBucket struct {
	RangeLabel string `json:"range_label"`
	Count      int    `json:"count"`
}

// RankResult is a competition rank within a population of Total scores.
type RankResult struct {
	Rank  int `json:"rank"`
	Total int `json:"total"`
}

// StudentRank pairs a student's score with its rank. Rank is nil when the
// score is absent.
type StudentRank struct {
	StudentID string      `json:"student_id"`
	Name      string      `json:"name"`
	Score     Score       `json:"score"`
	Rank      *RankResult `json:"rank"`
}

// ScoreReport summarises one regular column or periodic exam.
type ScoreReport struct {
	CourseKey    string               `json:"course_key"`
	Column       *ScoreColumn         `json:"column,omitempty"`
	Periodic     PeriodicName         `json:"periodic,omitempty"`
	Statistics   PercentileStatistics `json:"statistics"`
	Distribution []DistributionBucket `json:"distribution"`
	Students     []StudentRank        `json:"students"`
}

// StudentTotal is a student's computed total with its components.
type StudentTotal struct {
	StudentID        string                    `json:"student_id"`
	Name             string                    `json:"name"`
	CategoryAverages map[ScoreCategory]float64 `json:"category_averages"`
	Regular          float64                   `json:"regular"`
	PeriodicAverage  float64                   `json:"periodic_average"`
	ManualAdjust     int                       `json:"manual_adjust"`
	Total            int                       `json:"total"`
	Rank             *RankResult               `json:"rank"`
	Remark           string                    `json:"remark,omitempty"`
}

// TotalsReport lists every student's total for a course.
type TotalsReport struct {
	CourseKey    string               `json:"course_key"`
	Setting      TotalScoreSetting    `json:"setting"`
	Students     []StudentTotal       `json:"students"`
	Statistics   PercentileStatistics `json:"statistics"`
	Distribution []DistributionBucket `json:"distribution"`
	Warnings     []string             `json:"warnings,omitempty"`
}

// StudentScoreView is one line of the student-facing report.
type StudentScoreView struct {
	Label        string               `json:"label"`
	ColumnIndex  null.Int             `json:"column_index"`
	Category     ScoreCategory        `json:"category,omitempty"`
	Periodic     PeriodicName         `json:"periodic,omitempty"`
	Score        Score                `json:"score"`
	Rank         *RankResult          `json:"rank"`
	Statistics   PercentileStatistics `json:"statistics"`
	Distribution []DistributionBucket `json:"distribution"`
}

// StudentReport is what a single student sees about their own standing.
type StudentReport struct {
	CourseKey string             `json:"course_key"`
	StudentID string             `json:"student_id"`
	Name      string             `json:"name"`
	Columns   []StudentScoreView `json:"columns"`
	Periodic  []StudentScoreView `json:"periodic"`
	Total     StudentTotal       `json:"total"`
}
