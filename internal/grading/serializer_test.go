package grading

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func sampleGradebook() *models.Gradebook {
	gb := gradebookWithColumns(models.CategoryQuiz, models.CategoryHomework, models.CategoryAttitude)
	gb.Columns[0].ExamDate = null.TimeFrom(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	gb.TotalSetting.Categories[models.CategoryQuiz] = models.CategorySetting{Percent: 20, CalcMethod: models.CalcBestN, N: null.IntFrom(2)}

	first := studentWith("s1", map[int]float64{0: 80, 2: 0}, map[models.PeriodicName]float64{models.PeriodicFirst: 77.5})
	first.ManualAdjust = -2
	first.Remark = "late homework"
	second := studentWith("s2", nil, nil)
	gb.Students = append(gb.Students, first, second)
	return gb
}

func TestStorageRoundTrip(t *testing.T) {
	gb := sampleGradebook()

	payload, err := ToStorage(gb)
	require.NoError(t, err)

	back, err := FromStorage(payload)
	require.NoError(t, err)
	assert.Equal(t, gb, back)
}

func TestToStorageWritesExplicitNulls(t *testing.T) {
	payload, err := ToStorage(sampleGradebook())
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &doc))
	assert.EqualValues(t, StorageSchemaVersion, doc["schema_version"])

	students := doc["students"].([]interface{})
	first := students[0].(map[string]interface{})
	regular := first["regular_scores"].(map[string]interface{})
	assert.Len(t, regular, 3)
	assert.Equal(t, 80.0, regular["0"])
	value, present := regular["1"]
	assert.True(t, present)
	assert.Nil(t, value)
	assert.Equal(t, 0.0, regular["2"])

	periodic := first["periodic_scores"].(map[string]interface{})
	assert.Len(t, periodic, 3)
	assert.Equal(t, 77.5, periodic["FIRST"])
	value, present = periodic["FINAL"]
	assert.True(t, present)
	assert.Nil(t, value)

	second := students[1].(map[string]interface{})
	for _, v := range second["regular_scores"].(map[string]interface{}) {
		assert.Nil(t, v)
	}

	columns := doc["columns"].([]interface{})
	value, present = columns[1].(map[string]interface{})["exam_date"]
	assert.True(t, present)
	assert.Nil(t, value)

	categories := doc["total_setting"].(map[string]interface{})["categories"].(map[string]interface{})
	value, present = categories["HOMEWORK"].(map[string]interface{})["n"]
	assert.True(t, present)
	assert.Nil(t, value)
	assert.EqualValues(t, 2, categories["QUIZ"].(map[string]interface{})["n"])
}

func TestFromStorageNullIsNotZero(t *testing.T) {
	payload := []byte(`{
		"schema_version": 1,
		"course_key": "Algebra(MA101)",
		"columns": [
			{"index": 0, "category": "QUIZ", "label": "Q1", "exam_date": null},
			{"index": 1, "category": "QUIZ", "label": "Q2", "exam_date": null}
		],
		"students": [{
			"student_id": "s1",
			"name": "Lin",
			"regular_scores": {"0": null, "1": 0},
			"periodic_scores": {"FIRST": null, "SECOND": 0, "FINAL": null},
			"manual_adjust": 0,
			"remark": ""
		}],
		"total_setting": {
			"regular_percent": 60,
			"periodic_percent": 40,
			"manual_adjust_default": 0,
			"categories": {"QUIZ": {"percent": 20, "calc_method": "BEST_N", "n": null}},
			"periodic_enabled": {"FIRST": true, "SECOND": true, "FINAL": true}
		},
		"periodic_scores": ["FIRST", "SECOND", "FINAL"]
	}`)

	gb, err := FromStorage(payload)
	require.NoError(t, err)

	student := gb.Student("s1")
	require.NotNil(t, student)
	_, ok := student.RegularScores[0]
	assert.False(t, ok)
	assert.Equal(t, score(0), student.RegularScores[1])
	assert.Equal(t, map[models.PeriodicName]models.Score{models.PeriodicSecond: score(0)}, student.PeriodicScores)
	assert.False(t, gb.TotalSetting.Categories[models.CategoryQuiz].N.Valid)

	assert.Nil(t, Rank([]models.Score{student.RegularScores[0]}, student.RegularScores[0]))
}

func TestFromStorageRejectsBadDocuments(t *testing.T) {
	for _, payload := range []string{"", "   ", "null"} {
		_, err := FromStorage([]byte(payload))
		assert.ErrorIs(t, err, ErrEmptyDocument, "payload %q", payload)
	}

	_, err := FromStorage([]byte(`{"schema_version": 2}`))
	assert.Error(t, err)

	_, err = FromStorage([]byte(`{"schema_version": 1`))
	assert.Error(t, err)

	_, err = FromStorage([]byte(`{
		"schema_version": 1,
		"columns": [{"index": 0, "category": "QUIZ", "label": "Q1"}],
		"students": [{"student_id": "s1", "regular_scores": {"3": 90}}]
	}`))
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestToStorageRefusesInconsistentGradebook(t *testing.T) {
	_, err := ToStorage(nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	gb := sampleGradebook()
	gb.Students[0].RegularScores[7] = score(50)
	_, err = ToStorage(gb)
	assert.ErrorIs(t, err, ErrInvariant)
}
