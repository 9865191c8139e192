package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

const maxCourseKeyLength = 200

type gradebookStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, document []byte) error
	Delete(ctx context.Context, key string) error
}

type rosterReader interface {
	ListByCourse(ctx context.Context, courseCode string) ([]models.RosterEntry, error)
}

type reportWarmer interface {
	Warm(courseKey string)
}

// GradebookService loads, mutates and reports on course gradebooks.
type GradebookService struct {
	store     gradebookStore
	roster    rosterReader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	warmer    reportWarmer
}

// NewGradebookService constructs GradebookService. roster, cache and metrics may be nil.
func NewGradebookService(store gradebookStore, roster rosterReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GradebookService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradebookService{
		store:     store,
		roster:    roster,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// UseReportWarmer schedules a background recompute of the totals report after
// every successful change.
func (s *GradebookService) UseReportWarmer(w reportWarmer) {
	s.warmer = w
}

// Get returns the stored gradebook, or a default one seeded from the course
// roster when nothing has been saved yet.
func (s *GradebookService) Get(ctx context.Context, courseKey string) (*models.Gradebook, error) {
	if err := validateCourseKey(courseKey); err != nil {
		return nil, err
	}
	return s.load(ctx, courseKey)
}

// Replace stores a whole gradebook document. The last write wins.
func (s *GradebookService) Replace(ctx context.Context, courseKey string, gb models.Gradebook) (*models.Gradebook, error) {
	if err := validateCourseKey(courseKey); err != nil {
		return nil, err
	}
	canonical, err := canonicalGradebook(courseKey, gb)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, canonical); err != nil {
		return nil, err
	}
	s.changed(ctx, courseKey)
	return canonical, nil
}

// Delete removes the stored gradebook of a course.
func (s *GradebookService) Delete(ctx context.Context, courseKey string) error {
	if err := validateCourseKey(courseKey); err != nil {
		return err
	}
	start := time.Now()
	err := s.store.Delete(ctx, courseKey)
	s.metrics.ObserveDBQuery("gradebook_delete", time.Since(start))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete gradebook")
	}
	s.cache.InvalidateCourse(ctx, courseKey)
	s.logger.Info("gradebook deleted", zap.String("course_key", courseKey))
	return nil
}

// AddColumn appends a score column.
func (s *GradebookService) AddColumn(ctx context.Context, courseKey string, req dto.AddColumnRequest) (*models.Gradebook, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid column payload")
	}
	return s.mutate(ctx, courseKey, func(gb *models.Gradebook) error {
		grading.AddColumn(gb, models.ScoreCategory(req.Category), strings.TrimSpace(req.Label))
		gb.Columns[len(gb.Columns)-1].ExamDate = req.ExamDate
		return nil
	})
}

// RemoveColumn deletes a score column and re-packs student scores.
func (s *GradebookService) RemoveColumn(ctx context.Context, courseKey string, index int) (*models.Gradebook, error) {
	return s.mutate(ctx, courseKey, func(gb *models.Gradebook) error {
		_, err := grading.RemoveColumn(gb, index)
		return err
	})
}

// UpdateColumn changes the metadata of one column.
func (s *GradebookService) UpdateColumn(ctx context.Context, courseKey string, index int, req dto.UpdateColumnRequest) (*models.Gradebook, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid column payload")
	}
	patch := grading.ColumnPatch{}
	if req.Category != nil {
		category := models.ScoreCategory(*req.Category)
		patch.Category = &category
	}
	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		patch.Label = &label
	}
	switch {
	case req.ExamDate.Valid:
		patch.ExamDate = &req.ExamDate
	case req.ClearExamDate:
		cleared := req.ExamDate
		patch.ExamDate = &cleared
	}
	return s.mutate(ctx, courseKey, func(gb *models.Gradebook) error {
		_, err := grading.UpdateColumn(gb, index, patch)
		return err
	})
}

// UpdateScores applies a batch of score edits. Nothing is stored when any
// entry is rejected.
func (s *GradebookService) UpdateScores(ctx context.Context, courseKey string, req dto.UpdateScoresRequest) (*models.Gradebook, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	return s.mutate(ctx, courseKey, func(gb *models.Gradebook) error {
		for i, item := range req.Items {
			if appErr := applyScore(gb, item); appErr != nil {
				return appErrors.Clone(appErr, fmt.Sprintf("item %d: %s", i, appErr.Message))
			}
		}
		return nil
	})
}

// UpdateStudent sets a student's manual adjustment (clamped to [-5,5]) and remark.
func (s *GradebookService) UpdateStudent(ctx context.Context, courseKey, studentID string, req dto.UpdateStudentRequest) (*models.Gradebook, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	return s.mutate(ctx, courseKey, func(gb *models.Gradebook) error {
		student := gb.Student(studentID)
		if student == nil {
			return appErrors.Clone(appErrors.ErrNotFound, "student not in gradebook")
		}
		if req.ManualAdjust != nil {
			student.ManualAdjust = models.ClampManualAdjust(*req.ManualAdjust)
		}
		if req.Remark != nil {
			student.Remark = strings.TrimSpace(*req.Remark)
		}
		return nil
	})
}

// UpdateSettings replaces the total score setting and returns the stored
// setting with warnings an editor should show. Warnings never block the save.
// Exams outside the gradebook's periodic list are stored disabled.
func (s *GradebookService) UpdateSettings(ctx context.Context, courseKey string, req dto.UpdateSettingsRequest) (*models.TotalScoreSetting, []string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	setting := models.TotalScoreSetting{
		PeriodicPercent:     req.PeriodicPercent,
		ManualAdjustDefault: req.ManualAdjustDefault,
		Categories:          make(map[models.ScoreCategory]models.CategorySetting, len(req.Categories)),
		PeriodicEnabled:     make(map[models.PeriodicName]bool, len(req.PeriodicEnabled)),
	}
	for category, cs := range req.Categories {
		setting.Categories[models.ScoreCategory(category)] = models.CategorySetting{
			Percent:    cs.Percent,
			CalcMethod: models.CalcMethod(cs.CalcMethod),
			N:          cs.N,
		}
	}
	for name, enabled := range req.PeriodicEnabled {
		setting.PeriodicEnabled[models.PeriodicName(name)] = enabled
	}
	setting = grading.NormalizeSetting(setting)

	var warnings []string
	gb, err := s.mutate(ctx, courseKey, func(gb *models.Gradebook) error {
		warnings = grading.SettingWarnings(setting, gb.Columns, gb.PeriodicScores)
		gb.TotalSetting = grading.RestrictPeriodic(setting, gb.PeriodicScores)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if len(warnings) > 0 {
		s.logger.Info("gradebook settings saved with warnings", zap.String("course_key", courseKey), zap.Strings("warnings", warnings))
	}
	return &gb.TotalSetting, warnings, nil
}

// SyncRoster adds enrolled students missing from the gradebook and returns how many were added.
func (s *GradebookService) SyncRoster(ctx context.Context, courseKey string) (*models.Gradebook, int, error) {
	if s.roster == nil {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "roster provider not configured")
	}
	_, courseCode, ok := models.ParseCourseKey(courseKey)
	if !ok {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "course key must look like name(code)")
	}
	roster, err := s.listRoster(ctx, courseCode)
	if err != nil {
		return nil, 0, err
	}

	added := 0
	gb, err := s.mutate(ctx, courseKey, func(gb *models.Gradebook) error {
		added = addRosterStudents(gb, roster)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return gb, added, nil
}

// Totals computes every student's total with a rank among all totals. The
// boolean reports whether the result came from cache.
func (s *GradebookService) Totals(ctx context.Context, courseKey string) (*models.TotalsReport, bool, error) {
	if err := validateCourseKey(courseKey); err != nil {
		return nil, false, err
	}
	cacheKey, cacheable := s.reportCacheKey(ctx, courseKey, "totals")
	var cached models.TotalsReport
	if cacheable && s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	gb, err := s.load(ctx, courseKey)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	report := buildTotalsReport(gb)
	s.metrics.ObserveCompute("totals", time.Since(start))

	if cacheable {
		s.cache.Set(ctx, cacheKey, report, 0)
	}
	return report, false, nil
}

// ColumnReport summarises one regular score column.
func (s *GradebookService) ColumnReport(ctx context.Context, courseKey string, index int) (*models.ScoreReport, bool, error) {
	if err := validateCourseKey(courseKey); err != nil {
		return nil, false, err
	}
	cacheKey, cacheable := s.reportCacheKey(ctx, courseKey, "column", strconv.Itoa(index))
	var cached models.ScoreReport
	if cacheable && s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	gb, err := s.load(ctx, courseKey)
	if err != nil {
		return nil, false, err
	}
	if index < 0 || index >= len(gb.Columns) {
		return nil, false, columnRangeError(index, len(gb.Columns))
	}

	start := time.Now()
	column := gb.Columns[index]
	report := buildScoreReport(gb, func(student models.StudentGradeRow) models.Score {
		return student.RegularScores[index]
	})
	report.Column = &column
	s.metrics.ObserveCompute("column_report", time.Since(start))

	if cacheable {
		s.cache.Set(ctx, cacheKey, report, 0)
	}
	return report, false, nil
}

// PeriodicReport summarises one periodic exam of the gradebook.
func (s *GradebookService) PeriodicReport(ctx context.Context, courseKey string, name models.PeriodicName) (*models.ScoreReport, bool, error) {
	if err := validateCourseKey(courseKey); err != nil {
		return nil, false, err
	}
	if !name.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "periodic must be one of FIRST, SECOND, FINAL")
	}
	cacheKey, cacheable := s.reportCacheKey(ctx, courseKey, "periodic", string(name))
	var cached models.ScoreReport
	if cacheable && s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	gb, err := s.load(ctx, courseKey)
	if err != nil {
		return nil, false, err
	}
	if !gb.HasPeriodic(name) {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "periodic exam not part of this gradebook")
	}

	start := time.Now()
	report := buildScoreReport(gb, func(student models.StudentGradeRow) models.Score {
		return student.PeriodicScores[name]
	})
	report.Periodic = name
	s.metrics.ObserveCompute("periodic_report", time.Since(start))

	if cacheable {
		s.cache.Set(ctx, cacheKey, report, 0)
	}
	return report, false, nil
}

// StudentReport is the student-facing view: for each column and periodic
// exam the student's score, rank and the population statistics.
func (s *GradebookService) StudentReport(ctx context.Context, courseKey, studentID string) (*models.StudentReport, bool, error) {
	if err := validateCourseKey(courseKey); err != nil {
		return nil, false, err
	}
	cacheKey, cacheable := s.reportCacheKey(ctx, courseKey, "student", studentID)
	var cached models.StudentReport
	if cacheable && s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	gb, err := s.load(ctx, courseKey)
	if err != nil {
		return nil, false, err
	}
	student := gb.Student(studentID)
	if student == nil {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "student not in gradebook")
	}

	start := time.Now()
	report := &models.StudentReport{
		CourseKey: gb.CourseKey,
		StudentID: student.StudentID,
		Name:      student.Name,
		Columns:   make([]models.StudentScoreView, 0, len(gb.Columns)),
		Periodic:  make([]models.StudentScoreView, 0, len(gb.PeriodicScores)),
	}
	for _, column := range gb.Columns {
		index := column.Index
		view := scoreView(gb, *student, func(row models.StudentGradeRow) models.Score {
			return row.RegularScores[index]
		})
		view.Label = column.Label
		view.ColumnIndex.SetValid(index)
		view.Category = column.Category
		report.Columns = append(report.Columns, view)
	}
	for _, name := range gb.PeriodicScores {
		periodic := name
		view := scoreView(gb, *student, func(row models.StudentGradeRow) models.Score {
			return row.PeriodicScores[periodic]
		})
		view.Label = string(periodic)
		view.Periodic = periodic
		report.Periodic = append(report.Periodic, view)
	}
	totals := buildTotalsReport(gb)
	for _, total := range totals.Students {
		if total.StudentID == studentID {
			report.Total = total
			break
		}
	}
	s.metrics.ObserveCompute("student_report", time.Since(start))

	if cacheable {
		s.cache.Set(ctx, cacheKey, report, 0)
	}
	return report, false, nil
}

// reportCacheKey scopes a report key to the course's cache generation. It must
// be called before the gradebook is loaded. ok is false when the report
// should not be cached.
func (s *GradebookService) reportCacheKey(ctx context.Context, courseKey string, parts ...string) (string, bool) {
	generation, ok := s.cache.Generation(ctx, courseKey)
	if !ok {
		return "", false
	}
	scoped := append([]string{"g" + strconv.FormatInt(generation, 10)}, parts...)
	return ReportCacheKey(courseKey, scoped...), true
}

func (s *GradebookService) mutate(ctx context.Context, courseKey string, apply func(gb *models.Gradebook) error) (*models.Gradebook, error) {
	if err := validateCourseKey(courseKey); err != nil {
		return nil, err
	}
	gb, err := s.load(ctx, courseKey)
	if err != nil {
		return nil, err
	}
	if err := apply(gb); err != nil {
		return nil, mapEngineError(err)
	}
	if err := s.save(ctx, gb); err != nil {
		return nil, err
	}
	s.changed(ctx, courseKey)
	return gb, nil
}

func (s *GradebookService) changed(ctx context.Context, courseKey string) {
	s.cache.InvalidateCourse(ctx, courseKey)
	if s.warmer != nil {
		s.warmer.Warm(courseKey)
	}
}

func (s *GradebookService) load(ctx context.Context, courseKey string) (*models.Gradebook, error) {
	start := time.Now()
	document, err := s.store.Load(ctx, courseKey)
	s.metrics.ObserveDBQuery("gradebook_load", time.Since(start))
	if err != nil {
		if err == sql.ErrNoRows {
			return s.defaultGradebook(ctx, courseKey)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gradebook")
	}

	gb, err := grading.FromStorage(document)
	if err != nil {
		switch {
		case errors.Is(err, grading.ErrEmptyDocument):
			return s.defaultGradebook(ctx, courseKey)
		case errors.Is(err, grading.ErrInvariant):
			s.metrics.IncInvariantViolation()
			s.logger.Error("stored gradebook is inconsistent", zap.String("course_key", courseKey), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInvariantViolation.Code, appErrors.ErrInvariantViolation.Status, appErrors.ErrInvariantViolation.Message)
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode gradebook")
		}
	}
	gb.CourseKey = courseKey
	return gb, nil
}

func (s *GradebookService) defaultGradebook(ctx context.Context, courseKey string) (*models.Gradebook, error) {
	gb := models.NewGradebook(courseKey)
	if s.roster == nil {
		return gb, nil
	}
	_, courseCode, ok := models.ParseCourseKey(courseKey)
	if !ok {
		return gb, nil
	}
	roster, err := s.listRoster(ctx, courseCode)
	if err != nil {
		return nil, err
	}
	addRosterStudents(gb, roster)
	return gb, nil
}

func (s *GradebookService) listRoster(ctx context.Context, courseCode string) ([]models.RosterEntry, error) {
	start := time.Now()
	roster, err := s.roster.ListByCourse(ctx, courseCode)
	s.metrics.ObserveDBQuery("roster_list", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course roster")
	}
	return roster, nil
}

func (s *GradebookService) save(ctx context.Context, gb *models.Gradebook) error {
	document, err := grading.ToStorage(gb)
	if err != nil {
		if errors.Is(err, grading.ErrInvariant) {
			s.metrics.IncInvariantViolation()
			s.logger.Error("refusing to persist inconsistent gradebook", zap.String("course_key", gb.CourseKey), zap.Error(err))
			return appErrors.Wrap(err, appErrors.ErrInvariantViolation.Code, appErrors.ErrInvariantViolation.Status, appErrors.ErrInvariantViolation.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode gradebook")
	}

	start := time.Now()
	err = s.store.Save(ctx, gb.CourseKey, document)
	s.metrics.ObserveDBQuery("gradebook_save", time.Since(start))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save gradebook")
	}
	return nil
}

func validateCourseKey(courseKey string) error {
	if strings.TrimSpace(courseKey) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "course key is required")
	}
	if len(courseKey) > maxCourseKeyLength {
		return appErrors.Clone(appErrors.ErrValidation, "course key is too long")
	}
	return nil
}

func mapEngineError(err error) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, grading.ErrColumnOutOfRange):
		return appErrors.Wrap(err, appErrors.ErrColumnOutOfRange.Code, appErrors.ErrColumnOutOfRange.Status, appErrors.ErrColumnOutOfRange.Message)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update gradebook")
	}
}

func columnRangeError(index, count int) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrColumnOutOfRange, fmt.Sprintf("score column %d out of range [0,%d)", index, count))
}

func applyScore(gb *models.Gradebook, item dto.ScoreEntry) *appErrors.Error {
	student := gb.Student(item.StudentID)
	if student == nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not in gradebook", item.StudentID))
	}
	if item.Score.Valid && (math.IsNaN(item.Score.Float64) || math.IsInf(item.Score.Float64, 0)) {
		return appErrors.Clone(appErrors.ErrValidation, "score must be a finite number")
	}

	switch {
	case item.ColumnIndex.Valid && item.Periodic == "":
		index := item.ColumnIndex.Int
		if index < 0 || index >= len(gb.Columns) {
			return columnRangeError(index, len(gb.Columns))
		}
		student.SetRegularScore(index, item.Score)
	case !item.ColumnIndex.Valid && item.Periodic != "":
		name := models.PeriodicName(item.Periodic)
		if !gb.HasPeriodic(name) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("periodic exam %s not part of this gradebook", name))
		}
		student.SetPeriodicScore(name, item.Score)
	default:
		return appErrors.Clone(appErrors.ErrValidation, "exactly one of column_index or periodic is required")
	}
	return nil
}

func addRosterStudents(gb *models.Gradebook, roster []models.RosterEntry) int {
	added := 0
	for _, entry := range roster {
		if entry.StudentID == "" || gb.Student(entry.StudentID) != nil {
			continue
		}
		gb.Students = append(gb.Students, models.NewStudentGradeRow(entry.StudentID, entry.Name, gb.TotalSetting.ManualAdjustDefault))
		added++
	}
	return added
}

// canonicalGradebook validates a client-supplied document and rebuilds it in
// canonical form: absent scores as missing keys, a normalized setting and
// non-nil collections.
func canonicalGradebook(courseKey string, gb models.Gradebook) (*models.Gradebook, error) {
	out := &models.Gradebook{
		CourseKey:      courseKey,
		Columns:        make([]models.ScoreColumn, len(gb.Columns)),
		Students:       make([]models.StudentGradeRow, 0, len(gb.Students)),
		PeriodicScores: gb.PeriodicScores,
	}
	if len(out.PeriodicScores) == 0 {
		out.PeriodicScores = append([]models.PeriodicName(nil), models.PeriodicNames...)
	}
	seenPeriodic := make(map[models.PeriodicName]bool, len(out.PeriodicScores))
	for _, name := range out.PeriodicScores {
		if !name.Valid() || seenPeriodic[name] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid periodic exam %q", name))
		}
		seenPeriodic[name] = true
	}

	for i, column := range gb.Columns {
		if !column.Category.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("column %d has unknown category %q", i, column.Category))
		}
		out.Columns[i] = column
	}

	out.TotalSetting = grading.RestrictPeriodic(withSettingDefaults(gb.TotalSetting), out.PeriodicScores)

	seenStudents := make(map[string]bool, len(gb.Students))
	for _, student := range gb.Students {
		if student.StudentID == "" || seenStudents[student.StudentID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing or duplicate student id %q", student.StudentID))
		}
		seenStudents[student.StudentID] = true

		row := models.NewStudentGradeRow(student.StudentID, student.Name, student.ManualAdjust)
		row.Remark = student.Remark
		for index, score := range student.RegularScores {
			row.SetRegularScore(index, score)
		}
		for name, score := range student.PeriodicScores {
			if !seenPeriodic[name] {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s has score for unknown periodic exam %q", student.StudentID, name))
			}
			row.SetPeriodicScore(name, score)
		}
		out.Students = append(out.Students, row)
	}

	if err := grading.CheckInvariants(out); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "gradebook columns and scores are inconsistent")
	}
	return out, nil
}

// withSettingDefaults fills the parts of a client setting that were left out.
// An entirely empty setting becomes the default one unchanged.
func withSettingDefaults(setting models.TotalScoreSetting) models.TotalScoreSetting {
	defaults := models.DefaultTotalSetting()
	if setting.Categories == nil && setting.PeriodicEnabled == nil && setting.PeriodicPercent == 0 && setting.ManualAdjustDefault == 0 {
		return defaults
	}
	if setting.Categories == nil {
		setting.Categories = defaults.Categories
	}
	if setting.PeriodicEnabled == nil {
		setting.PeriodicEnabled = defaults.PeriodicEnabled
	}
	return grading.NormalizeSetting(setting)
}

func buildTotalsReport(gb *models.Gradebook) *models.TotalsReport {
	report := &models.TotalsReport{
		CourseKey: gb.CourseKey,
		Setting:   gb.TotalSetting,
		Students:  make([]models.StudentTotal, len(gb.Students)),
		Warnings:  grading.SettingWarnings(gb.TotalSetting, gb.Columns, gb.PeriodicScores),
	}
	totals := make([]models.Score, len(gb.Students))
	for i, student := range gb.Students {
		report.Students[i] = grading.Breakdown(student, gb.Columns, gb.TotalSetting)
		totals[i] = models.ScoreOf(float64(report.Students[i].Total))
	}
	for i := range report.Students {
		report.Students[i].Rank = grading.Rank(totals, totals[i])
	}
	values := grading.GradedValues(totals)
	report.Statistics = grading.ComputeStatistics(values)
	report.Distribution = grading.ComputeDistribution(values)
	return report
}

// buildScoreReport passes only graded scores of the population into the
// statistics, so a missing score never counts as 0 here.
func buildScoreReport(gb *models.Gradebook, pick func(models.StudentGradeRow) models.Score) *models.ScoreReport {
	scores := make([]models.Score, len(gb.Students))
	for i, student := range gb.Students {
		scores[i] = pick(student)
	}
	values := grading.GradedValues(scores)

	report := &models.ScoreReport{
		CourseKey:    gb.CourseKey,
		Statistics:   grading.ComputeStatistics(values),
		Distribution: grading.ComputeDistribution(values),
		Students:     make([]models.StudentRank, len(gb.Students)),
	}
	for i, student := range gb.Students {
		report.Students[i] = models.StudentRank{
			StudentID: student.StudentID,
			Name:      student.Name,
			Score:     scores[i],
			Rank:      grading.Rank(scores, scores[i]),
		}
	}
	return report
}

func scoreView(gb *models.Gradebook, student models.StudentGradeRow, pick func(models.StudentGradeRow) models.Score) models.StudentScoreView {
	scores := make([]models.Score, len(gb.Students))
	for i, row := range gb.Students {
		scores[i] = pick(row)
	}
	values := grading.GradedValues(scores)
	mine := pick(student)
	return models.StudentScoreView{
		Score:        mine,
		Rank:         grading.Rank(scores, mine),
		Statistics:   grading.ComputeStatistics(values),
		Distribution: grading.ComputeDistribution(values),
	}
}
