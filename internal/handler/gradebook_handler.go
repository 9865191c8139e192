package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/service"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type gradebookService interface {
	Get(ctx context.Context, courseKey string) (*models.Gradebook, error)
	Replace(ctx context.Context, courseKey string, gb models.Gradebook) (*models.Gradebook, error)
	Delete(ctx context.Context, courseKey string) error
	AddColumn(ctx context.Context, courseKey string, req dto.AddColumnRequest) (*models.Gradebook, error)
	RemoveColumn(ctx context.Context, courseKey string, index int) (*models.Gradebook, error)
	UpdateColumn(ctx context.Context, courseKey string, index int, req dto.UpdateColumnRequest) (*models.Gradebook, error)
	UpdateScores(ctx context.Context, courseKey string, req dto.UpdateScoresRequest) (*models.Gradebook, error)
	UpdateStudent(ctx context.Context, courseKey, studentID string, req dto.UpdateStudentRequest) (*models.Gradebook, error)
	UpdateSettings(ctx context.Context, courseKey string, req dto.UpdateSettingsRequest) (*models.TotalScoreSetting, []string, error)
	SyncRoster(ctx context.Context, courseKey string) (*models.Gradebook, int, error)
	Totals(ctx context.Context, courseKey string) (*models.TotalsReport, bool, error)
	ColumnReport(ctx context.Context, courseKey string, index int) (*models.ScoreReport, bool, error)
	PeriodicReport(ctx context.Context, courseKey string, name models.PeriodicName) (*models.ScoreReport, bool, error)
	StudentReport(ctx context.Context, courseKey, studentID string) (*models.StudentReport, bool, error)
}

type gradebookExporter interface {
	Export(ctx context.Context, courseKey string, format service.ExportFormat) (*service.ExportResult, error)
}

// GradebookHandler exposes gradebook editing and reporting endpoints.
type GradebookHandler struct {
	service  gradebookService
	exporter gradebookExporter
}

// NewGradebookHandler constructs the handler. exporter may be nil.
func NewGradebookHandler(service gradebookService, exporter gradebookExporter) *GradebookHandler {
	return &GradebookHandler{service: service, exporter: exporter}
}

// Get godoc
// @Summary Get course gradebook
// @Tags Gradebooks
// @Produce json
// @Param courseKey path string true "Course key, e.g. Algebra(MA101)"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{courseKey} [get]
func (h *GradebookHandler) Get(c *gin.Context) {
	gb, err := h.service.Get(c.Request.Context(), c.Param("courseKey"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gb)
}

// Replace godoc
// @Summary Replace course gradebook
// @Tags Gradebooks
// @Accept json
// @Produce json
// @Param courseKey path string true "Course key"
// @Param payload body models.Gradebook true "Full gradebook"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{courseKey} [put]
func (h *GradebookHandler) Replace(c *gin.Context) {
	var req models.Gradebook
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid gradebook payload"))
		return
	}
	gb, err := h.service.Replace(c.Request.Context(), c.Param("courseKey"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gb)
}

// Delete godoc
// @Summary Delete course gradebook
// @Tags Gradebooks
// @Param courseKey path string true "Course key"
// @Success 204
// @Router /gradebooks/{courseKey} [delete]
func (h *GradebookHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("courseKey")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddColumn godoc
// @Summary Append a score column
// @Tags Gradebooks
// @Accept json
// @Produce json
// @Param courseKey path string true "Course key"
// @Param payload body dto.AddColumnRequest true "Column payload"
// @Success 201 {object} response.Envelope
// @Router /gradebooks/{courseKey}/columns [post]
func (h *GradebookHandler) AddColumn(c *gin.Context) {
	var req dto.AddColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid column payload"))
		return
	}
	gb, err := h.service.AddColumn(c.Request.Context(), c.Param("courseKey"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gb)
}

// UpdateColumn godoc
// @Summary Update score column metadata
// @Tags Gradebooks
// @Accept json
// @Produce json
// @Param courseKey path string true "Course key"
// @Param index path int true "Column index"
// @Param payload body dto.UpdateColumnRequest true "Column changes"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{courseKey}/columns/{index} [patch]
func (h *GradebookHandler) UpdateColumn(c *gin.Context) {
	index, ok := columnIndexParam(c)
	if !ok {
		return
	}
	var req dto.UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid column payload"))
		return
	}
	gb, err := h.service.UpdateColumn(c.Request.Context(), c.Param("courseKey"), index, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gb)
}

// RemoveColumn godoc
// @Summary Remove a score column
// @Description Later columns shift down by one and keep their scores.
// @Tags Gradebooks
// @Produce json
// @Param courseKey path string true "Course key"
// @Param index path int true "Column index"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{courseKey}/columns/{index} [delete]
func (h *GradebookHandler) RemoveColumn(c *gin.Context) {
	index, ok := columnIndexParam(c)
	if !ok {
		return
	}
	gb, err := h.service.RemoveColumn(c.Request.Context(), c.Param("courseKey"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gb)
}

// UpdateScores godoc
// @Summary Record or clear scores
// @Tags Gradebooks
// @Accept json
// @Produce json
// @Param courseKey path string true "Course key"
// @Param payload body dto.UpdateScoresRequest true "Score entries"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{courseKey}/scores [put]
func (h *GradebookHandler) UpdateScores(c *gin.Context) {
	var req dto.UpdateScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scores payload"))
		return
	}
	gb, err := h.service.UpdateScores(c.Request.Context(), c.Param("courseKey"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gb)
}

// UpdateStudent godoc
// @Summary Update manual adjustment or remark
// @Tags Gradebooks
// @Accept json
// @Produce json
// @Param courseKey path string true "Course key"
// @Param studentId path string true "Student ID"
// @Param payload body dto.UpdateStudentRequest true "Student changes"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{courseKey}/students/{studentId} [patch]
func (h *GradebookHandler) UpdateStudent(c *gin.Context) {
	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	gb, err := h.service.UpdateStudent(c.Request.Context(), c.Param("courseKey"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gb)
}

// UpdateSettings godoc
// @Summary Replace total score setting
// @Description Inconsistent weights are accepted and reported in meta.warnings.
// @Tags Gradebooks
// @Accept json
// @Produce json
// @Param courseKey path string true "Course key"
// @Param payload body dto.UpdateSettingsRequest true "Setting payload"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{courseKey}/settings [put]
func (h *GradebookHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	setting, warnings, err := h.service.UpdateSettings(c.Request.Context(), c.Param("courseKey"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if len(warnings) > 0 {
		meta = map[string]interface{}{"warnings": warnings}
	}
	response.JSON(c, http.StatusOK, dto.SettingsResponse{Setting: *setting, Warnings: warnings}, meta)
}

// SyncRoster godoc
// @Summary Add newly enrolled students
// @Tags Gradebooks
// @Produce json
// @Param courseKey path string true "Course key"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{courseKey}/roster/sync [post]
func (h *GradebookHandler) SyncRoster(c *gin.Context) {
	gb, added, err := h.service.SyncRoster(c.Request.Context(), c.Param("courseKey"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.RosterSyncResponse{Added: added, Students: len(gb.Students)})
}

// Totals godoc
// @Summary Total scores with ranks
// @Tags Reports
// @Produce json
// @Param courseKey path string true "Course key"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{courseKey}/totals [get]
func (h *GradebookHandler) Totals(c *gin.Context) {
	report, cacheHit, err := h.service.Totals(c.Request.Context(), c.Param("courseKey"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, report, cacheHit)
}

// ColumnReport godoc
// @Summary Statistics and ranks for one column
// @Tags Reports
// @Produce json
// @Param courseKey path string true "Course key"
// @Param index path int true "Column index"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{courseKey}/columns/{index}/report [get]
func (h *GradebookHandler) ColumnReport(c *gin.Context) {
	index, ok := columnIndexParam(c)
	if !ok {
		return
	}
	report, cacheHit, err := h.service.ColumnReport(c.Request.Context(), c.Param("courseKey"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, report, cacheHit)
}

// PeriodicReport godoc
// @Summary Statistics and ranks for one periodic exam
// @Tags Reports
// @Produce json
// @Param courseKey path string true "Course key"
// @Param name path string true "FIRST, SECOND or FINAL"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{courseKey}/periodic/{name}/report [get]
func (h *GradebookHandler) PeriodicReport(c *gin.Context) {
	name := models.PeriodicName(strings.ToUpper(strings.TrimSpace(c.Param("name"))))
	report, cacheHit, err := h.service.PeriodicReport(c.Request.Context(), c.Param("courseKey"), name)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, report, cacheHit)
}

// StudentReport godoc
// @Summary One student's scores with ranks and class statistics
// @Tags Reports
// @Produce json
// @Param courseKey path string true "Course key"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{courseKey}/students/{studentId}/report [get]
func (h *GradebookHandler) StudentReport(c *gin.Context) {
	report, cacheHit, err := h.service.StudentReport(c.Request.Context(), c.Param("courseKey"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, report, cacheHit)
}

// Export godoc
// @Summary Download total scores
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param courseKey path string true "Course key"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /gradebooks/{courseKey}/export [get]
func (h *GradebookHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(service.ExportFormatCSV))))
	result, err := h.exporter.Export(c.Request.Context(), c.Param("courseKey"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Payload)
}

func respondReport(c *gin.Context, report interface{}, cacheHit bool) {
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, report, middleware.ExtractMeta(c))
}

func columnIndexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "column index must be an integer"))
		return 0, false
	}
	return index, true
}
