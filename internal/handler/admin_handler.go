package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/journey-records-api/internal/dto"
	"github.com/noah-isme/journey-records-api/internal/models"
	appErrors "github.com/noah-isme/journey-records-api/pkg/errors"
	"github.com/noah-isme/journey-records-api/pkg/response"
	"github.com/noah-isme/journey-records-api/pkg/storage"
)

type statisticsReader interface {
	ProgramStats(ctx context.Context) ([]models.ProgramStats, error)
	SubjectRankings(ctx context.Context) ([]models.SubjectAverage, error)
	TeacherRankings(ctx context.Context) ([]models.TeacherScore, error)
	TeacherQuestionStats(ctx context.Context, teacher string) (*models.TeacherEvaluationReport, error)
	InstitutionSummary(ctx context.Context) (*models.InstitutionSummary, error)
}

type adminViews interface {
	StudentView(ctx context.Context, username string) (*dto.StudentView, error)
	TeacherView(ctx context.Context, username string) (*dto.TeacherView, error)
	Directory(ctx context.Context) ([]dto.DirectoryEntry, error)
	ClearCache()
	Reimport(ctx context.Context, path string, resetOverlay bool) (*dto.ReimportResult, error)
}

type overlayClearer interface {
	Clear(ctx context.Context, req dto.ClearRequest) error
}

type uploadStore interface {
	SaveStream(filename string, r io.Reader, limit int64) (string, error)
	Delete(filename string) error
}

var allowedWorkbookExt = map[string]struct{}{".xlsx": {}, ".xlsm": {}}

// AdminHandler serves institution-wide statistics and maintenance endpoints.
type AdminHandler struct {
	stats     statisticsReader
	views     adminViews
	records   overlayClearer
	uploads   uploadStore
	maxUpload int64
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(stats statisticsReader, views adminViews, records overlayClearer, uploads uploadStore, maxUpload int64) *AdminHandler {
	return &AdminHandler{stats: stats, views: views, records: records, uploads: uploads, maxUpload: maxUpload}
}

// Stats godoc
// @Summary Institution summary
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	summary, err := h.stats.InstitutionSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

// Programs godoc
// @Summary Per-program statistics
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/programs [get]
func (h *AdminHandler) Programs(c *gin.Context) {
	stats, err := h.stats.ProgramStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, map[string]interface{}{"total": len(stats)})
}

// Subjects godoc
// @Summary Subject ranking by average grade
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/subjects [get]
func (h *AdminHandler) Subjects(c *gin.Context) {
	ranking, err := h.stats.SubjectRankings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranking, map[string]interface{}{"total": len(ranking)})
}

// TeacherRanking godoc
// @Summary Teacher ranking by evaluation average
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/teachers/ranking [get]
func (h *AdminHandler) TeacherRanking(c *gin.Context) {
	ranking, err := h.stats.TeacherRankings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranking, map[string]interface{}{"total": len(ranking)})
}

// TeacherEvaluations godoc
// @Summary Per-question evaluation breakdown of a teacher
// @Tags Admin
// @Produce json
// @Param username path string true "Teacher username"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/teachers/{username}/evaluations [get]
func (h *AdminHandler) TeacherEvaluations(c *gin.Context) {
	report, err := h.stats.TeacherQuestionStats(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Student godoc
// @Summary Grade sheet of any student
// @Tags Admin
// @Produce json
// @Param username path string true "Student username"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/students/{username} [get]
func (h *AdminHandler) Student(c *gin.Context) {
	view, err := h.views.StudentView(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Teacher godoc
// @Summary Roster of any teacher
// @Tags Admin
// @Produce json
// @Param username path string true "Teacher username"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/teachers/{username} [get]
func (h *AdminHandler) Teacher(c *gin.Context) {
	view, err := h.views.TeacherView(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Users godoc
// @Summary User directory
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) Users(c *gin.Context) {
	entries, err := h.views.Directory(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"total": len(entries)})
}

// Clear godoc
// @Summary Reset overrides, evaluations, attendance or everything
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.ClearRequest true "Scope"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/clear [post]
func (h *AdminHandler) Clear(c *gin.Context) {
	var req dto.ClearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.records.Clear(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"scope": req.Scope, "cleared": true})
}

// ClearCache godoc
// @Summary Drop the cached dataset so the next read re-imports it
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/cache/clear [post]
func (h *AdminHandler) ClearCache(c *gin.Context) {
	h.views.ClearCache()
	response.JSON(c, http.StatusOK, gin.H{"cleared": true})
}

// Upload godoc
// @Summary Upload a workbook and import it
// @Description Stores the workbook, imports it and resets the overlay on success
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Records workbook (.xlsx)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/upload [post]
func (h *AdminHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedWorkbookExt[ext]; !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "only .xlsx workbooks are accepted"))
		return
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		response.Error(c, appErrors.Wrap(storage.ErrTooLarge, appErrors.ErrValidation.Code, http.StatusRequestEntityTooLarge, storage.ErrTooLarge.Error()))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	name := uuid.NewString() + ext
	path, err := h.uploads.SaveStream(name, file, h.maxUpload)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusRequestEntityTooLarge, err.Error()))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload"))
		return
	}

	if result := h.reimport(c, path, true); result != nil && !result.Success {
		_ = h.uploads.Delete(name)
	}
}

// Reimport godoc
// @Summary Import a workbook already on the server
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.ReimportRequest true "Workbook path"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/reimport [post]
func (h *AdminHandler) Reimport(c *gin.Context) {
	var req dto.ReimportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	h.reimport(c, req.Path, req.ResetOverlay)
}

// reimport writes the outcome and returns the result, or nil when the service failed outright.
func (h *AdminHandler) reimport(c *gin.Context, path string, reset bool) *dto.ReimportResult {
	result, err := h.views.Reimport(c.Request.Context(), path, reset)
	if err != nil {
		response.Error(c, err)
		return nil
	}
	if !result.Success {
		response.JSON(c, appErrors.ErrImportFailed.Status, result)
		return result
	}
	response.JSON(c, http.StatusOK, result)
	return result
}
