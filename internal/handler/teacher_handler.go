package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/journey-records-api/internal/dto"
	"github.com/noah-isme/journey-records-api/internal/models"
	appErrors "github.com/noah-isme/journey-records-api/pkg/errors"
	"github.com/noah-isme/journey-records-api/pkg/response"
)

type teacherViews interface {
	TeacherView(ctx context.Context, username string) (*dto.TeacherView, error)
}

type teacherRecords interface {
	RecordAttendance(ctx context.Context, teacher string, req dto.AttendanceRequest) error
	SetGradeOverride(ctx context.Context, actor *models.JWTClaims, req dto.GradeOverrideRequest) (*dto.StudentView, error)
	TeacherEvaluations(ctx context.Context, teacher string) (*dto.TeacherEvaluations, error)
}

// TeacherHandler serves the signed-in teacher's roster and write operations.
type TeacherHandler struct {
	views   teacherViews
	records teacherRecords
}

// NewTeacherHandler constructs the handler.
func NewTeacherHandler(views teacherViews, records teacherRecords) *TeacherHandler {
	return &TeacherHandler{views: views, records: records}
}

// Info godoc
// @Summary Own roster with attendance and grades
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/info [get]
func (h *TeacherHandler) Info(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	view, err := h.views.TeacherView(c.Request.Context(), claims.Username)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Attendance godoc
// @Summary Mark a roster student present or absent
// @Tags Teacher
// @Accept json
// @Produce json
// @Param payload body dto.AttendanceRequest true "Attendance"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/attendance [post]
func (h *TeacherHandler) Attendance(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.records.RecordAttendance(c.Request.Context(), claims.Username, req); err != nil {
		response.Error(c, err)
		return
	}
	status, _ := models.ParseAttendanceStatus(req.Status)
	response.JSON(c, http.StatusOK, gin.H{
		"student_username": models.NormalizeUsername(req.StudentUsername),
		"status":           status,
	})
}

// Grades godoc
// @Summary Override a student's grade
// @Tags Teacher
// @Accept json
// @Produce json
// @Param payload body dto.GradeOverrideRequest true "Grade"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/grades [post]
func (h *TeacherHandler) Grades(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.GradeOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	view, err := h.records.SetGradeOverride(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Evaluations godoc
// @Summary Evaluations received with per-question averages
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/evaluations [get]
func (h *TeacherHandler) Evaluations(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	result, err := h.records.TeacherEvaluations(c.Request.Context(), claims.Username)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
