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

type studentViews interface {
	StudentView(ctx context.Context, username string) (*dto.StudentView, error)
	EvaluationTargets(ctx context.Context, username string) (*dto.EvaluationTargets, error)
}

type evaluationSubmitter interface {
	SubmitEvaluation(ctx context.Context, student string, req dto.EvaluationRequest) (*models.Evaluation, error)
}

// StudentHandler serves the signed-in student's own records.
type StudentHandler struct {
	views   studentViews
	records evaluationSubmitter
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(views studentViews, records evaluationSubmitter) *StudentHandler {
	return &StudentHandler{views: views, records: records}
}

// Grades godoc
// @Summary Own grade sheet
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/grades [get]
func (h *StudentHandler) Grades(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	view, err := h.views.StudentView(c.Request.Context(), claims.Username)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// EvaluationQuestions godoc
// @Summary Evaluation questions and teachers to evaluate
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/evaluation-questions [get]
func (h *StudentHandler) EvaluationQuestions(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	targets, err := h.views.EvaluationTargets(c.Request.Context(), claims.Username)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, targets)
}

// SubmitEvaluation godoc
// @Summary Evaluate one of the student's teachers
// @Tags Student
// @Accept json
// @Produce json
// @Param payload body dto.EvaluationRequest true "Evaluation"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/evaluations [post]
func (h *StudentHandler) SubmitEvaluation(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	eval, err := h.records.SubmitEvaluation(c.Request.Context(), claims.Username, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, eval)
}
