package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/journey-records-api/internal/dto"
	"github.com/noah-isme/journey-records-api/internal/models"
	appErrors "github.com/noah-isme/journey-records-api/pkg/errors"
)

type fakeStudentViews struct {
	lastUsername string
	view         *dto.StudentView
	targets      *dto.EvaluationTargets
	err          error
}

func (f *fakeStudentViews) StudentView(_ context.Context, username string) (*dto.StudentView, error) {
	f.lastUsername = username
	return f.view, f.err
}

func (f *fakeStudentViews) EvaluationTargets(_ context.Context, username string) (*dto.EvaluationTargets, error) {
	f.lastUsername = username
	return f.targets, f.err
}

type fakeEvaluationSubmitter struct {
	student string
	req     dto.EvaluationRequest
	err     error
}

func (f *fakeEvaluationSubmitter) SubmitEvaluation(_ context.Context, student string, req dto.EvaluationRequest) (*models.Evaluation, error) {
	f.student = student
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Evaluation{ID: "eval-1", StudentUsername: student, TeacherUsername: req.TeacherUsername}, nil
}

func TestStudentHandlerGradesUsesToken(t *testing.T) {
	avg := 3.5
	views := &fakeStudentViews{view: &dto.StudentView{Username: "est01", Average: &avg}}
	handler := NewStudentHandler(views, &fakeEvaluationSubmitter{})

	c, w := newGinContext(http.MethodGet, "/student/grades", nil)
	withClaims(c, "est01", models.RoleStudent)
	handler.Grades(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "est01", views.lastUsername)
	var view dto.StudentView
	decodeEnvelope(t, w, &view)
	assert.Equal(t, 3.5, *view.Average)
}

func TestStudentHandlerGradesNotFound(t *testing.T) {
	handler := NewStudentHandler(&fakeStudentViews{err: appErrors.Clone(appErrors.ErrNotFound, "student not found")}, &fakeEvaluationSubmitter{})

	c, w := newGinContext(http.MethodGet, "/student/grades", nil)
	withClaims(c, "admin", models.RoleAdmin)
	handler.Grades(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentHandlerEvaluationQuestions(t *testing.T) {
	views := &fakeStudentViews{targets: &dto.EvaluationTargets{
		Questions: models.DefaultQuestions(),
		Teachers:  []dto.EvaluationTarget{{Username: "doc01", Evaluated: true}},
	}}
	handler := NewStudentHandler(views, &fakeEvaluationSubmitter{})

	c, w := newGinContext(http.MethodGet, "/student/evaluation-questions", nil)
	withClaims(c, "est12", models.RoleStudent)
	handler.EvaluationQuestions(c)

	require.Equal(t, http.StatusOK, w.Code)
	var targets dto.EvaluationTargets
	decodeEnvelope(t, w, &targets)
	assert.Len(t, targets.Questions, 8)
	assert.True(t, targets.Teachers[0].Evaluated)
}

func TestStudentHandlerSubmitEvaluation(t *testing.T) {
	records := &fakeEvaluationSubmitter{}
	handler := NewStudentHandler(&fakeStudentViews{}, records)

	body := []byte(`{"teacher_username":"doc01","answers":[{"question_id":1,"value":5},{"question_id":2,"value":"4,5"}]}`)
	c, w := newGinContext(http.MethodPost, "/student/evaluations", body)
	withClaims(c, "est12", models.RoleStudent)
	handler.SubmitEvaluation(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "est12", records.student)
	require.Len(t, records.req.Answers, 2)
	assert.Equal(t, 4.5, records.req.Answers[1].Value.Float64())
}

func TestStudentHandlerSubmitEvaluationErrors(t *testing.T) {
	records := &fakeEvaluationSubmitter{err: appErrors.Clone(appErrors.ErrConflict, "already evaluated")}
	handler := NewStudentHandler(&fakeStudentViews{}, records)

	c, w := newGinContext(http.MethodPost, "/student/evaluations", []byte(`{"teacher_username":"doc01","answers":[{"question_id":1,"value":"abc"}]}`))
	withClaims(c, "est12", models.RoleStudent)
	handler.SubmitEvaluation(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodPost, "/student/evaluations", []byte(`{"teacher_username":"doc01","answers":[{"question_id":1,"value":5}]}`))
	withClaims(c, "est12", models.RoleStudent)
	handler.SubmitEvaluation(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}
