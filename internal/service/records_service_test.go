package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/journey-records-api/internal/dto"
	"github.com/noah-isme/journey-records-api/internal/models"
	appErrors "github.com/noah-isme/journey-records-api/pkg/errors"
)

func flex(v float64) *dto.FlexibleFloat {
	f := dto.FlexibleFloat(v)
	return &f
}

func newTestRecordsService(t *testing.T) (*RecordsService, *OverlayStore) {
	t.Helper()
	importer := NewDatasetImporter(defaultAdminConfig(), nil)
	overlay := newTestOverlay(&snapshotRepoStub{})
	views := NewViewService(importer, overlay, "", nil, nil)
	return NewRecordsService(views, overlay, nil, nil), overlay
}

func teacherClaims(username string) *models.JWTClaims {
	return &models.JWTClaims{Username: username, Role: models.RoleTeacher}
}

func TestRecordsServiceRecordAttendance(t *testing.T) {
	svc, overlay := newTestRecordsService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordAttendance(ctx, "doc01", dto.AttendanceRequest{StudentUsername: "EST12", Status: "presente"}))
	assert.Equal(t, models.AttendancePresent, overlay.AttendanceFor("doc01", "est12"))

	err := svc.RecordAttendance(ctx, "doc01", dto.AttendanceRequest{StudentUsername: "est03", Status: "present"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound), "est03 is not on doc01's roster")

	err = svc.RecordAttendance(ctx, "doc01", dto.AttendanceRequest{StudentUsername: "est12", Status: "late"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	err = svc.RecordAttendance(ctx, "doc01", dto.AttendanceRequest{Status: "present"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestRecordsServiceSetGradeOverride(t *testing.T) {
	svc, overlay := newTestRecordsService(t)
	ctx := context.Background()

	view, err := svc.SetGradeOverride(ctx, teacherClaims("doc03"), dto.GradeOverrideRequest{
		StudentUsername: "est03", Subject: "Costos", Grade: flex(4.2),
	})
	require.NoError(t, err)
	assert.Equal(t, 4.2, *view.Average)
	assert.Equal(t, map[string]float64{"Costos": 4.2}, overlay.Overrides("est03"))

	_, err = svc.SetGradeOverride(ctx, teacherClaims("doc01"), dto.GradeOverrideRequest{
		StudentUsername: "est03", Subject: "Costos", Grade: flex(1),
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.SetGradeOverride(ctx, &models.JWTClaims{Username: "admin", Role: models.RoleAdmin}, dto.GradeOverrideRequest{
		StudentUsername: "est03", Subject: "Costos", Grade: flex(1),
	})
	require.NoError(t, err)

	_, err = svc.SetGradeOverride(ctx, teacherClaims("doc03"), dto.GradeOverrideRequest{
		StudentUsername: "est03", Subject: "Astronomía", Grade: flex(3),
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.SetGradeOverride(ctx, teacherClaims("doc03"), dto.GradeOverrideRequest{
		StudentUsername: "est03", Subject: "Costos",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.SetGradeOverride(ctx, teacherClaims("doc03"), dto.GradeOverrideRequest{
		StudentUsername: "est03", Subject: "Costos", Grade: flex(9),
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, 1.0, overlay.Overrides("est03")["Costos"])
}

func TestRecordsServiceSubmitEvaluation(t *testing.T) {
	svc, overlay := newTestRecordsService(t)
	ctx := context.Background()

	req := dto.EvaluationRequest{
		TeacherUsername: "DOC05",
		Answers: []dto.AnswerInput{
			{QuestionID: 1, Value: flex(5)},
			{QuestionID: 2, Value: flex(4)},
		},
	}
	eval, err := svc.SubmitEvaluation(ctx, "est01", req)
	require.NoError(t, err)
	assert.Equal(t, "doc05", eval.TeacherUsername)
	assert.True(t, overlay.HasEvaluated("est01", "doc05"))

	_, err = svc.SubmitEvaluation(ctx, "est01", req)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	_, err = svc.SubmitEvaluation(ctx, "est01", dto.EvaluationRequest{
		TeacherUsername: "doc02",
		Answers:         []dto.AnswerInput{{QuestionID: 1, Value: flex(5)}},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound), "doc02 does not teach est01")

	_, err = svc.SubmitEvaluation(ctx, "est01", dto.EvaluationRequest{
		TeacherUsername: "doc01",
		Answers:         []dto.AnswerInput{{QuestionID: 99, Value: flex(5)}},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.SubmitEvaluation(ctx, "est01", dto.EvaluationRequest{TeacherUsername: "doc01"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.False(t, overlay.HasEvaluated("est01", "doc01"))
}

func TestRecordsServiceClear(t *testing.T) {
	svc, overlay := newTestRecordsService(t)
	ctx := context.Background()

	require.NoError(t, overlay.SetOverride(ctx, "est01", "Presupuestos", 3))
	require.NoError(t, overlay.SetAttendance(ctx, "doc01", "est01", models.AttendancePresent))

	require.NoError(t, svc.Clear(ctx, dto.ClearRequest{Scope: dto.ClearScopeNotes}))
	assert.Empty(t, overlay.Overrides("est01"))
	assert.Equal(t, models.AttendancePresent, overlay.AttendanceFor("doc01", "est01"))

	require.NoError(t, svc.Clear(ctx, dto.ClearRequest{Scope: dto.ClearScopeAll}))
	assert.Equal(t, models.AttendanceUnrecorded, overlay.AttendanceFor("doc01", "est01"))

	err := svc.Clear(ctx, dto.ClearRequest{Scope: "everything"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestRecordsServiceTeacherEvaluations(t *testing.T) {
	svc, _ := newTestRecordsService(t)
	ctx := context.Background()

	_, err := svc.SubmitEvaluation(ctx, "est01", dto.EvaluationRequest{
		TeacherUsername: "doc01",
		Answers:         []dto.AnswerInput{{QuestionID: 1, Value: flex(3)}, {QuestionID: 2, Value: flex(5)}},
	})
	require.NoError(t, err)

	result, err := svc.TeacherEvaluations(ctx, "doc01")
	require.NoError(t, err)
	assert.Len(t, result.Evaluations, 1)
	assert.Equal(t, 4.0, *result.Report.OverallAverage)
	assert.Equal(t, 3.0, *result.Report.Questions[0].Average)

	_, err = svc.TeacherEvaluations(ctx, "ghost")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestRecordsServiceSetGradeOverrideSharedSubject(t *testing.T) {
	ds := viewDataset("Costos", grade(2))
	ds.Users["doc02"] = &models.User{Username: "doc02", Role: models.RoleTeacher, Name: "Marta"}
	ds.Students["est01"].Enrollments = append(ds.Students["est01"].Enrollments,
		models.Enrollment{Subject: "Costos", TeacherName: "Marta", TeacherUsername: "doc02"})
	ds.Teachers["doc02"] = &models.Teacher{Username: "doc02", Name: "Marta", Programs: []string{"Sales"},
		Students: []models.RosterEntry{{Username: "est01", Name: "Ana", Program: "Sales"}}}

	importer := &importerStub{datasets: map[string]*models.Dataset{"shared.xlsx": ds}}
	overlay := newTestOverlay(&snapshotRepoStub{})
	views := NewViewService(importer, overlay, "shared.xlsx", nil, nil)
	svc := NewRecordsService(views, overlay, nil, nil)
	ctx := context.Background()

	_, err := svc.SetGradeOverride(ctx, teacherClaims("DOC02"), dto.GradeOverrideRequest{
		StudentUsername: "est01", Subject: "Costos", Grade: flex(4.5),
	})
	require.NoError(t, err)
	assert.Equal(t, 4.5, overlay.Overrides("est01")["Costos"])

	_, err = svc.SetGradeOverride(ctx, teacherClaims("doc01"), dto.GradeOverrideRequest{
		StudentUsername: "est01", Subject: "Costos", Grade: flex(3),
	})
	require.NoError(t, err)

	_, err = svc.SetGradeOverride(ctx, teacherClaims("doc09"), dto.GradeOverrideRequest{
		StudentUsername: "est01", Subject: "Costos", Grade: flex(1),
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
