package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/journey-records-api/internal/models"
	appErrors "github.com/noah-isme/journey-records-api/pkg/errors"
)

func grade(v float64) *float64 { return &v }

func enrollment(subject string, g *float64, teacher string) models.Enrollment {
	return models.Enrollment{Subject: subject, Grade: g, OriginalGrade: g, TeacherUsername: teacher, TeacherName: "Prof " + teacher}
}

func aggregationDataset() *models.Dataset {
	ds := models.NewDataset()
	ds.Students["est01"] = &models.Student{Username: "est01", Name: "Ana", Program: "Sales", Enrollments: []models.Enrollment{
		enrollment("Costos", grade(4), "doc01"),
		enrollment("Diseño", grade(2.5), "doc02"),
	}}
	ds.Students["est02"] = &models.Student{Username: "est02", Name: "Beto", Program: "Sales", Enrollments: []models.Enrollment{
		enrollment("Costos", grade(3), "doc01"),
		enrollment("Analítica", nil, "doc02"),
	}}
	ds.Students["est03"] = &models.Student{Username: "est03", Name: "Caro", Program: "Hotels", Enrollments: []models.Enrollment{
		enrollment("Analítica", nil, "doc02"),
	}}
	ds.Teachers["doc01"] = &models.Teacher{Username: "doc01", Name: "Edgar"}
	ds.Teachers["doc02"] = &models.Teacher{Username: "doc02", Name: "Edgar"}
	ds.Teachers["doc03"] = &models.Teacher{Username: "doc03", Name: "Ingrid"}
	ds.Programs["Sales"] = &models.Program{Name: "Sales", Students: []string{"est01", "est02"}}
	ds.Programs["Hotels"] = &models.Program{Name: "Hotels", Students: []string{"est03"}}
	ds.Questions = []models.Question{{ID: 1, Text: "Claridad"}, {ID: 2, Text: "Puntualidad"}, {ID: 3, Text: "Respeto"}}
	return ds
}

func evaluation(student, teacher string, values ...float64) models.Evaluation {
	return models.Evaluation{StudentUsername: student, TeacherUsername: teacher, Answers: answers(values...)}
}

func TestStudentAverageIgnoresUngraded(t *testing.T) {
	avg := StudentAverage([]models.Enrollment{
		enrollment("a", grade(4), ""),
		enrollment("b", grade(3), ""),
		enrollment("c", nil, ""),
		enrollment("d", grade(2), ""),
	})
	require.NotNil(t, avg)
	assert.Equal(t, 3.0, *avg)

	assert.Nil(t, StudentAverage(nil))
	assert.Nil(t, StudentAverage([]models.Enrollment{enrollment("a", nil, "")}))
}

func TestStudentAverageRoundsToTwoDecimals(t *testing.T) {
	avg := StudentAverage([]models.Enrollment{
		enrollment("a", grade(4), ""),
		enrollment("b", grade(3), ""),
		enrollment("c", grade(3), ""),
	})
	require.NotNil(t, avg)
	assert.Equal(t, 3.33, *avg)
}

func TestPassRate(t *testing.T) {
	ds := models.NewDataset()
	ds.Students["a"] = &models.Student{Enrollments: []models.Enrollment{
		enrollment("x", grade(4), ""),
		enrollment("y", grade(2.5), ""),
	}}
	ds.Students["b"] = &models.Student{Enrollments: []models.Enrollment{
		enrollment("x", grade(3), ""),
		enrollment("y", nil, ""),
	}}
	rate := PassRate(ds)
	require.NotNil(t, rate)
	assert.Equal(t, 67, *rate)

	empty := models.NewDataset()
	empty.Students["a"] = &models.Student{Enrollments: []models.Enrollment{enrollment("x", nil, "")}}
	assert.Nil(t, PassRate(empty))
}

func TestProgramStatistics(t *testing.T) {
	stats := ProgramStatistics(aggregationDataset())
	require.Len(t, stats, 2)

	assert.Equal(t, "Hotels", stats[0].Program)
	assert.Equal(t, 1, stats[0].StudentCount)
	assert.Nil(t, stats[0].Average)

	assert.Equal(t, "Sales", stats[1].Program)
	assert.Equal(t, 2, stats[1].StudentCount)
	assert.Equal(t, 3, stats[1].GradedCount)
	require.NotNil(t, stats[1].Average)
	assert.Equal(t, 3.17, *stats[1].Average)
}

func TestSubjectRankingsExcludeUngradedSubjects(t *testing.T) {
	rankings := SubjectRankings(aggregationDataset())
	require.Len(t, rankings, 2)
	assert.Equal(t, "Costos", rankings[0].Subject)
	assert.Equal(t, 3.5, rankings[0].Average)
	assert.Equal(t, 2, rankings[0].GradedCount)
	assert.Equal(t, "Diseño", rankings[1].Subject)
	for _, r := range rankings {
		assert.NotEqual(t, "Analítica", r.Subject)
	}
}

func TestTeacherRankingsJoinByUsername(t *testing.T) {
	ds := aggregationDataset()
	evals := []models.Evaluation{
		evaluation("est01", "doc01", 3, 3),
		evaluation("est02", "doc01", 4, 4),
		evaluation("est01", "doc02", 5, 5),
		evaluation("est01", "ghost", 5),
	}
	rankings := TeacherRankings(ds, evals)
	require.Len(t, rankings, 2)

	assert.Equal(t, "doc02", rankings[0].Username)
	assert.Equal(t, 5.0, rankings[0].Average)
	assert.Equal(t, 1, rankings[0].EvaluationCount)
	assert.Equal(t, "doc01", rankings[1].Username)
	assert.Equal(t, 3.5, rankings[1].Average)
	assert.Equal(t, 2, rankings[1].EvaluationCount)

	assert.Empty(t, TeacherRankings(ds, nil))
}

func TestTeacherQuestionStats(t *testing.T) {
	ds := aggregationDataset()
	evals := []models.Evaluation{
		{TeacherUsername: "doc01", Answers: []models.Answer{{QuestionID: 1, Value: 5}, {QuestionID: 2, Value: 4}}},
		{TeacherUsername: "doc01", Answers: []models.Answer{{QuestionID: 1, Value: 4}}},
		{TeacherUsername: "doc02", Answers: []models.Answer{{QuestionID: 1, Value: 1}}},
	}

	report, err := TeacherQuestionStats(ds, "DOC01", evals)
	require.NoError(t, err)
	assert.Equal(t, "Edgar", report.TeacherName)
	assert.Equal(t, 2, report.TotalEvaluations)
	require.NotNil(t, report.OverallAverage)
	assert.Equal(t, 4.33, *report.OverallAverage)

	require.Len(t, report.Questions, 3)
	assert.Equal(t, 4.5, *report.Questions[0].Average)
	assert.Equal(t, 2, report.Questions[0].Count)
	assert.Equal(t, 4.0, *report.Questions[1].Average)
	assert.Nil(t, report.Questions[2].Average)
	assert.Zero(t, report.Questions[2].Count)

	unevaluated, err := TeacherQuestionStats(ds, "doc03", evals)
	require.NoError(t, err)
	assert.Nil(t, unevaluated.OverallAverage)

	_, err = TeacherQuestionStats(ds, "nobody", evals)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestInstitutionSummary(t *testing.T) {
	ds := aggregationDataset()
	evals := []models.Evaluation{
		evaluation("est01", "doc01", 4),
		evaluation("est01", "doc02", 2),
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	summary := InstitutionSummary(ds, evals, now)
	assert.Equal(t, 3, summary.TotalStudents)
	assert.Equal(t, 3, summary.TotalTeachers)
	assert.Equal(t, 2, summary.TotalPrograms)
	assert.Equal(t, 3, summary.GradedCount)
	assert.Equal(t, 3.17, *summary.OverallAverage)
	assert.Equal(t, 67, *summary.PassRate)
	assert.Equal(t, 2, summary.TotalEvaluations)
	assert.Equal(t, "Costos", summary.BestSubject.Subject)
	assert.Equal(t, "Diseño", summary.WorstSubject.Subject)
	assert.Equal(t, "doc01", summary.BestTeacher.Username)
	assert.Equal(t, now, summary.GeneratedAt)
}

func TestInstitutionSummaryWithoutData(t *testing.T) {
	summary := InstitutionSummary(models.NewDataset(), nil, time.Now())
	assert.Nil(t, summary.OverallAverage)
	assert.Nil(t, summary.PassRate)
	assert.Nil(t, summary.BestSubject)
	assert.Nil(t, summary.BestTeacher)
	assert.Empty(t, summary.Subjects)
}
