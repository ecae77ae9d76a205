package service

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/noah-isme/journey-records-api/internal/models"
	appErrors "github.com/noah-isme/journey-records-api/pkg/errors"
)

// Aggregates are computed from scratch on every call over a merged dataset.
// An empty contributing set yields nil ("no data"), never zero.

const averagePrecision = 2

// meanOf returns the rounded arithmetic mean or nil for an empty input.
func meanOf(values []float64) *float64 {
	m, err := stats.Mean(stats.Float64Data(values))
	if err != nil {
		return nil
	}
	rounded, err := stats.Round(m, averagePrecision)
	if err != nil {
		return nil
	}
	return &rounded
}

func gradesOf(enrollments []models.Enrollment) []float64 {
	values := make([]float64, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Grade != nil && !math.IsNaN(*e.Grade) && !math.IsInf(*e.Grade, 0) {
			values = append(values, *e.Grade)
		}
	}
	return values
}

// StudentAverage is the mean effective grade of the graded enrollments.
func StudentAverage(enrollments []models.Enrollment) *float64 {
	return meanOf(gradesOf(enrollments))
}

// ProgramStatistics returns one row per program, sorted by program name.
func ProgramStatistics(ds *models.Dataset) []models.ProgramStats {
	result := make([]models.ProgramStats, 0, len(ds.Programs))
	for name, program := range ds.Programs {
		values := make([]float64, 0)
		for _, username := range program.Students {
			if student, ok := ds.Students[username]; ok {
				values = append(values, gradesOf(student.Enrollments)...)
			}
		}
		result = append(result, models.ProgramStats{
			Program:      name,
			StudentCount: len(program.Students),
			GradedCount:  len(values),
			Average:      meanOf(values),
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Program < result[j].Program })
	return result
}

// SubjectRankings ranks subjects by mean effective grade, best first.
// Subjects without any graded enrollment are left out.
func SubjectRankings(ds *models.Dataset) []models.SubjectAverage {
	bySubject := make(map[string][]float64)
	for _, student := range ds.Students {
		for _, e := range student.Enrollments {
			if g := gradesOf([]models.Enrollment{e}); len(g) > 0 {
				bySubject[e.Subject] = append(bySubject[e.Subject], g[0])
			}
		}
	}
	result := make([]models.SubjectAverage, 0, len(bySubject))
	for subject, values := range bySubject {
		avg := meanOf(values)
		if avg == nil {
			continue
		}
		result = append(result, models.SubjectAverage{Subject: subject, Average: *avg, GradedCount: len(values)})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Average != result[j].Average {
			return result[i].Average > result[j].Average
		}
		return result[i].Subject < result[j].Subject
	})
	return result
}

// TeacherRankings ranks teachers of the dataset by the mean of every answer they received.
// Evaluations are joined to teachers by username; unevaluated teachers are left out.
func TeacherRankings(ds *models.Dataset, evals []models.Evaluation) []models.TeacherScore {
	values := make(map[string][]float64)
	counts := make(map[string]int)
	for _, eval := range evals {
		if _, ok := ds.Teachers[eval.TeacherUsername]; !ok {
			continue
		}
		counts[eval.TeacherUsername]++
		for _, a := range eval.Answers {
			values[eval.TeacherUsername] = append(values[eval.TeacherUsername], a.Value)
		}
	}
	result := make([]models.TeacherScore, 0, len(values))
	for username, answers := range values {
		avg := meanOf(answers)
		if avg == nil {
			continue
		}
		result = append(result, models.TeacherScore{
			Username:        username,
			Name:            ds.Teachers[username].Name,
			Average:         *avg,
			EvaluationCount: counts[username],
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Average != result[j].Average {
			return result[i].Average > result[j].Average
		}
		return result[i].Username < result[j].Username
	})
	return result
}

// TeacherQuestionStats breaks a teacher's evaluations down per question.
func TeacherQuestionStats(ds *models.Dataset, teacher string, evals []models.Evaluation) (*models.TeacherEvaluationReport, error) {
	teacher = models.NormalizeUsername(teacher)
	t, ok := ds.Teachers[teacher]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}

	byQuestion := make(map[int][]float64)
	all := make([]float64, 0)
	total := 0
	for _, eval := range evals {
		if eval.TeacherUsername != teacher {
			continue
		}
		total++
		for _, a := range eval.Answers {
			byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a.Value)
			all = append(all, a.Value)
		}
	}

	questions := make([]models.QuestionStats, 0, len(ds.Questions))
	for _, q := range ds.Questions {
		values := byQuestion[q.ID]
		questions = append(questions, models.QuestionStats{
			QuestionID: q.ID,
			Text:       q.Text,
			Average:    meanOf(values),
			Count:      len(values),
		})
	}

	return &models.TeacherEvaluationReport{
		TeacherUsername:  t.Username,
		TeacherName:      t.Name,
		OverallAverage:   meanOf(all),
		TotalEvaluations: total,
		Questions:        questions,
	}, nil
}

// PassRate is the rounded percentage of graded enrollments at or above the passing grade.
func PassRate(ds *models.Dataset) *int {
	graded, passing := 0, 0
	for _, student := range ds.Students {
		for _, e := range student.Enrollments {
			if len(gradesOf([]models.Enrollment{e})) == 0 {
				continue
			}
			graded++
			if e.Passing() {
				passing++
			}
		}
	}
	if graded == 0 {
		return nil
	}
	rate := int(math.Round(float64(passing) / float64(graded) * 100))
	return &rate
}

// InstitutionSummary assembles every institution-wide aggregate.
func InstitutionSummary(ds *models.Dataset, evals []models.Evaluation, now time.Time) models.InstitutionSummary {
	values := make([]float64, 0)
	for _, student := range ds.Students {
		values = append(values, gradesOf(student.Enrollments)...)
	}
	subjects := SubjectRankings(ds)
	teachers := TeacherRankings(ds, evals)

	summary := models.InstitutionSummary{
		TotalStudents:    len(ds.Students),
		TotalTeachers:    len(ds.Teachers),
		TotalPrograms:    len(ds.Programs),
		GradedCount:      len(values),
		OverallAverage:   meanOf(values),
		PassRate:         PassRate(ds),
		TotalEvaluations: len(evals),
		Programs:         ProgramStatistics(ds),
		Subjects:         subjects,
		Teachers:         teachers,
		GeneratedAt:      now.UTC(),
	}
	if len(subjects) > 0 {
		best, worst := subjects[0], subjects[len(subjects)-1]
		summary.BestSubject = &best
		summary.WorstSubject = &worst
	}
	if len(teachers) > 0 {
		best := teachers[0]
		summary.BestTeacher = &best
	}
	return summary
}
