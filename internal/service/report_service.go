package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/journey-records-api/internal/models"
	appErrors "github.com/noah-isme/journey-records-api/pkg/errors"
	"github.com/noah-isme/journey-records-api/pkg/export"
)

const (
	contentTypePDF = "application/pdf"
	contentTypeCSV = "text/csv"
	noData         = "Sin datos"
)

// ReportFile is a rendered report ready to be streamed to the client.
type ReportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ReportService renders downloadable reports over the merged view.
type ReportService struct {
	views       *ViewService
	aggregation *AggregationService
	pdf         *export.PDFExporter
	csv         *export.CSVExporter
	logger      *zap.Logger
	now         func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(views *ViewService, aggregation *AggregationService, pdf *export.PDFExporter, csv *export.CSVExporter, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &ReportService{views: views, aggregation: aggregation, pdf: pdf, csv: csv, logger: logger, now: time.Now}
}

// StudentReport renders the student's grade sheet including teacher overrides.
func (s *ReportService) StudentReport(ctx context.Context, username string) (*ReportFile, error) {
	view, err := s.views.StudentView(ctx, username)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]string, 0, len(view.Enrollments))
	for _, e := range view.Enrollments {
		status := "Pendiente"
		if e.Graded() {
			status = "Reprobado"
			if e.Passing() {
				status = "Aprobado"
			}
		}
		rows = append(rows, map[string]string{
			"Materia": e.Subject,
			"Docente": e.TeacherName,
			"Nota":    formatGrade(e.Grade),
			"Estado":  status,
		})
	}
	doc := export.Document{
		Title:    "Reporte de Calificaciones",
		Subtitle: view.Program,
		Summary: []export.Field{
			{Label: "Estudiante", Value: view.Name},
			{Label: "Usuario", Value: view.Username},
			{Label: "Promedio", Value: formatGrade(view.Average)},
			{Label: "Materias calificadas", Value: fmt.Sprintf("%d de %d", view.GradedCount, len(view.Enrollments))},
		},
		Sections: []export.Section{{
			Title: "Materias",
			Data:  export.Dataset{Headers: []string{"Materia", "Docente", "Nota", "Estado"}, Rows: rows},
		}},
		GeneratedAt: s.now(),
	}
	return s.renderPDF(doc, "calificaciones_"+view.Username+".pdf")
}

// TeacherReport renders the teacher's roster and evaluation breakdown.
func (s *ReportService) TeacherReport(ctx context.Context, username string) (*ReportFile, error) {
	view, err := s.views.TeacherView(ctx, username)
	if err != nil {
		return nil, err
	}
	report, err := s.aggregation.TeacherQuestionStats(ctx, username)
	if err != nil {
		return nil, err
	}

	roster := make([]map[string]string, 0, len(view.Students))
	for _, student := range view.Students {
		for _, subject := range student.Subjects {
			roster = append(roster, map[string]string{
				"Estudiante": student.Name,
				"Programa":   student.Program,
				"Materia":    subject.Subject,
				"Nota":       formatGrade(subject.Grade),
				"Asistencia": string(student.Attendance),
			})
		}
	}
	questions := make([]map[string]string, 0, len(report.Questions))
	for _, q := range report.Questions {
		questions = append(questions, map[string]string{
			"#":          strconv.Itoa(q.QuestionID),
			"Pregunta":   q.Text,
			"Promedio":   formatGrade(q.Average),
			"Respuestas": strconv.Itoa(q.Count),
		})
	}

	doc := export.Document{
		Title:    "Reporte Docente",
		Subtitle: view.Name,
		Summary: []export.Field{
			{Label: "Usuario", Value: view.Username},
			{Label: "Estudiantes", Value: strconv.Itoa(len(view.Students))},
			{Label: "Evaluaciones recibidas", Value: strconv.Itoa(report.TotalEvaluations)},
			{Label: "Promedio de evaluación", Value: formatGrade(report.OverallAverage)},
		},
		Sections: []export.Section{
			{Title: "Estudiantes", Data: export.Dataset{Headers: []string{"Estudiante", "Programa", "Materia", "Nota", "Asistencia"}, Rows: roster}},
			{Title: "Evaluación por pregunta", Data: export.Dataset{Headers: []string{"#", "Pregunta", "Promedio", "Respuestas"}, Rows: questions}},
		},
		GeneratedAt: s.now(),
	}
	return s.renderPDF(doc, "docente_"+view.Username+".pdf")
}

// InstitutionReport renders the admin summary with program, subject and teacher tables.
func (s *ReportService) InstitutionReport(ctx context.Context) (*ReportFile, error) {
	summary, err := s.aggregation.InstitutionSummary(ctx)
	if err != nil {
		return nil, err
	}

	subjects := make([]map[string]string, 0, len(summary.Subjects))
	for _, subject := range summary.Subjects {
		avg := subject.Average
		subjects = append(subjects, map[string]string{
			"Materia":     subject.Subject,
			"Promedio":    formatGrade(&avg),
			"Calificadas": strconv.Itoa(subject.GradedCount),
		})
	}
	teachers := make([]map[string]string, 0, len(summary.Teachers))
	for _, teacher := range summary.Teachers {
		avg := teacher.Average
		teachers = append(teachers, map[string]string{
			"Docente":      teacher.Name,
			"Promedio":     formatGrade(&avg),
			"Evaluaciones": strconv.Itoa(teacher.EvaluationCount),
		})
	}

	passRate := noData
	if summary.PassRate != nil {
		passRate = fmt.Sprintf("%d%%", *summary.PassRate)
	}
	doc := export.Document{
		Title:    "Reporte Institucional",
		Subtitle: "Resumen académico",
		Summary: []export.Field{
			{Label: "Estudiantes", Value: strconv.Itoa(summary.TotalStudents)},
			{Label: "Docentes", Value: strconv.Itoa(summary.TotalTeachers)},
			{Label: "Programas", Value: strconv.Itoa(summary.TotalPrograms)},
			{Label: "Promedio general", Value: formatGrade(summary.OverallAverage)},
			{Label: "Tasa de aprobación", Value: passRate},
			{Label: "Evaluaciones", Value: strconv.Itoa(summary.TotalEvaluations)},
		},
		Sections: []export.Section{
			{Title: "Programas", Data: programsDataset(summary.Programs)},
			{Title: "Materias", Data: export.Dataset{Headers: []string{"Materia", "Promedio", "Calificadas"}, Rows: subjects}},
			{Title: "Ranking docente", Data: export.Dataset{Headers: []string{"Docente", "Promedio", "Evaluaciones"}, Rows: teachers}},
		},
		GeneratedAt: summary.GeneratedAt,
	}
	return s.renderPDF(doc, "reporte_institucional.pdf")
}

// ProgramsCSV exports per-program statistics.
func (s *ReportService) ProgramsCSV(ctx context.Context) (*ReportFile, error) {
	stats, err := s.aggregation.ProgramStats(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(programsDataset(stats))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return &ReportFile{Filename: "programas.csv", ContentType: contentTypeCSV, Payload: payload}, nil
}

func (s *ReportService) renderPDF(doc export.Document, filename string) (*ReportFile, error) {
	payload, err := s.pdf.Render(doc)
	if err != nil {
		s.logger.Error("render pdf", zap.String("report", filename), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return &ReportFile{Filename: filename, ContentType: contentTypePDF, Payload: payload}, nil
}

func programsDataset(stats []models.ProgramStats) export.Dataset {
	rows := make([]map[string]string, 0, len(stats))
	for _, p := range stats {
		rows = append(rows, map[string]string{
			"Programa":    p.Program,
			"Estudiantes": strconv.Itoa(p.StudentCount),
			"Calificadas": strconv.Itoa(p.GradedCount),
			"Promedio":    formatGrade(p.Average),
		})
	}
	return export.Dataset{Headers: []string{"Programa", "Estudiantes", "Calificadas", "Promedio"}, Rows: rows}
}

func formatGrade(v *float64) string {
	if v == nil {
		return noData
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
