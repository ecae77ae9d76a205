package models

import "time"

// Averages are rounded to two decimals. A nil pointer means "no data" and is
// rendered as JSON null so it never reads as a zero average.

// ProgramStats summarises one program.
type ProgramStats struct {
	Program      string   `json:"program"`
	StudentCount int      `json:"student_count"`
	GradedCount  int      `json:"graded_count"`
	Average      *float64 `json:"average"`
}

// SubjectAverage is a subject ranking row.
type SubjectAverage struct {
	Subject     string  `json:"subject"`
	Average     float64 `json:"average"`
	GradedCount int     `json:"graded_count"`
}

// TeacherScore is a teacher evaluation ranking row.
type TeacherScore struct {
	Username        string  `json:"username"`
	Name            string  `json:"name"`
	Average         float64 `json:"average"`
	EvaluationCount int     `json:"evaluation_count"`
}

// QuestionStats aggregates answers to one question for one teacher.
type QuestionStats struct {
	QuestionID int      `json:"question_id"`
	Text       string   `json:"text"`
	Average    *float64 `json:"average"`
	Count      int      `json:"count"`
}

// TeacherEvaluationReport is the per-question breakdown for one teacher.
type TeacherEvaluationReport struct {
	TeacherUsername  string          `json:"teacher_username"`
	TeacherName      string          `json:"teacher_name"`
	OverallAverage   *float64        `json:"overall_average"`
	TotalEvaluations int             `json:"total_evaluations"`
	Questions        []QuestionStats `json:"questions"`
}

// InstitutionSummary is the admin-wide statistics payload.
type InstitutionSummary struct {
	TotalStudents    int              `json:"total_students"`
	TotalTeachers    int              `json:"total_teachers"`
	TotalPrograms    int              `json:"total_programs"`
	GradedCount      int              `json:"graded_count"`
	OverallAverage   *float64         `json:"overall_average"`
	PassRate         *int             `json:"pass_rate"`
	TotalEvaluations int              `json:"total_evaluations"`
	Programs         []ProgramStats   `json:"programs"`
	Subjects         []SubjectAverage `json:"subjects"`
	Teachers         []TeacherScore   `json:"teachers"`
	BestSubject      *SubjectAverage  `json:"best_subject"`
	WorstSubject     *SubjectAverage  `json:"worst_subject"`
	BestTeacher      *TeacherScore    `json:"best_teacher"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// SystemMetrics is a lightweight snapshot of process instrumentation.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DatasetRebuilds          uint64    `json:"dataset_rebuilds"`
	OverlayPersistFailures   uint64    `json:"overlay_persist_failures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
