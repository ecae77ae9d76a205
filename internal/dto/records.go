package dto

import (
	"time"

	"github.com/noah-isme/journey-records-api/internal/models"
)

// Clear scopes accepted by the admin clear endpoint.
const (
	ClearScopeNotes       = "notes"
	ClearScopeEvaluations = "evaluations"
	ClearScopeAttendance  = "attendance"
	ClearScopeAll         = "all"
)

// AttendanceRequest marks a student present or absent for the calling teacher.
type AttendanceRequest struct {
	StudentUsername string `json:"student_username" validate:"required"`
	Status          string `json:"status" validate:"required"`
}

// GradeOverrideRequest replaces the effective grade of one enrollment.
type GradeOverrideRequest struct {
	StudentUsername string         `json:"student_username" validate:"required"`
	Subject         string         `json:"subject" validate:"required"`
	Grade           *FlexibleFloat `json:"grade" validate:"required"`
}

// AnswerInput is one answer of an evaluation submission.
type AnswerInput struct {
	QuestionID int            `json:"question_id" validate:"required,gt=0"`
	Value      *FlexibleFloat `json:"value" validate:"required"`
}

// EvaluationRequest is a student's evaluation of one of their teachers.
type EvaluationRequest struct {
	TeacherUsername string        `json:"teacher_username" validate:"required"`
	Answers         []AnswerInput `json:"answers" validate:"required,min=1,dive"`
}

// ClearRequest selects which part of the overlay to reset.
type ClearRequest struct {
	Scope string `json:"scope" validate:"required,oneof=notes evaluations attendance all"`
}

// ReimportRequest points the service at a workbook already on disk.
type ReimportRequest struct {
	Path         string `json:"path" validate:"required"`
	ResetOverlay bool   `json:"reset_overlay"`
}

// ReimportResult reports the outcome of an explicit reimport.
type ReimportResult struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	Source       string    `json:"source"`
	Students     int       `json:"students"`
	Teachers     int       `json:"teachers"`
	Programs     int       `json:"programs"`
	Questions    int       `json:"questions"`
	OverlayReset bool      `json:"overlay_reset"`
	ImportedAt   time.Time `json:"imported_at,omitempty"`
}

// StudentView is a student's merged grade sheet.
type StudentView struct {
	Username    string              `json:"username"`
	Name        string              `json:"name"`
	Program     string              `json:"program"`
	Enrollments []models.Enrollment `json:"enrollments"`
	Average     *float64            `json:"average"`
	GradedCount int                 `json:"graded_count"`
}

// RosterStatus is a roster entry with the teacher's attendance mark.
type RosterStatus struct {
	Username   string                  `json:"username"`
	Name       string                  `json:"name"`
	Program    string                  `json:"program"`
	Attendance models.AttendanceStatus `json:"attendance"`
	Subjects   []SubjectGrade          `json:"subjects"`
}

// SubjectGrade is an enrollment a teacher owns, seen from the roster.
type SubjectGrade struct {
	Subject    string   `json:"subject"`
	Grade      *float64 `json:"grade"`
	Overridden bool     `json:"overridden"`
}

// TeacherView is a teacher's merged roster.
type TeacherView struct {
	Username string         `json:"username"`
	Name     string         `json:"name"`
	Programs []string       `json:"programs"`
	Students []RosterStatus `json:"students"`
}

// EvaluationTarget is a teacher the student can evaluate.
type EvaluationTarget struct {
	Username  string   `json:"username"`
	Name      string   `json:"name"`
	Subjects  []string `json:"subjects"`
	Evaluated bool     `json:"evaluated"`
}

// EvaluationTargets lists the questions and the teachers of a student.
type EvaluationTargets struct {
	Questions []models.Question  `json:"questions"`
	Teachers  []EvaluationTarget `json:"teachers"`
}

// TeacherEvaluations bundles raw evaluations with their per-question breakdown.
type TeacherEvaluations struct {
	Report      *models.TeacherEvaluationReport `json:"report"`
	Evaluations []models.Evaluation             `json:"evaluations"`
}

// DirectoryEntry is a user listing row for administrators.
type DirectoryEntry struct {
	Username string          `json:"username"`
	Name     string          `json:"name"`
	Role     models.UserRole `json:"role"`
	Program  string          `json:"program,omitempty"`
	Programs []string        `json:"programs,omitempty"`
}
