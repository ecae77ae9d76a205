package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/journey-records-api/internal/dto"
	"github.com/noah-isme/journey-records-api/internal/models"
	appErrors "github.com/noah-isme/journey-records-api/pkg/errors"
)

// RecordsService validates write requests against the current view and applies them to the overlay.
type RecordsService struct {
	views     *ViewService
	overlay   *OverlayStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRecordsService constructs the service.
func NewRecordsService(views *ViewService, overlay *OverlayStore, validate *validator.Validate, logger *zap.Logger) *RecordsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordsService{views: views, overlay: overlay, validator: validate, logger: logger}
}

// RecordAttendance marks a student of the teacher's roster.
func (s *RecordsService) RecordAttendance(ctx context.Context, teacher string, req dto.AttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	status, err := models.ParseAttendanceStatus(req.Status)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance status")
	}
	ds, err := s.views.Current(ctx)
	if err != nil {
		return err
	}
	teacher = models.NormalizeUsername(teacher)
	t, ok := ds.Teachers[teacher]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	student := models.NormalizeUsername(req.StudentUsername)
	if !t.Teaches(student) {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found in roster")
	}
	if err := s.overlay.SetAttendance(ctx, teacher, student, status); err != nil {
		return err
	}
	s.logger.Info("attendance recorded", zap.String("teacher", teacher), zap.String("student", student), zap.String("status", string(status)))
	return nil
}

// SetGradeOverride replaces the effective grade of an enrollment.
// Teachers may only grade enrollments they teach; administrators may grade any.
func (s *RecordsService) SetGradeOverride(ctx context.Context, actor *models.JWTClaims, req dto.GradeOverrideRequest) (*dto.StudentView, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	ds, err := s.views.Current(ctx)
	if err != nil {
		return nil, err
	}
	studentName := models.NormalizeUsername(req.StudentUsername)
	subject := strings.TrimSpace(req.Subject)
	student, ok := ds.Students[studentName]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if !student.TakesSubject(subject) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student is not enrolled in %s", subject))
	}
	if actor.Role != models.RoleAdmin && !student.TaughtBy(subject, models.NormalizeUsername(actor.Username)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the subject teacher can grade this enrollment")
	}

	if err := s.overlay.SetOverride(ctx, studentName, subject, req.Grade.Float64()); err != nil {
		return nil, err
	}
	s.logger.Info("grade override set",
		zap.String("actor", actor.Username),
		zap.String("student", studentName),
		zap.String("subject", subject),
		zap.Float64("grade", req.Grade.Float64()),
	)
	return s.views.StudentView(ctx, studentName)
}

// SubmitEvaluation stores a student's one-time evaluation of one of their teachers.
func (s *RecordsService) SubmitEvaluation(ctx context.Context, student string, req dto.EvaluationRequest) (*models.Evaluation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	ds, err := s.views.Current(ctx)
	if err != nil {
		return nil, err
	}
	student = models.NormalizeUsername(student)
	st, ok := ds.Students[student]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	teacher := models.NormalizeUsername(req.TeacherUsername)
	teaches := false
	for _, username := range st.TeacherUsernames() {
		if username == teacher {
			teaches = true
			break
		}
	}
	if !teaches {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found among the student's teachers")
	}

	known := make(map[int]struct{}, len(ds.Questions))
	for _, q := range ds.Questions {
		known[q.ID] = struct{}{}
	}
	answers := make([]models.Answer, 0, len(req.Answers))
	for _, in := range req.Answers {
		if _, ok := known[in.QuestionID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown question %d", in.QuestionID))
		}
		answers = append(answers, models.Answer{QuestionID: in.QuestionID, Value: in.Value.Float64()})
	}

	eval, err := s.overlay.SaveEvaluation(ctx, student, teacher, answers)
	if err != nil {
		return nil, err
	}
	s.logger.Info("evaluation submitted", zap.String("student", student), zap.String("teacher", teacher), zap.String("id", eval.ID))
	return eval, nil
}

// Clear resets the requested part of the overlay.
func (s *RecordsService) Clear(ctx context.Context, req dto.ClearRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clear scope")
	}
	var err error
	switch req.Scope {
	case dto.ClearScopeNotes:
		err = s.overlay.ClearOverrides(ctx)
	case dto.ClearScopeEvaluations:
		err = s.overlay.ClearEvaluations(ctx)
	case dto.ClearScopeAttendance:
		err = s.overlay.ClearAttendance(ctx)
	case dto.ClearScopeAll:
		err = s.overlay.ClearAll(ctx)
	}
	if err != nil {
		return err
	}
	s.logger.Info("overlay cleared", zap.String("scope", req.Scope))
	return nil
}

// TeacherEvaluations returns the evaluations a teacher received with the per-question breakdown.
func (s *RecordsService) TeacherEvaluations(ctx context.Context, teacher string) (*dto.TeacherEvaluations, error) {
	ds, err := s.views.Current(ctx)
	if err != nil {
		return nil, err
	}
	evals := s.overlay.TeacherEvaluations(teacher)
	report, err := TeacherQuestionStats(ds, teacher, evals)
	if err != nil {
		return nil, err
	}
	return &dto.TeacherEvaluations{Report: report, Evaluations: evals}, nil
}
