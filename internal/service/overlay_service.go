package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/journey-records-api/internal/models"
	"github.com/noah-isme/journey-records-api/internal/repository"
	appErrors "github.com/noah-isme/journey-records-api/pkg/errors"
)

type snapshotRepository interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
}

// OverlayStore holds runtime mutations layered over the imported dataset:
// attendance marks, grade overrides and submitted evaluations.
// Every mutation rewrites the whole snapshot through the repository.
type OverlayStore struct {
	mu      sync.Mutex
	state   *models.OverlayState
	repo    snapshotRepository
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

// NewOverlayStore constructs an empty store. Call Load to restore a persisted snapshot.
func NewOverlayStore(repo snapshotRepository, metrics *MetricsService, logger *zap.Logger) *OverlayStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverlayStore{
		state:   models.NewOverlayState(),
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Load restores the persisted snapshot. Any failure leaves an empty overlay.
func (s *OverlayStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = models.NewOverlayState()
	if s.repo == nil {
		return
	}
	payload, err := s.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			s.logger.Info("no overlay snapshot found, starting empty")
		} else {
			s.logger.Warn("overlay snapshot unreadable, starting empty", zap.Error(err))
		}
		return
	}
	var state models.OverlayState
	if err := json.Unmarshal(payload, &state); err != nil {
		s.logger.Warn("overlay snapshot malformed, starting empty", zap.Error(err))
		return
	}
	state.Normalize()
	s.state = &state
	s.logger.Info("overlay snapshot restored",
		zap.Int("evaluations", countNested(state.Evaluations)),
		zap.Int("overrides", countNested(state.Overrides)),
	)
}

// SetAttendance upserts the attendance mark of a student for a teacher.
func (s *OverlayStore) SetAttendance(ctx context.Context, teacher, student string, status models.AttendanceStatus) error {
	teacher, student = models.NormalizeUsername(teacher), models.NormalizeUsername(student)
	if teacher == "" || student == "" {
		return appErrors.Clone(appErrors.ErrValidation, "teacher and student are required")
	}
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid attendance status %q", status))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	marks, ok := s.state.Attendance[teacher]
	if !ok {
		marks = make(map[string]models.AttendanceStatus)
		s.state.Attendance[teacher] = marks
	}
	marks[student] = status
	return s.persistLocked(ctx)
}

// Attendance returns a copy of every mark recorded by the teacher.
func (s *OverlayStore) Attendance(teacher string) map[string]models.AttendanceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	marks := s.state.Attendance[models.NormalizeUsername(teacher)]
	out := make(map[string]models.AttendanceStatus, len(marks))
	for k, v := range marks {
		out[k] = v
	}
	return out
}

// AttendanceFor returns the recorded mark, or AttendanceUnrecorded when none exists.
func (s *OverlayStore) AttendanceFor(teacher, student string) models.AttendanceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.state.Attendance[models.NormalizeUsername(teacher)][models.NormalizeUsername(student)]; ok {
		return status
	}
	return models.AttendanceUnrecorded
}

// SaveEvaluation stores a student's evaluation of a teacher. A pair can only be evaluated once.
func (s *OverlayStore) SaveEvaluation(ctx context.Context, student, teacher string, answers []models.Answer) (*models.Evaluation, error) {
	student, teacher = models.NormalizeUsername(student), models.NormalizeUsername(teacher)
	if student == "" || teacher == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student and teacher are required")
	}
	if err := validateAnswers(answers); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	byTeacher, ok := s.state.Evaluations[student]
	if !ok {
		byTeacher = make(map[string]models.Evaluation)
		s.state.Evaluations[student] = byTeacher
	}
	if _, exists := byTeacher[teacher]; exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already evaluated by this student")
	}
	eval := models.Evaluation{
		ID:              s.newID(),
		StudentUsername: student,
		TeacherUsername: teacher,
		Answers:         append([]models.Answer(nil), answers...),
		SubmittedAt:     s.now().UTC(),
	}
	byTeacher[teacher] = eval
	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}
	return copyEvaluation(eval), nil
}

// HasEvaluated reports whether the student already evaluated the teacher.
func (s *OverlayStore) HasEvaluated(student, teacher string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.Evaluations[models.NormalizeUsername(student)][models.NormalizeUsername(teacher)]
	return ok
}

// TeacherEvaluations returns every evaluation received by the teacher, oldest first.
func (s *OverlayStore) TeacherEvaluations(teacher string) []models.Evaluation {
	teacher = models.NormalizeUsername(teacher)
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]models.Evaluation, 0)
	for _, byTeacher := range s.state.Evaluations {
		if eval, ok := byTeacher[teacher]; ok {
			result = append(result, *copyEvaluation(eval))
		}
	}
	sortEvaluations(result)
	return result
}

// AllEvaluations returns every stored evaluation, oldest first.
func (s *OverlayStore) AllEvaluations() []models.Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]models.Evaluation, 0)
	for _, byTeacher := range s.state.Evaluations {
		for _, eval := range byTeacher {
			result = append(result, *copyEvaluation(eval))
		}
	}
	sortEvaluations(result)
	return result
}

// EvaluationCount is the number of (student, teacher) pairs evaluated.
func (s *OverlayStore) EvaluationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countNested(s.state.Evaluations)
}

// SetOverride records a grade that supersedes the imported grade of (student, subject).
func (s *OverlayStore) SetOverride(ctx context.Context, student, subject string, grade float64) error {
	student, subject = models.NormalizeUsername(student), strings.TrimSpace(subject)
	if student == "" || subject == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student and subject are required")
	}
	if !models.ValidGrade(grade) {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("grade must be a number between %.0f and %.0f", models.MinGrade, models.MaxGrade))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	bySubject, ok := s.state.Overrides[student]
	if !ok {
		bySubject = make(map[string]float64)
		s.state.Overrides[student] = bySubject
	}
	bySubject[subject] = grade
	return s.persistLocked(ctx)
}

// Overrides returns a copy of the student's overrides keyed by subject.
func (s *OverlayStore) Overrides(student string) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.state.Overrides[models.NormalizeUsername(student)]
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// AllOverrides returns a deep copy of every override.
func (s *OverlayStore) AllOverrides() map[string]map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]map[string]float64, len(s.state.Overrides))
	for student, bySubject := range s.state.Overrides {
		cp := make(map[string]float64, len(bySubject))
		for k, v := range bySubject {
			cp[k] = v
		}
		out[student] = cp
	}
	return out
}

// ClearOverrides drops every grade override.
func (s *OverlayStore) ClearOverrides(ctx context.Context) error {
	return s.clear(ctx, func(st *models.OverlayState) { st.Overrides = nil })
}

// ClearEvaluations drops every evaluation.
func (s *OverlayStore) ClearEvaluations(ctx context.Context) error {
	return s.clear(ctx, func(st *models.OverlayState) { st.Evaluations = nil })
}

// ClearAttendance drops every attendance mark.
func (s *OverlayStore) ClearAttendance(ctx context.Context) error {
	return s.clear(ctx, func(st *models.OverlayState) { st.Attendance = nil })
}

// ClearAll resets overrides, evaluations and attendance. The source path is kept.
func (s *OverlayStore) ClearAll(ctx context.Context) error {
	return s.clear(ctx, func(st *models.OverlayState) {
		st.Overrides = nil
		st.Evaluations = nil
		st.Attendance = nil
	})
}

// SourcePath returns the path of the last successfully imported workbook.
func (s *OverlayStore) SourcePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SourcePath
}

// SetSourcePath records the workbook the current view was built from.
func (s *OverlayStore) SetSourcePath(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SourcePath = path
	return s.persistLocked(ctx)
}

func (s *OverlayStore) clear(ctx context.Context, reset func(*models.OverlayState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reset(s.state)
	s.state.Normalize()
	return s.persistLocked(ctx)
}

// persistLocked writes the whole state. The in-memory state stays authoritative on failure.
func (s *OverlayStore) persistLocked(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	s.state.UpdatedAt = s.now().UTC()
	payload, err := json.Marshal(s.state)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	start := time.Now()
	err = s.repo.Save(ctx, payload)
	s.metrics.ObserveOverlayPersist(time.Since(start), err)
	if err != nil {
		s.logger.Error("overlay snapshot write failed", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	return nil
}

func validateAnswers(answers []models.Answer) error {
	if len(answers) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one answer is required")
	}
	seen := make(map[int]struct{}, len(answers))
	for _, a := range answers {
		if a.QuestionID <= 0 {
			return appErrors.Clone(appErrors.ErrValidation, "question id must be positive")
		}
		if _, dup := seen[a.QuestionID]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d answered twice", a.QuestionID))
		}
		seen[a.QuestionID] = struct{}{}
		if math.IsNaN(a.Value) || math.IsInf(a.Value, 0) || a.Value < models.MinAnswerValue || a.Value > models.MaxAnswerValue {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("answer for question %d must be between %.0f and %.0f", a.QuestionID, models.MinAnswerValue, models.MaxAnswerValue))
		}
	}
	return nil
}

func copyEvaluation(e models.Evaluation) *models.Evaluation {
	e.Answers = append([]models.Answer(nil), e.Answers...)
	return &e
}

func sortEvaluations(evals []models.Evaluation) {
	sort.Slice(evals, func(i, j int) bool {
		if !evals[i].SubmittedAt.Equal(evals[j].SubmittedAt) {
			return evals[i].SubmittedAt.Before(evals[j].SubmittedAt)
		}
		if evals[i].StudentUsername != evals[j].StudentUsername {
			return evals[i].StudentUsername < evals[j].StudentUsername
		}
		return evals[i].TeacherUsername < evals[j].TeacherUsername
	})
}

func countNested[T any](m map[string]map[string]T) int {
	total := 0
	for _, inner := range m {
		total += len(inner)
	}
	return total
}
