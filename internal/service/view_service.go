package service

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/journey-records-api/internal/dto"
	"github.com/noah-isme/journey-records-api/internal/models"
	appErrors "github.com/noah-isme/journey-records-api/pkg/errors"
)

type datasetImporter interface {
	Parse(path string) (*models.Dataset, error)
	Load(path string) *models.Dataset
}

// ViewService owns the cached imported dataset and merges the overlay into it on every read.
type ViewService struct {
	importer    datasetImporter
	overlay     *OverlayStore
	metrics     *MetricsService
	logger      *zap.Logger
	defaultPath string

	mu   sync.RWMutex
	base *models.Dataset
}

// NewViewService constructs the merger. defaultPath is used until a reimport records another source.
func NewViewService(importer datasetImporter, overlay *OverlayStore, defaultPath string, metrics *MetricsService, logger *zap.Logger) *ViewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewService{
		importer:    importer,
		overlay:     overlay,
		metrics:     metrics,
		logger:      logger,
		defaultPath: defaultPath,
	}
}

// Current returns a private copy of the merged dataset, building the cache on first use.
func (s *ViewService) Current(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	if s.base != nil {
		defer s.mu.RUnlock()
		return s.merge(s.base), nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merge(s.rebuildLocked()), nil
}

// ClearCache forces the next read to re-import the current source.
func (s *ViewService) ClearCache() {
	s.mu.Lock()
	s.base = nil
	s.mu.Unlock()
	s.logger.Info("records view cache cleared")
}

// Reimport parses path and, on success, swaps it in as the new base dataset.
// On failure the previous cache is left untouched and the result reports the error.
func (s *ViewService) Reimport(ctx context.Context, path string, resetOverlay bool) (*dto.ReimportResult, error) {
	ds, err := s.importer.Parse(path)
	if err != nil {
		s.metrics.RecordReimport(false)
		s.logger.Warn("reimport failed, keeping current dataset", zap.String("path", path), zap.Error(err))
		return &dto.ReimportResult{
			Success: false,
			Message: appErrors.ErrImportFailed.Message + ": " + err.Error(),
			Source:  path,
		}, nil
	}

	// Readers merge under the same lock, so the reset and the new base publish together.
	s.mu.Lock()
	var persistErr error
	if resetOverlay {
		persistErr = s.overlay.ClearAll(ctx)
	}
	if err := s.overlay.SetSourcePath(ctx, path); err != nil && persistErr == nil {
		persistErr = err
	}
	s.base = ds
	s.mu.Unlock()
	s.metrics.RecordReimport(true)
	s.metrics.RecordDatasetRebuild(false)

	result := &dto.ReimportResult{
		Success:      true,
		Message:      "dataset imported",
		Source:       path,
		Students:     len(ds.Students),
		Teachers:     len(ds.Teachers),
		Programs:     len(ds.Programs),
		Questions:    len(ds.Questions),
		OverlayReset: resetOverlay,
		ImportedAt:   ds.ImportedAt,
	}
	return result, persistErr
}

// StudentView returns the merged grade sheet of one student.
func (s *ViewService) StudentView(ctx context.Context, username string) (*dto.StudentView, error) {
	ds, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	student, ok := ds.Students[models.NormalizeUsername(username)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	graded := 0
	for _, e := range student.Enrollments {
		if e.Graded() {
			graded++
		}
	}
	return &dto.StudentView{
		Username:    student.Username,
		Name:        student.Name,
		Program:     student.Program,
		Enrollments: student.Enrollments,
		Average:     StudentAverage(student.Enrollments),
		GradedCount: graded,
	}, nil
}

// TeacherView returns the teacher's roster with attendance marks and the grades they own.
func (s *ViewService) TeacherView(ctx context.Context, username string) (*dto.TeacherView, error) {
	ds, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	username = models.NormalizeUsername(username)
	teacher, ok := ds.Teachers[username]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	marks := s.overlay.Attendance(username)
	roster := make([]dto.RosterStatus, 0, len(teacher.Students))
	for _, entry := range teacher.Students {
		status, ok := marks[entry.Username]
		if !ok {
			status = models.AttendanceUnrecorded
		}
		subjects := make([]dto.SubjectGrade, 0)
		if student, ok := ds.Students[entry.Username]; ok {
			for _, e := range student.Enrollments {
				if e.TeacherUsername == username {
					subjects = append(subjects, dto.SubjectGrade{Subject: e.Subject, Grade: e.Grade, Overridden: e.Overridden})
				}
			}
		}
		roster = append(roster, dto.RosterStatus{
			Username:   entry.Username,
			Name:       entry.Name,
			Program:    entry.Program,
			Attendance: status,
			Subjects:   subjects,
		})
	}
	return &dto.TeacherView{
		Username: teacher.Username,
		Name:     teacher.Name,
		Programs: teacher.Programs,
		Students: roster,
	}, nil
}

// EvaluationTargets lists the student's distinct teachers with an evaluated flag.
func (s *ViewService) EvaluationTargets(ctx context.Context, username string) (*dto.EvaluationTargets, error) {
	ds, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	username = models.NormalizeUsername(username)
	student, ok := ds.Students[username]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	targets := make([]dto.EvaluationTarget, 0)
	for _, teacherUsername := range student.TeacherUsernames() {
		target := dto.EvaluationTarget{
			Username:  teacherUsername,
			Evaluated: s.overlay.HasEvaluated(username, teacherUsername),
		}
		for _, e := range student.Enrollments {
			if e.TeacherUsername != teacherUsername {
				continue
			}
			if target.Name == "" {
				target.Name = e.TeacherName
			}
			target.Subjects = append(target.Subjects, e.Subject)
		}
		if teacher, ok := ds.Teachers[teacherUsername]; ok && teacher.Name != "" {
			target.Name = teacher.Name
		}
		targets = append(targets, target)
	}
	return &dto.EvaluationTargets{Questions: ds.Questions, Teachers: targets}, nil
}

// Directory lists every user, ordered by role then username.
func (s *ViewService) Directory(ctx context.Context) ([]dto.DirectoryEntry, error) {
	ds, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]dto.DirectoryEntry, 0, len(ds.Users))
	for _, u := range ds.Users {
		entries = append(entries, dto.DirectoryEntry{
			Username: u.Username,
			Name:     u.Name,
			Role:     u.Role,
			Program:  u.Program,
			Programs: u.Programs,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Role != entries[j].Role {
			return entries[i].Role < entries[j].Role
		}
		return entries[i].Username < entries[j].Username
	})
	return entries, nil
}

// User looks up an account in the current view.
func (s *ViewService) User(ctx context.Context, username string) (*models.User, error) {
	ds, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	user, ok := ds.Users[models.NormalizeUsername(username)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return user, nil
}

// rebuildLocked loads the base dataset when absent. Callers hold the write lock.
func (s *ViewService) rebuildLocked() *models.Dataset {
	if s.base != nil {
		return s.base
	}
	path := s.overlay.SourcePath()
	if path == "" {
		path = s.defaultPath
	}
	s.base = s.importer.Load(path)
	s.metrics.RecordDatasetRebuild(s.base.Fallback)
	s.logger.Info("records view rebuilt", zap.String("path", path), zap.Bool("fallback", s.base.Fallback))
	return s.base
}

// merge applies overrides to a copy of base. base itself is never modified.
func (s *ViewService) merge(base *models.Dataset) *models.Dataset {
	ds := base.Clone()
	overrides := s.overlay.AllOverrides()
	for username, student := range ds.Students {
		bySubject := overrides[username]
		for i := range student.Enrollments {
			e := &student.Enrollments[i]
			if grade, ok := bySubject[e.Subject]; ok {
				g := grade
				e.Grade = &g
				e.Overridden = true
				continue
			}
			e.Grade = copyGrade(e.OriginalGrade)
			e.Overridden = false
		}
	}
	return ds
}

func copyGrade(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
