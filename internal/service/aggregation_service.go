package service

import (
	"context"
	"time"

	"github.com/noah-isme/journey-records-api/internal/models"
)

// AggregationService exposes the statistical read queries over the current view.
type AggregationService struct {
	views   *ViewService
	overlay *OverlayStore
	now     func() time.Time
}

// NewAggregationService constructs the service.
func NewAggregationService(views *ViewService, overlay *OverlayStore) *AggregationService {
	return &AggregationService{views: views, overlay: overlay, now: time.Now}
}

func (s *AggregationService) ProgramStats(ctx context.Context) ([]models.ProgramStats, error) {
	ds, err := s.views.Current(ctx)
	if err != nil {
		return nil, err
	}
	return ProgramStatistics(ds), nil
}

func (s *AggregationService) SubjectRankings(ctx context.Context) ([]models.SubjectAverage, error) {
	ds, err := s.views.Current(ctx)
	if err != nil {
		return nil, err
	}
	return SubjectRankings(ds), nil
}

func (s *AggregationService) TeacherRankings(ctx context.Context) ([]models.TeacherScore, error) {
	ds, err := s.views.Current(ctx)
	if err != nil {
		return nil, err
	}
	return TeacherRankings(ds, s.overlay.AllEvaluations()), nil
}

func (s *AggregationService) TeacherQuestionStats(ctx context.Context, teacher string) (*models.TeacherEvaluationReport, error) {
	ds, err := s.views.Current(ctx)
	if err != nil {
		return nil, err
	}
	return TeacherQuestionStats(ds, teacher, s.overlay.TeacherEvaluations(teacher))
}

func (s *AggregationService) InstitutionSummary(ctx context.Context) (*models.InstitutionSummary, error) {
	ds, err := s.views.Current(ctx)
	if err != nil {
		return nil, err
	}
	summary := InstitutionSummary(ds, s.overlay.AllEvaluations(), s.now())
	return &summary, nil
}
