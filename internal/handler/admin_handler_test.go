package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/journey-records-api/internal/dto"
	"github.com/noah-isme/journey-records-api/internal/models"
	appErrors "github.com/noah-isme/journey-records-api/pkg/errors"
	"github.com/noah-isme/journey-records-api/pkg/storage"
)

type fakeStatistics struct {
	summary  *models.InstitutionSummary
	programs []models.ProgramStats
	subjects []models.SubjectAverage
	teachers []models.TeacherScore
	report   *models.TeacherEvaluationReport
	err      error
}

func (f *fakeStatistics) ProgramStats(context.Context) ([]models.ProgramStats, error) {
	return f.programs, f.err
}

func (f *fakeStatistics) SubjectRankings(context.Context) ([]models.SubjectAverage, error) {
	return f.subjects, f.err
}

func (f *fakeStatistics) TeacherRankings(context.Context) ([]models.TeacherScore, error) {
	return f.teachers, f.err
}

func (f *fakeStatistics) TeacherQuestionStats(_ context.Context, teacher string) (*models.TeacherEvaluationReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func (f *fakeStatistics) InstitutionSummary(context.Context) (*models.InstitutionSummary, error) {
	return f.summary, f.err
}

type fakeAdminViews struct {
	cacheCleared bool
	reimportPath string
	reset        bool
	result       *dto.ReimportResult
	directory    []dto.DirectoryEntry
	err          error
}

func (f *fakeAdminViews) StudentView(_ context.Context, username string) (*dto.StudentView, error) {
	return &dto.StudentView{Username: username}, f.err
}

func (f *fakeAdminViews) TeacherView(_ context.Context, username string) (*dto.TeacherView, error) {
	return &dto.TeacherView{Username: username}, f.err
}

func (f *fakeAdminViews) Directory(context.Context) ([]dto.DirectoryEntry, error) {
	return f.directory, f.err
}

func (f *fakeAdminViews) ClearCache() {
	f.cacheCleared = true
}

func (f *fakeAdminViews) Reimport(_ context.Context, path string, reset bool) (*dto.ReimportResult, error) {
	f.reimportPath = path
	f.reset = reset
	return f.result, f.err
}

type fakeClearer struct {
	scope string
	err   error
}

func (f *fakeClearer) Clear(_ context.Context, req dto.ClearRequest) error {
	f.scope = req.Scope
	return f.err
}

func newTestAdminHandler(t *testing.T, stats *fakeStatistics, views *fakeAdminViews, clearer *fakeClearer) (*AdminHandler, string) {
	t.Helper()
	dir := t.TempDir()
	uploads, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	return NewAdminHandler(stats, views, clearer, uploads, 1024), dir
}

func TestAdminHandlerStats(t *testing.T) {
	rate := 67
	stats := &fakeStatistics{summary: &models.InstitutionSummary{TotalStudents: 12, PassRate: &rate}}
	handler, _ := newTestAdminHandler(t, stats, &fakeAdminViews{}, &fakeClearer{})

	c, w := newGinContext(http.MethodGet, "/admin/stats", nil)
	handler.Stats(c)

	require.Equal(t, http.StatusOK, w.Code)
	var summary models.InstitutionSummary
	decodeEnvelope(t, w, &summary)
	assert.Equal(t, 12, summary.TotalStudents)
	assert.Equal(t, 67, *summary.PassRate)
}

func TestAdminHandlerRankingsIncludeTotals(t *testing.T) {
	stats := &fakeStatistics{
		subjects: []models.SubjectAverage{{Subject: "Costos", Average: 4.5, GradedCount: 2}},
		teachers: []models.TeacherScore{{Username: "doc01", Average: 4}, {Username: "doc02", Average: 3}},
	}
	handler, _ := newTestAdminHandler(t, stats, &fakeAdminViews{}, &fakeClearer{})

	c, w := newGinContext(http.MethodGet, "/admin/subjects", nil)
	handler.Subjects(c)
	envelope := decodeEnvelope(t, w, nil)
	assert.Equal(t, float64(1), envelope.Meta["total"])

	c, w = newGinContext(http.MethodGet, "/admin/teachers/ranking", nil)
	handler.TeacherRanking(c)
	var ranking []models.TeacherScore
	envelope = decodeEnvelope(t, w, &ranking)
	assert.Equal(t, float64(2), envelope.Meta["total"])
	assert.Equal(t, "doc01", ranking[0].Username)
}

func TestAdminHandlerTeacherEvaluationsNotFound(t *testing.T) {
	stats := &fakeStatistics{err: appErrors.Clone(appErrors.ErrNotFound, "teacher not found")}
	handler, _ := newTestAdminHandler(t, stats, &fakeAdminViews{}, &fakeClearer{})

	c, w := newGinContext(http.MethodGet, "/admin/teachers/doc99/evaluations", nil)
	c.AddParam("username", "doc99")
	handler.TeacherEvaluations(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandlerStudentUsesPathParam(t *testing.T) {
	handler, _ := newTestAdminHandler(t, &fakeStatistics{}, &fakeAdminViews{}, &fakeClearer{})

	c, w := newGinContext(http.MethodGet, "/admin/students/est03", nil)
	c.AddParam("username", "est03")
	handler.Student(c)

	require.Equal(t, http.StatusOK, w.Code)
	var view dto.StudentView
	decodeEnvelope(t, w, &view)
	assert.Equal(t, "est03", view.Username)
}

func TestAdminHandlerClear(t *testing.T) {
	clearer := &fakeClearer{}
	handler, _ := newTestAdminHandler(t, &fakeStatistics{}, &fakeAdminViews{}, clearer)

	c, w := newGinContext(http.MethodPost, "/admin/clear", []byte(`{"scope":"evaluations"}`))
	handler.Clear(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ClearScopeEvaluations, clearer.scope)

	clearer.err = appErrors.Clone(appErrors.ErrValidation, "invalid clear scope")
	c, w = newGinContext(http.MethodPost, "/admin/clear", []byte(`{"scope":"grades"}`))
	handler.Clear(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandlerClearCache(t *testing.T) {
	views := &fakeAdminViews{}
	handler, _ := newTestAdminHandler(t, &fakeStatistics{}, views, &fakeClearer{})

	c, w := newGinContext(http.MethodPost, "/admin/cache/clear", nil)
	handler.ClearCache(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, views.cacheCleared)
}

func TestAdminHandlerReimport(t *testing.T) {
	views := &fakeAdminViews{result: &dto.ReimportResult{Success: true, Students: 12}}
	handler, _ := newTestAdminHandler(t, &fakeStatistics{}, views, &fakeClearer{})

	c, w := newGinContext(http.MethodPost, "/admin/reimport", []byte(`{"path":"/data/new.xlsx","reset_overlay":true}`))
	handler.Reimport(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/data/new.xlsx", views.reimportPath)
	assert.True(t, views.reset)
}

func TestAdminHandlerReimportFailureKeepsResultPayload(t *testing.T) {
	views := &fakeAdminViews{result: &dto.ReimportResult{Success: false, Message: "dataset import failed: no such file"}}
	handler, _ := newTestAdminHandler(t, &fakeStatistics{}, views, &fakeClearer{})

	c, w := newGinContext(http.MethodPost, "/admin/reimport", []byte(`{"path":"/missing.xlsx"}`))
	handler.Reimport(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var result dto.ReimportResult
	decodeEnvelope(t, w, &result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "no such file")

	c, w = newGinContext(http.MethodPost, "/admin/reimport", []byte(`{}`))
	handler.Reimport(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestAdminHandlerUploadStoresAndReimports(t *testing.T) {
	views := &fakeAdminViews{result: &dto.ReimportResult{Success: true}}
	handler, dir := newTestAdminHandler(t, &fakeStatistics{}, views, &fakeClearer{})

	body, contentType := multipartBody(t, "notas.xlsx", []byte("workbook"))
	c, w := newGinContext(http.MethodPost, "/admin/upload", body.Bytes())
	c.Request.Header.Set("Content-Type", contentType)
	handler.Upload(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, views.reset)
	assert.Equal(t, dir, filepath.Dir(views.reimportPath))
	assert.Equal(t, ".xlsx", filepath.Ext(views.reimportPath))
	stored, err := os.ReadFile(views.reimportPath)
	require.NoError(t, err)
	assert.Equal(t, "workbook", string(stored))
}

func TestAdminHandlerUploadRemovesWorkbookOnFailedImport(t *testing.T) {
	views := &fakeAdminViews{result: &dto.ReimportResult{Success: false, Message: "dataset import failed: malformed header"}}
	handler, dir := newTestAdminHandler(t, &fakeStatistics{}, views, &fakeClearer{})

	body, contentType := multipartBody(t, "notas.xlsx", []byte("not a workbook"))
	c, w := newGinContext(http.MethodPost, "/admin/upload", body.Bytes())
	c.Request.Header.Set("Content-Type", contentType)
	handler.Upload(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotEmpty(t, views.reimportPath)
	_, err := os.Stat(views.reimportPath)
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAdminHandlerUploadRejectsBadFiles(t *testing.T) {
	views := &fakeAdminViews{}
	handler, _ := newTestAdminHandler(t, &fakeStatistics{}, views, &fakeClearer{})

	c, w := newGinContext(http.MethodPost, "/admin/upload", nil)
	handler.Upload(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, contentType := multipartBody(t, "notas.csv", []byte("a,b"))
	c, w = newGinContext(http.MethodPost, "/admin/upload", body.Bytes())
	c.Request.Header.Set("Content-Type", contentType)
	handler.Upload(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, contentType = multipartBody(t, "notas.xlsx", bytes.Repeat([]byte("x"), 2048))
	c, w = newGinContext(http.MethodPost, "/admin/upload", body.Bytes())
	c.Request.Header.Set("Content-Type", contentType)
	handler.Upload(c)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	assert.Empty(t, views.reimportPath)
}
