package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/journey-records-api/internal/models"
	"github.com/noah-isme/journey-records-api/internal/service"
	appErrors "github.com/noah-isme/journey-records-api/pkg/errors"
)

type fakeReports struct {
	username string
	err      error
}

func (f *fakeReports) StudentReport(_ context.Context, username string) (*service.ReportFile, error) {
	f.username = username
	if f.err != nil {
		return nil, f.err
	}
	return &service.ReportFile{Filename: "calificaciones_" + username + ".pdf", ContentType: "application/pdf", Payload: []byte("%PDF-1.3")}, nil
}

func (f *fakeReports) TeacherReport(_ context.Context, username string) (*service.ReportFile, error) {
	f.username = username
	return &service.ReportFile{Filename: "docente_" + username + ".pdf", ContentType: "application/pdf", Payload: []byte("%PDF-1.3")}, f.err
}

func (f *fakeReports) InstitutionReport(context.Context) (*service.ReportFile, error) {
	return &service.ReportFile{Filename: "reporte_institucional.pdf", ContentType: "application/pdf", Payload: []byte("%PDF-1.3")}, f.err
}

func (f *fakeReports) ProgramsCSV(context.Context) (*service.ReportFile, error) {
	return &service.ReportFile{Filename: "programas.csv", ContentType: "text/csv", Payload: []byte("Programa\n")}, f.err
}

func TestReportHandlerOwnStudentReport(t *testing.T) {
	reports := &fakeReports{}
	handler := NewReportHandler(reports)

	c, w := newGinContext(http.MethodGet, "/reports/student", nil)
	withClaims(c, "est01", models.RoleStudent)
	handler.OwnStudentReport(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "est01", reports.username)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="calificaciones_est01.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3", w.Body.String())
}

func TestReportHandlerStudentReportNotFound(t *testing.T) {
	handler := NewReportHandler(&fakeReports{err: appErrors.Clone(appErrors.ErrNotFound, "student not found")})

	c, w := newGinContext(http.MethodGet, "/reports/students/ghost", nil)
	c.AddParam("username", "ghost")
	handler.StudentReport(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerRequiresClaimsForOwnReports(t *testing.T) {
	handler := NewReportHandler(&fakeReports{})

	c, w := newGinContext(http.MethodGet, "/reports/teacher", nil)
	handler.TeacherReport(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandlerProgramsCSV(t *testing.T) {
	handler := NewReportHandler(&fakeReports{})

	c, w := newGinContext(http.MethodGet, "/reports/programs.csv", nil)
	handler.ProgramsCSV(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "Programa\n", w.Body.String())
}
