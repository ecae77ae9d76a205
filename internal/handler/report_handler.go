package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/journey-records-api/internal/service"
	"github.com/noah-isme/journey-records-api/pkg/response"
)

type reportRenderer interface {
	StudentReport(ctx context.Context, username string) (*service.ReportFile, error)
	TeacherReport(ctx context.Context, username string) (*service.ReportFile, error)
	InstitutionReport(ctx context.Context) (*service.ReportFile, error)
	ProgramsCSV(ctx context.Context) (*service.ReportFile, error)
}

// ReportHandler exposes downloadable reports.
type ReportHandler struct {
	reports reportRenderer
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportRenderer) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// OwnStudentReport godoc
// @Summary Own grade report
// @Tags Reports
// @Produce application/pdf
// @Success 200 {file} binary
// @Router /reports/student [get]
func (h *ReportHandler) OwnStudentReport(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	h.send(c, func(ctx context.Context) (*service.ReportFile, error) {
		return h.reports.StudentReport(ctx, claims.Username)
	})
}

// StudentReport godoc
// @Summary Grade report of any student
// @Tags Reports
// @Produce application/pdf
// @Param username path string true "Student username"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /reports/students/{username} [get]
func (h *ReportHandler) StudentReport(c *gin.Context) {
	username := c.Param("username")
	h.send(c, func(ctx context.Context) (*service.ReportFile, error) {
		return h.reports.StudentReport(ctx, username)
	})
}

// TeacherReport godoc
// @Summary Own roster and evaluation report
// @Tags Reports
// @Produce application/pdf
// @Success 200 {file} binary
// @Router /reports/teacher [get]
func (h *ReportHandler) TeacherReport(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	h.send(c, func(ctx context.Context) (*service.ReportFile, error) {
		return h.reports.TeacherReport(ctx, claims.Username)
	})
}

// InstitutionReport godoc
// @Summary Institution report
// @Tags Reports
// @Produce application/pdf
// @Success 200 {file} binary
// @Router /reports/admin [get]
func (h *ReportHandler) InstitutionReport(c *gin.Context) {
	h.send(c, h.reports.InstitutionReport)
}

// ProgramsCSV godoc
// @Summary Program statistics as CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {file} binary
// @Router /reports/programs.csv [get]
func (h *ReportHandler) ProgramsCSV(c *gin.Context) {
	h.send(c, h.reports.ProgramsCSV)
}

func (h *ReportHandler) send(c *gin.Context, render func(ctx context.Context) (*service.ReportFile, error)) {
	file, err := render(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
