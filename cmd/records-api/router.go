package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/journey-records-api/internal/handler"
	"github.com/noah-isme/journey-records-api/internal/middleware"
	"github.com/noah-isme/journey-records-api/internal/models"
	"github.com/noah-isme/journey-records-api/internal/service"
	"github.com/noah-isme/journey-records-api/pkg/config"
	"github.com/noah-isme/journey-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/journey-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/journey-records-api/pkg/middleware/requestid"
	"github.com/noah-isme/journey-records-api/pkg/storage"
)

type services struct {
	auth        *service.AuthService
	views       *service.ViewService
	aggregation *service.AggregationService
	records     *service.RecordsService
	reports     *service.ReportService
	metrics     *service.MetricsService
	uploads     *storage.LocalStorage
}

func newRouter(cfg *config.Config, logr *zap.Logger, svc services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = svc.metrics
		r.Use(middleware.Metrics(metrics, "/metrics"))
	}

	probes := handler.NewMetricsHandler(metrics, svc.views)
	r.GET("/health", probes.Health)
	r.GET("/ready", probes.Ready)
	if metrics != nil {
		r.GET("/metrics", probes.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(svc.auth)
	studentHandler := handler.NewStudentHandler(svc.views, svc.records)
	teacherHandler := handler.NewTeacherHandler(svc.views, svc.records)
	adminHandler := handler.NewAdminHandler(svc.aggregation, svc.views, svc.records, svc.uploads, cfg.Data.UploadMaxBytes)
	reportHandler := handler.NewReportHandler(svc.reports)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(svc.auth))
	secured.GET("/auth/me", authHandler.Me)

	student := secured.Group("/student", middleware.RequireRoles(models.RoleStudent))
	student.GET("/grades", studentHandler.Grades)
	student.GET("/evaluation-questions", studentHandler.EvaluationQuestions)
	student.POST("/evaluations", studentHandler.SubmitEvaluation)

	teacher := secured.Group("/teacher", middleware.RequireRoles(models.RoleTeacher))
	teacher.GET("/info", teacherHandler.Info)
	teacher.POST("/attendance", teacherHandler.Attendance)
	teacher.POST("/grades", teacherHandler.Grades)
	teacher.GET("/evaluations", teacherHandler.Evaluations)

	admin := secured.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/programs", adminHandler.Programs)
	admin.GET("/subjects", adminHandler.Subjects)
	admin.GET("/teachers/ranking", adminHandler.TeacherRanking)
	admin.GET("/teachers/:username", adminHandler.Teacher)
	admin.GET("/teachers/:username/evaluations", adminHandler.TeacherEvaluations)
	admin.GET("/students/:username", adminHandler.Student)
	admin.GET("/users", adminHandler.Users)
	admin.GET("/system", probes.System)
	admin.POST("/clear", adminHandler.Clear)
	admin.POST("/cache/clear", adminHandler.ClearCache)
	admin.POST("/upload", adminHandler.Upload)
	admin.POST("/reimport", adminHandler.Reimport)

	reports := secured.Group("/reports")
	reports.GET("/student", middleware.RequireRoles(models.RoleStudent), reportHandler.OwnStudentReport)
	reports.GET("/teacher", middleware.RequireRoles(models.RoleTeacher), reportHandler.TeacherReport)
	reports.GET("/students/:username", middleware.RequireRoles(models.RoleAdmin), reportHandler.StudentReport)
	reports.GET("/admin", middleware.RequireRoles(models.RoleAdmin), reportHandler.InstitutionReport)
	reports.GET("/programs.csv", middleware.RequireRoles(models.RoleAdmin), reportHandler.ProgramsCSV)

	return r
}
