package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Freeeeeet/dershane_desk/internal/middleware"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type metricsProvider interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
	Handler() http.Handler
}

type authenticator interface {
	Authenticate(ctx context.Context, username, password string, role model.Role) (*model.User, error)
}

// RouterDeps обработчики и зависимости HTTP слоя
type RouterDeps struct {
	Appointments *AppointmentHandler
	Availability *AvailabilityHandler
	Students     *StudentHandler
	Backups      *BackupHandler
	Users        *UserHandler
	Health       *HealthHandler
	Auth         authenticator
	Metrics      metricsProvider
	Logger       *zap.Logger
}

// NewRouter собирает gin движок с маршрутами /api, /health и /metrics
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())
	if deps.Logger != nil {
		r.Use(middleware.Logger(deps.Logger))
	}
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	r.GET("/health", deps.Health.Health)

	api := r.Group("/api")
	if deps.Auth != nil {
		api.Use(middleware.BasicAuth(deps.Auth))
	}

	api.POST("/appointments", deps.Appointments.Propose)
	api.GET("/appointments", deps.Appointments.List)
	api.DELETE("/appointments/:id", deps.Appointments.Delete)

	api.POST("/teachers/:id/availability", deps.Availability.Add)
	api.GET("/teachers/:id/availability", deps.Availability.List)
	api.DELETE("/availability/:id", deps.Availability.Delete)

	api.POST("/students", deps.Students.Create)
	api.GET("/students", deps.Students.List)
	api.GET("/students/:id", deps.Students.Get)
	api.PATCH("/students/:id", deps.Students.Update)
	api.DELETE("/students/:id", deps.Students.Delete)
	api.POST("/students/:id/attendance", deps.Students.RecordAttendance)
	api.GET("/students/:id/attendance", deps.Students.ListAttendance)
	api.POST("/students/:id/exams", deps.Students.AddExam)
	api.GET("/students/:id/exams", deps.Students.ListExams)
	api.GET("/students/:id/report", deps.Students.Report)

	api.POST("/users/password", deps.Users.ChangePassword)

	admin := api.Group("")
	if deps.Auth != nil {
		admin.Use(middleware.RequireRole(model.RoleAdmin))
	}
	admin.POST("/backups", deps.Backups.Create)
	admin.GET("/backups", deps.Backups.List)
	admin.POST("/users", deps.Users.Create)
	admin.GET("/users", deps.Users.List)
	admin.DELETE("/users/:id", deps.Users.Delete)
	admin.PUT("/settings/telegram-token", deps.Users.SetTelegramToken)

	return r
}
