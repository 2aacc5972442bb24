package api

import (
	"github.com/gin-gonic/gin"

	"github.com/example/ieltsprep/internal/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	ResultHandler   *ResultHandler
	ProgressHandler *ProgressHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Log))

	r.GET("/healthz", Health)

	api := r.Group("/api")
	api.Use(Identity())
	{
		if cfg.ResultHandler != nil {
			api.POST("/results", cfg.ResultHandler.Submit)
			api.GET("/results", cfg.ResultHandler.List)
			api.GET("/results/:id", cfg.ResultHandler.Get)
			api.PUT("/results/:id/grade", RequireRole(RoleTeacher, RoleAdmin), cfg.ResultHandler.Grade)
		}

		if cfg.ProgressHandler != nil {
			api.GET("/progress", cfg.ProgressHandler.Get)
			api.PUT("/progress/target", cfg.ProgressHandler.SetTarget)
			api.GET("/progress/me", cfg.ProgressHandler.Report)
		}
	}

	return r
}

// New wires the handlers around svc
func New(log *logger.Logger, svc Service) *gin.Engine {
	return NewRouter(RouterConfig{
		Log:             log,
		ResultHandler:   NewResultHandler(log, svc),
		ProgressHandler: NewProgressHandler(log, svc),
	})
}
