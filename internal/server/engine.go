package server

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/odk-sre/webform-manager/internal/middleware"
	"github.com/odk-sre/webform-manager/pkg/health"
	"github.com/odk-sre/webform-manager/pkg/instance"
	"github.com/odk-sre/webform-manager/pkg/survey"
	"github.com/odk-sre/webform-manager/pkg/webform"
)

func GetEngine(logger *slog.Logger, basePath string, surveyHandler survey.Handler, instanceHandler instance.Handler, webformHandler webform.Handler, authMiddleware middleware.AuthenticationMiddleware) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.CorrelationID())
	r.Use(sloggin.NewWithConfig(logger, sloggin.Config{
		WithRequestID: true,
	}))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowCredentials = false
	corsConfig.AddAllowHeaders("authorization")
	r.Use(cors.New(corsConfig))

	r.Use(middleware.ErrorHandler())

	router := r.Group(basePath)

	router.GET("/health", health.Health)

	api := router.Group("/api/v1")
	survey.Routes(api, authMiddleware, surveyHandler)
	instance.Routes(api, authMiddleware, instanceHandler)
	webform.Routes(api, webformHandler)

	return r
}
