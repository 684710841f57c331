package survey

import (
	"github.com/gin-gonic/gin"

	"github.com/odk-sre/webform-manager/internal/middleware"
)

func Routes(r *gin.RouterGroup, authenticationMiddleware middleware.AuthenticationMiddleware, handler Handler) {
	apiKeyRouter := r.Group("")
	apiKeyRouter.Use(authenticationMiddleware.APIKeyAuthentication)

	apiKeyRouter.POST("/survey", handler.Create)
	apiKeyRouter.DELETE("/survey", handler.Deactivate)
	apiKeyRouter.POST("/survey/submission", handler.AddSubmission)
	apiKeyRouter.GET("/surveys/number", handler.Number)
	apiKeyRouter.GET("/surveys/list", handler.List)
}
