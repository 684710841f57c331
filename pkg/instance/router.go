package instance

import (
	"github.com/gin-gonic/gin"

	"github.com/odk-sre/webform-manager/internal/middleware"
)

func Routes(r *gin.RouterGroup, authenticationMiddleware middleware.AuthenticationMiddleware, handler Handler) {
	apiKeyRouter := r.Group("")
	apiKeyRouter.Use(authenticationMiddleware.APIKeyAuthentication)

	apiKeyRouter.POST("/instance", handler.Stage)
	apiKeyRouter.DELETE("/instance", handler.Discard)
}
