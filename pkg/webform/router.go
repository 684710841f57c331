package webform

import (
	"github.com/gin-gonic/gin"
)

// Routes are consumed by the page renderer, not the provisioning API, so
// they carry no API key requirement.
func Routes(r *gin.RouterGroup, handler Handler) {
	r.GET("/form/:enketoId/parts", handler.GetFormParts)
	r.GET("/form/:enketoId/max-size", handler.GetMaxSize)
	r.GET("/instance/:instanceId", handler.GetInstance)
}
