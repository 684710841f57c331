package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/odk-sre/webform-manager/internal/errdef"
)

// RequirePathParameter returns the named path parameter or a bad request
// error if it is empty.
func RequirePathParameter(c *gin.Context, parameter string) (string, error) {
	value := c.Param(parameter)
	if value == "" {
		return "", errdef.NewBadRequest("path parameter %q required", parameter)
	}
	return value, nil
}
