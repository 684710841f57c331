package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/odk-sre/webform-manager/internal/errdef"
)

// ErrorHandler maps classified errors onto HTTP statuses. Upstream errors
// propagate the remote server's status verbatim; errors carrying a
// translation key expose it as structured data so the caller can localize.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil {
			return
		}
		if c.Writer.Written() {
			return
		}

		status := statusOf(err.Err)

		if key, params, ok := errdef.Translation(err.Err); ok {
			c.JSON(status, gin.H{
				"message":           err.Error(),
				"translationKey":    key,
				"translationParams": params,
			})
			return
		}

		if status == http.StatusInternalServerError {
			id := sloggin.GetRequestID(c)
			err := fmt.Errorf("something went wrong. We'll look into it if you send us the id %q", id)
			c.String(status, err.Error())
			return
		}
		c.String(status, err.Error())
	}
}

func statusOf(err error) int {
	switch {
	case errdef.IsBadRequest(err):
		return http.StatusBadRequest
	case errdef.IsUnauthorized(err):
		return http.StatusUnauthorized
	case errdef.IsForbidden(err):
		return http.StatusForbidden
	case errdef.IsNotFound(err):
		return http.StatusNotFound
	case errdef.IsConflict(err):
		return http.StatusConflict
	case errdef.IsNetwork(err):
		return http.StatusGatewayTimeout
	case errdef.IsUpstream(err):
		status, _ := errdef.UpstreamStatus(err)
		return status
	default:
		// malformed, transform and incomplete record errors are all on us
		return http.StatusInternalServerError
	}
}
