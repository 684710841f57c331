package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

func NewAuthentication(apiKey string) AuthenticationMiddleware {
	return AuthenticationMiddleware{apiKey: apiKey}
}

type AuthenticationMiddleware struct {
	apiKey string
}

// APIKeyAuthentication guards the provisioning API. The key is presented as
// the Basic auth username with an empty password, the convention OpenRosa
// form server integrations expect.
func (m AuthenticationMiddleware) APIKeyAuthentication(c *gin.Context) {
	key, _, ok := c.Request.BasicAuth()
	if !ok || subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) != 1 {
		c.Header("WWW-Authenticate", `Basic realm="api"`)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Next()
}
