package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CSRF checks the double-submit token on every state-changing request.
// The test configuration disables it; production keeps it on.
func CSRF(mgr *SessionManager, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		_, data, ok := sessionFromContext(c)
		submitted := c.PostForm("csrf_token")
		if !ok || data.CSRF == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(data.CSRF)) != 1 {
			c.String(http.StatusForbidden, "Invalid CSRF token.")
			c.Abort()
			return
		}
		c.Next()
	}
}
