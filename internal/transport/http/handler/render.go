package handler

import (
	"github.com/gin-gonic/gin"

	"warbler/internal/transport/http/middleware"
)

// render wraps gin's HTML response with the ambient page state every
// template expects: the current user, pending flashes, and the CSRF
// token for forms.
func render(c *gin.Context, sessions *middleware.SessionManager, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["CurrentUser"] = middleware.UserFromContext(c)
	data["Flashes"] = sessions.PopFlashes(c)
	data["CSRFToken"] = sessions.CSRFToken(c)
	c.HTML(status, name, data)
}
