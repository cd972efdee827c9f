package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"warbler/internal/model"
)

// UserLoader resolves the session's user id to a full user record.
type UserLoader interface {
	GetByID(id uint) (*model.User, error)
}

// CurrentUser places the authenticated user in the request context. A
// stale session pointing at a deleted user stays anonymous.
func CurrentUser(loader UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, data, ok := sessionFromContext(c); ok && data.UserID != 0 {
			user, err := loader.GetByID(data.UserID)
			if err != nil {
				logrus.WithError(err).Warn("load current user failed")
			} else if user != nil {
				c.Set(contextUserKey, user)
			}
		}
		c.Next()
	}
}

// RequireLogin is the authorization guard on state-changing and
// privacy-sensitive routes: anonymous requests get the unified
// unauthorized outcome, a flash plus a redirect home.
func RequireLogin(mgr *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserFromContext(c) == nil {
			mgr.Flash(c, "Access unauthorized.")
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
