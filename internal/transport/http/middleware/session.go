package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"warbler/internal/model"
	"warbler/internal/pkg/jwtutil"
	"warbler/internal/session"
)

const (
	contextUserKey    = "current_user"
	contextSessionKey = "session_data"
	contextSIDKey     = "session_id"
)

// SessionManager ties the signed session cookie to the server-side
// session store and exposes the operations handlers need: sign-in,
// sign-out, flash messages, and the CSRF token.
type SessionManager struct {
	store      *session.Store
	secret     string
	cookieName string
	ttl        time.Duration
	secure     bool
}

func NewSessionManager(store *session.Store, secret, cookieName string, ttl time.Duration, secure bool) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{
		store:      store,
		secret:     secret,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}
}

// Load resolves the request cookie into session state and caches both in
// the gin context. Installed once at the top of the chain.
func (m *SessionManager) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(m.cookieName)
		if err == nil && cookie != "" {
			if sid, parseErr := jwtutil.ParseSessionToken(m.secret, cookie); parseErr == nil {
				data, ok, getErr := m.store.Get(c.Request.Context(), sid)
				if getErr != nil {
					logrus.WithError(getErr).Warn("load session failed")
				} else if ok {
					c.Set(contextSIDKey, sid)
					c.Set(contextSessionKey, data)
				}
			}
		}
		c.Next()
	}
}

// Current returns the session for this request, creating an anonymous
// one (and setting the cookie) when none exists yet.
func (m *SessionManager) Current(c *gin.Context) (string, *session.Data, error) {
	if sid, data, ok := sessionFromContext(c); ok {
		return sid, data, nil
	}

	data := &session.Data{CSRF: newCSRFToken()}
	sid, err := m.store.Create(c.Request.Context(), data)
	if err != nil {
		return "", nil, err
	}

	if err := m.setCookie(c, sid); err != nil {
		return "", nil, err
	}
	c.Set(contextSIDKey, sid)
	c.Set(contextSessionKey, data)
	return sid, data, nil
}

// SignIn rotates the session id and binds it to the user.
func (m *SessionManager) SignIn(c *gin.Context, userID uint) error {
	ctx := c.Request.Context()

	var flashes []string
	if sid, data, ok := sessionFromContext(c); ok {
		flashes = data.Flashes
		if err := m.store.Delete(ctx, sid); err != nil {
			logrus.WithError(err).Warn("delete old session failed")
		}
	}

	data := &session.Data{UserID: userID, Flashes: flashes, CSRF: newCSRFToken()}
	sid, err := m.store.Create(ctx, data)
	if err != nil {
		return err
	}
	if err := m.setCookie(c, sid); err != nil {
		return err
	}
	c.Set(contextSIDKey, sid)
	c.Set(contextSessionKey, data)
	return nil
}

// SignOut drops the server-side session and expires the cookie.
func (m *SessionManager) SignOut(c *gin.Context) {
	if sid, _, ok := sessionFromContext(c); ok {
		if err := m.store.Delete(c.Request.Context(), sid); err != nil {
			logrus.WithError(err).Warn("delete session failed")
		}
	}
	c.Set(contextSIDKey, nil)
	c.Set(contextSessionKey, nil)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
	})
}

// Flash queues a one-shot message shown on the next rendered page.
func (m *SessionManager) Flash(c *gin.Context, message string) {
	sid, data, err := m.Current(c)
	if err != nil {
		logrus.WithError(err).Warn("create session for flash failed")
		return
	}
	data.Flashes = append(data.Flashes, message)
	if err := m.store.Save(c.Request.Context(), sid, data); err != nil {
		logrus.WithError(err).Warn("save flash failed")
	}
}

// PopFlashes drains pending flash messages.
func (m *SessionManager) PopFlashes(c *gin.Context) []string {
	sid, data, ok := sessionFromContext(c)
	if !ok || len(data.Flashes) == 0 {
		return nil
	}
	flashes := data.Flashes
	data.Flashes = nil
	if err := m.store.Save(c.Request.Context(), sid, data); err != nil {
		logrus.WithError(err).Warn("save session failed")
	}
	return flashes
}

// CSRFToken returns the token bound to this request's session, creating
// the session on demand so forms on anonymous pages carry one too.
func (m *SessionManager) CSRFToken(c *gin.Context) string {
	sid, data, err := m.Current(c)
	if err != nil {
		logrus.WithError(err).Warn("create session for csrf failed")
		return ""
	}
	if data.CSRF == "" {
		data.CSRF = newCSRFToken()
		if err := m.store.Save(c.Request.Context(), sid, data); err != nil {
			logrus.WithError(err).Warn("save csrf token failed")
		}
	}
	return data.CSRF
}

func (m *SessionManager) setCookie(c *gin.Context, sid string) error {
	token, err := jwtutil.GenerateSessionToken(m.secret, m.ttl, sid)
	if err != nil {
		return err
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func sessionFromContext(c *gin.Context) (string, *session.Data, bool) {
	sidAny, exists := c.Get(contextSIDKey)
	if !exists {
		return "", nil, false
	}
	sid, ok := sidAny.(string)
	if !ok || sid == "" {
		return "", nil, false
	}
	dataAny, exists := c.Get(contextSessionKey)
	if !exists {
		return "", nil, false
	}
	data, ok := dataAny.(*session.Data)
	if !ok || data == nil {
		return "", nil, false
	}
	return sid, data, true
}

// UserFromContext returns the authenticated user placed by CurrentUser,
// or nil for anonymous requests.
func UserFromContext(c *gin.Context) *model.User {
	userAny, exists := c.Get(contextUserKey)
	if !exists {
		return nil
	}
	user, ok := userAny.(*model.User)
	if !ok {
		return nil
	}
	return user
}

func newCSRFToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
