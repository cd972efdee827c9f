package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"warbler/internal/app"
	"warbler/internal/transport/http/middleware"
)

type AuthHandler struct {
	authService *app.AuthService
	sessions    *middleware.SessionManager
}

func NewAuthHandler(authService *app.AuthService, sessions *middleware.SessionManager) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions}
}

func (h *AuthHandler) ShowSignup(c *gin.Context) {
	render(c, h.sessions, http.StatusOK, "signup", gin.H{"Username": "", "Email": "", "ImageURL": ""})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	input := app.SignupInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
		ImageURL: c.PostForm("image_url"),
	}

	user, err := h.authService.Signup(input)
	if err != nil {
		form := gin.H{"Username": input.Username, "Email": input.Email, "ImageURL": input.ImageURL}
		switch {
		case errors.Is(err, app.ErrUsernameTaken):
			h.sessions.Flash(c, "Username already taken")
			render(c, h.sessions, http.StatusOK, "signup", form)
		case errors.Is(err, app.ErrEmailTaken):
			h.sessions.Flash(c, "E-mail already taken")
			render(c, h.sessions, http.StatusOK, "signup", form)
		case errors.Is(err, app.ErrInvalidInput):
			h.sessions.Flash(c, "Username, e-mail and password are all required.")
			render(c, h.sessions, http.StatusOK, "signup", form)
		default:
			logrus.WithError(err).Error("signup failed")
			c.String(http.StatusInternalServerError, "Something went wrong.")
		}
		return
	}

	if err := h.sessions.SignIn(c, user.ID); err != nil {
		logrus.WithError(err).Error("sign in after signup failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	render(c, h.sessions, http.StatusOK, "login", gin.H{"Username": ""})
}

func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := h.authService.Authenticate(username, password)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) {
			h.sessions.Flash(c, "Invalid credentials.")
			render(c, h.sessions, http.StatusOK, "login", gin.H{"Username": username})
			return
		}
		logrus.WithError(err).Error("login failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}

	if err := h.sessions.SignIn(c, user.ID); err != nil {
		logrus.WithError(err).Error("sign in failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	h.sessions.Flash(c, "Hello, "+user.Username+"!")
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.SignOut(c)
	h.sessions.Flash(c, "You have successfully logged out.")
	c.Redirect(http.StatusFound, "/login")
}
