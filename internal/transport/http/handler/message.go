package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"warbler/internal/app"
	"warbler/internal/transport/http/middleware"
)

const timelineLimit = 100

type MessageHandler struct {
	messageService *app.MessageService
	sessions       *middleware.SessionManager
}

func NewMessageHandler(messageService *app.MessageService, sessions *middleware.SessionManager) *MessageHandler {
	return &MessageHandler{messageService: messageService, sessions: sessions}
}

// Home shows the follow-graph timeline to signed-in users and the
// recent public feed to everyone else.
func (h *MessageHandler) Home(c *gin.Context) {
	if current := middleware.UserFromContext(c); current != nil {
		messages, err := h.messageService.Timeline(current.ID, timelineLimit)
		if err != nil {
			logrus.WithError(err).Error("load timeline failed")
			c.String(http.StatusInternalServerError, "Something went wrong.")
			return
		}
		render(c, h.sessions, http.StatusOK, "home", gin.H{"Messages": messages})
		return
	}

	messages, err := h.messageService.Recent(timelineLimit)
	if err != nil {
		logrus.WithError(err).Error("load recent messages failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	render(c, h.sessions, http.StatusOK, "home_anon", gin.H{"Messages": messages})
}

func (h *MessageHandler) NewForm(c *gin.Context) {
	render(c, h.sessions, http.StatusOK, "message_new", gin.H{"Text": ""})
}

// Create posts a new message for the current user.
func (h *MessageHandler) Create(c *gin.Context) {
	current := middleware.UserFromContext(c)
	text := c.PostForm("text")

	if _, err := h.messageService.Post(current.ID, text); err != nil {
		switch {
		case errors.Is(err, app.ErrMessageEmpty):
			h.sessions.Flash(c, "Message text is required.")
			render(c, h.sessions, http.StatusOK, "message_new", gin.H{"Text": text})
		case errors.Is(err, app.ErrMessageTooLong):
			h.sessions.Flash(c, "Message must be 140 characters or fewer.")
			render(c, h.sessions, http.StatusOK, "message_new", gin.H{"Text": text})
		default:
			logrus.WithError(err).Error("post message failed")
			c.String(http.StatusInternalServerError, "Something went wrong.")
		}
		return
	}
	c.Redirect(http.StatusFound, "/users/"+strconv.FormatUint(uint64(current.ID), 10))
}

// Show renders a single message.
func (h *MessageHandler) Show(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusNotFound, "Message not found.")
		return
	}
	message, err := h.messageService.Get(uint(id))
	if err != nil {
		if errors.Is(err, app.ErrMessageNotFound) {
			c.String(http.StatusNotFound, "Message not found.")
		} else {
			logrus.WithError(err).Error("load message failed")
			c.String(http.StatusInternalServerError, "Something went wrong.")
		}
		return
	}
	render(c, h.sessions, http.StatusOK, "message_show", gin.H{"Message": message})
}

// Delete removes a message owned by the current user.
func (h *MessageHandler) Delete(c *gin.Context) {
	current := middleware.UserFromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusNotFound, "Message not found.")
		return
	}
	if err := h.messageService.Delete(current.ID, uint(id)); err != nil {
		switch {
		case errors.Is(err, app.ErrMessageNotFound):
			c.String(http.StatusNotFound, "Message not found.")
		case errors.Is(err, app.ErrNotOwner):
			h.sessions.Flash(c, "Access unauthorized.")
			c.Redirect(http.StatusFound, "/")
		default:
			logrus.WithError(err).Error("delete message failed")
			c.String(http.StatusInternalServerError, "Something went wrong.")
		}
		return
	}
	c.Redirect(http.StatusFound, "/users/"+strconv.FormatUint(uint64(current.ID), 10))
}

// Like toggles the current user's like on a message.
func (h *MessageHandler) Like(c *gin.Context) {
	current := middleware.UserFromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusNotFound, "Message not found.")
		return
	}
	if _, err := h.messageService.ToggleLike(current.ID, uint(id)); err != nil {
		switch {
		case errors.Is(err, app.ErrMessageNotFound):
			c.String(http.StatusNotFound, "Message not found.")
		case errors.Is(err, app.ErrOwnLike):
			h.sessions.Flash(c, "You cannot like your own warble.")
			c.Redirect(http.StatusFound, "/")
		default:
			logrus.WithError(err).Error("toggle like failed")
			c.String(http.StatusInternalServerError, "Something went wrong.")
		}
		return
	}
	c.Redirect(http.StatusFound, "/")
}
