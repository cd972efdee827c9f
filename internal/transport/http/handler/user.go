package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"warbler/internal/app"
	"warbler/internal/model"
	"warbler/internal/transport/http/middleware"
)

type UserHandler struct {
	userService    *app.UserService
	messageService *app.MessageService
	sessions       *middleware.SessionManager
}

func NewUserHandler(userService *app.UserService, messageService *app.MessageService, sessions *middleware.SessionManager) *UserHandler {
	return &UserHandler{userService: userService, messageService: messageService, sessions: sessions}
}

// Index lists users, optionally filtered by the q query parameter.
func (h *UserHandler) Index(c *gin.Context) {
	query := c.Query("q")
	users, err := h.userService.List(query)
	if err != nil {
		logrus.WithError(err).Error("list users failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	render(c, h.sessions, http.StatusOK, "users_index", gin.H{"Users": users, "Query": query})
}

// Show renders a user's profile with their messages and counts.
func (h *UserHandler) Show(c *gin.Context) {
	user, ok := h.lookupUser(c)
	if !ok {
		return
	}

	messages, err := h.messageService.ListByUser(user.ID, 100)
	if err != nil {
		logrus.WithError(err).Error("list user messages failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	messageCount, err := h.messageService.CountByUser(user.ID)
	if err != nil {
		logrus.WithError(err).Error("count messages failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	followingCount, err := h.userService.CountFollowing(user.ID)
	if err != nil {
		logrus.WithError(err).Error("count following failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	followersCount, err := h.userService.CountFollowers(user.ID)
	if err != nil {
		logrus.WithError(err).Error("count followers failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}

	isFollowing := false
	if current := middleware.UserFromContext(c); current != nil && current.ID != user.ID {
		isFollowing, err = h.userService.IsFollowing(current.ID, user.ID)
		if err != nil {
			logrus.WithError(err).Error("check following failed")
			c.String(http.StatusInternalServerError, "Something went wrong.")
			return
		}
	}

	render(c, h.sessions, http.StatusOK, "user_show", gin.H{
		"User":           user,
		"Messages":       messages,
		"MessageCount":   messageCount,
		"FollowingCount": followingCount,
		"FollowersCount": followersCount,
		"IsFollowing":    isFollowing,
	})
}

// Following lists the users this user follows.
func (h *UserHandler) Following(c *gin.Context) {
	user, ok := h.lookupUser(c)
	if !ok {
		return
	}
	users, err := h.userService.Following(user.ID)
	if err != nil {
		logrus.WithError(err).Error("list following failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	render(c, h.sessions, http.StatusOK, "following", gin.H{"User": user, "Users": users})
}

// Followers lists the users following this user.
func (h *UserHandler) Followers(c *gin.Context) {
	user, ok := h.lookupUser(c)
	if !ok {
		return
	}
	users, err := h.userService.Followers(user.ID)
	if err != nil {
		logrus.WithError(err).Error("list followers failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	render(c, h.sessions, http.StatusOK, "followers", gin.H{"User": user, "Users": users})
}

// Likes lists the messages this user liked.
func (h *UserHandler) Likes(c *gin.Context) {
	user, ok := h.lookupUser(c)
	if !ok {
		return
	}
	messages, err := h.messageService.Likes(user.ID)
	if err != nil {
		logrus.WithError(err).Error("list likes failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	render(c, h.sessions, http.StatusOK, "likes", gin.H{"User": user, "Messages": messages})
}

// Follow makes the current user follow the user in the path.
func (h *UserHandler) Follow(c *gin.Context) {
	current := middleware.UserFromContext(c)
	target, ok := h.lookupUser(c)
	if !ok {
		return
	}
	if err := h.userService.Follow(current.ID, target.ID); err != nil {
		logrus.WithError(err).Error("follow failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	c.Redirect(http.StatusFound, "/users/"+strconv.FormatUint(uint64(current.ID), 10)+"/following")
}

// StopFollowing makes the current user unfollow the user in the path.
func (h *UserHandler) StopFollowing(c *gin.Context) {
	current := middleware.UserFromContext(c)
	target, ok := h.lookupUser(c)
	if !ok {
		return
	}
	if err := h.userService.Unfollow(current.ID, target.ID); err != nil {
		logrus.WithError(err).Error("unfollow failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	c.Redirect(http.StatusFound, "/users/"+strconv.FormatUint(uint64(current.ID), 10)+"/following")
}

// ShowProfile renders the edit form for the current user.
func (h *UserHandler) ShowProfile(c *gin.Context) {
	current := middleware.UserFromContext(c)
	render(c, h.sessions, http.StatusOK, "profile_edit", gin.H{"User": current})
}

// UpdateProfile applies profile changes after re-verifying the password.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	current := middleware.UserFromContext(c)
	user, err := h.userService.UpdateProfile(app.UpdateProfileInput{
		UserID:   current.ID,
		Password: c.PostForm("password"),
		Email:    c.PostForm("email"),
		ImageURL: c.PostForm("image_url"),
		Bio:      c.PostForm("bio"),
		Location: c.PostForm("location"),
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidCredentials):
			h.sessions.Flash(c, "Access unauthorized.")
			c.Redirect(http.StatusFound, "/")
		case errors.Is(err, app.ErrEmailTaken):
			h.sessions.Flash(c, "E-mail already taken")
			render(c, h.sessions, http.StatusOK, "profile_edit", gin.H{"User": current})
		default:
			logrus.WithError(err).Error("update profile failed")
			c.String(http.StatusInternalServerError, "Something went wrong.")
		}
		return
	}
	c.Redirect(http.StatusFound, "/users/"+strconv.FormatUint(uint64(user.ID), 10))
}

// Delete removes the current user's account and all their data.
func (h *UserHandler) Delete(c *gin.Context) {
	current := middleware.UserFromContext(c)
	if err := h.userService.Delete(current.ID); err != nil {
		logrus.WithError(err).Error("delete account failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	h.sessions.SignOut(c)
	c.Redirect(http.StatusFound, "/signup")
}

type notificationItem struct {
	ActorID       uint
	ActorUsername string
	Kind          string
	MessageID     uint
	CreatedAt     time.Time
}

// Notifications renders the current user's notification feed.
func (h *UserHandler) Notifications(c *gin.Context) {
	current := middleware.UserFromContext(c)
	notifications, err := h.userService.Notifications(current.ID)
	if err != nil {
		logrus.WithError(err).Error("list notifications failed")
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}

	actors := make(map[uint]string)
	items := make([]notificationItem, 0, len(notifications))
	for _, n := range notifications {
		username, ok := actors[n.ActorID]
		if !ok {
			actor, err := h.userService.Get(n.ActorID)
			if err != nil {
				if errors.Is(err, app.ErrUserNotFound) {
					continue
				}
				logrus.WithError(err).Error("load notification actor failed")
				c.String(http.StatusInternalServerError, "Something went wrong.")
				return
			}
			username = actor.Username
			actors[n.ActorID] = username
		}
		items = append(items, notificationItem{
			ActorID:       n.ActorID,
			ActorUsername: username,
			Kind:          n.Kind,
			MessageID:     n.MessageID,
			CreatedAt:     n.CreatedAt,
		})
	}
	render(c, h.sessions, http.StatusOK, "notifications", gin.H{"Items": items})
}

// lookupUser resolves the :id path parameter, writing the error
// response itself when the user cannot be found.
func (h *UserHandler) lookupUser(c *gin.Context) (*model.User, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusNotFound, "User not found.")
		return nil, false
	}
	user, err := h.userService.Get(uint(id))
	if err != nil {
		if errors.Is(err, app.ErrUserNotFound) {
			c.String(http.StatusNotFound, "User not found.")
		} else {
			logrus.WithError(err).Error("load user failed")
			c.String(http.StatusInternalServerError, "Something went wrong.")
		}
		return nil, false
	}
	return user, true
}
