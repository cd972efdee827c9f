package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "warbler/internal/app"
	"warbler/internal/bootstrap"
	"warbler/internal/cache"
	"warbler/internal/repository"
	"warbler/internal/session"
	"warbler/internal/transport/http/handler"
	"warbler/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.SetHTMLTemplate(mustParseTemplates())

	cfg := app.Config

	userRepo := repository.NewUserRepository(app.DB)
	messageRepo := repository.NewMessageRepository(app.DB)
	followRepo := repository.NewFollowRepository(app.DB)
	likeRepo := repository.NewLikeRepository(app.DB)
	notifRepo := repository.NewNotificationRepository(app.DB)

	sessionTTL := time.Duration(cfg.Session.TTLMinute) * time.Minute
	sessionStore := session.NewStore(app.Redis, sessionTTL)
	sessions := middleware.NewSessionManager(
		sessionStore,
		cfg.Session.Secret,
		cfg.Session.CookieName,
		sessionTTL,
		cfg.Session.Secure,
	)

	timelineCache := cache.NewTimelineCache(
		app.Redis,
		time.Duration(cfg.Redis.TimelineTTLSeconds)*time.Second,
	)

	authService := appsvc.NewAuthService(userRepo)
	userService := appsvc.NewUserService(userRepo, followRepo, notifRepo, timelineCache, app.Publisher)
	messageService := appsvc.NewMessageService(messageRepo, followRepo, likeRepo, timelineCache, app.Publisher)

	authHandler := handler.NewAuthHandler(authService, sessions)
	userHandler := handler.NewUserHandler(userService, messageService, sessions)
	messageHandler := handler.NewMessageHandler(messageService, sessions)
	healthHandler := handler.NewHealthHandler(app)

	router.Use(
		sessions.Load(),
		middleware.CurrentUser(userRepo),
		middleware.CSRF(sessions, cfg.App.CSRFEnabled),
	)

	router.GET("/healthz", healthHandler.Check)

	router.GET("/", messageHandler.Home)
	router.GET("/signup", authHandler.ShowSignup)
	router.POST("/signup", authHandler.Signup)
	router.GET("/login", authHandler.ShowLogin)
	router.POST("/login", authHandler.Login)
	router.GET("/users/:id", userHandler.Show)
	router.GET("/messages/:id", messageHandler.Show)

	authorized := router.Group("/")
	authorized.Use(middleware.RequireLogin(sessions))
	{
		authorized.POST("/logout", authHandler.Logout)

		authorized.GET("/users", userHandler.Index)
		authorized.GET("/users/:id/following", userHandler.Following)
		authorized.GET("/users/:id/followers", userHandler.Followers)
		authorized.GET("/users/:id/likes", userHandler.Likes)
		authorized.POST("/users/follow/:id", userHandler.Follow)
		authorized.POST("/users/stop-following/:id", userHandler.StopFollowing)
		authorized.GET("/users/profile", userHandler.ShowProfile)
		authorized.POST("/users/profile", userHandler.UpdateProfile)
		authorized.POST("/users/delete", userHandler.Delete)

		authorized.GET("/messages/new", messageHandler.NewForm)
		authorized.POST("/messages/new", messageHandler.Create)
		authorized.POST("/messages/:id/delete", messageHandler.Delete)
		authorized.POST("/messages/:id/like", messageHandler.Like)

		authorized.GET("/notifications", userHandler.Notifications)
	}

	return router
}
