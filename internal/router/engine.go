package router

import (
	"pagenotes/internal/config"
	"pagenotes/internal/handlers"
	"pagenotes/internal/middleware"
	"pagenotes/internal/realtime"
	"pagenotes/internal/services"
	"pagenotes/internal/store"
	"pagenotes/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// New wires the services over s and hub and returns the ready engine.
func New(cfg config.Config, s store.Store, hub *realtime.Hub) (*gin.Engine, error) {
	directory, err := services.NewCachedDirectory(s, cfg.UserCacheSize, cfg.UserCacheTTL)
	if err != nil {
		return nil, err
	}

	votes := services.NewVoteAggregator(s, hub)
	notifier := services.NewNotificationDispatcher(s, directory, hub)
	comments := services.NewCommentService(s, utils.NewMarkdownRenderer(), votes, notifier, hub, services.CommentServiceConfig{
		PageSize:    cfg.PageSize,
		MaxPageSize: cfg.MaxPageSize,
	})
	notifications := services.NewNotificationService(s, cfg.NotificationLimit)
	auth := services.NewAuthService(s)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions("pagenotes_session", sessionStore))
	r.Use(middleware.LoadUser(auth))

	RegisterRoutes(r, Handlers{
		Auth:         handlers.NewAuthHandler(auth),
		Comment:      handlers.NewCommentHandler(comments),
		Vote:         handlers.NewVoteHandler(votes),
		Notification: handlers.NewNotificationHandler(notifications),
		WS:           handlers.NewWSHandler(hub, cfg.CORSOrigins),
	})
	return r, nil
}
