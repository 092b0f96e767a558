package router

import (
	"net/http"

	"pagenotes/internal/handlers"
	"pagenotes/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Comment      *handlers.CommentHandler
	Vote         *handlers.VoteHandler
	Notification *handlers.NotificationHandler
	WS           *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", h.WS.Serve) // Topic rooms and the caller's notifications

	api := r.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/logout", h.Auth.Logout)
	api.GET("/auth/me", h.Auth.Me)

	api.GET("/comments", h.Comment.List)    // ?url=&page=&limit=
	api.GET("/comments/:id", h.Comment.Get) // Single comment with tally

	// Protected routes
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/comments", h.Comment.Create)
		authorized.PUT("/comments/:id", h.Comment.Edit)
		authorized.DELETE("/comments/:id", h.Comment.Delete) // Removes the whole reply subtree

		authorized.POST("/comments/:id/vote", h.Vote.Vote)
		authorized.DELETE("/comments/:id/vote", h.Vote.Unvote)

		authorized.GET("/notifications", h.Notification.List)
		authorized.GET("/notifications/unread-count", h.Notification.UnreadCount)
		authorized.POST("/notifications/read-all", h.Notification.ReadAll)
		authorized.POST("/notifications/:id/read", h.Notification.Read)
	}
}
