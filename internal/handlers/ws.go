package handlers

import (
	"log"
	"net/http"

	"pagenotes/internal/middleware"
	"pagenotes/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler accepts browser connections only from the listed origins.
// Clients that send no Origin header are not browsers and are let through.
func NewWSHandler(hub *realtime.Hub, origins []string) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(origins, origin)
			},
		},
	}
}

// Serve upgrades the request. A logged in session may subscribe to its own
// notifications; anyone may join topics.
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade: %v", err)
		return
	}

	userID := ""
	if user := middleware.CurrentUser(c); user != nil {
		userID = user.ID
	}
	realtime.NewClient(h.hub, conn, userID).Run()
}
