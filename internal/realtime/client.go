package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Command is a client to server frame.
type Command struct {
	Action string `json:"action"` // join, leave, subscribe or unsubscribe
	URL    string `json:"url,omitempty"`
}

// Client is one websocket connection. UserID is empty for anonymous viewers,
// who may join topics but cannot subscribe to notifications.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
	}
}

// Deliver queues frame without blocking. A full buffer drops the frame.
func (c *Client) Deliver(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Run pumps the connection until it closes, then unregisters the client.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) close() {
	c.hub.Remove(c)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read: %v", err)
			}
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.reply("error", map[string]string{"message": "malformed command"})
			continue
		}
		c.handle(cmd)
	}
}

func (c *Client) handle(cmd Command) {
	switch cmd.Action {
	case "join":
		if cmd.URL == "" {
			c.reply("error", map[string]string{"message": "url is required"})
			return
		}
		c.hub.Join(c, cmd.URL)
		c.reply("joined", map[string]string{"url": cmd.URL})
	case "leave":
		c.hub.Leave(c, cmd.URL)
		c.reply("left", map[string]string{"url": cmd.URL})
	case "subscribe":
		if c.userID == "" {
			c.reply("error", map[string]string{"message": "login required"})
			return
		}
		c.hub.Subscribe(c, c.userID)
		c.reply("subscribed", map[string]string{"userId": c.userID})
	case "unsubscribe":
		if c.userID == "" {
			c.reply("error", map[string]string{"message": "login required"})
			return
		}
		c.hub.Unsubscribe(c, c.userID)
		c.reply("unsubscribed", map[string]string{"userId": c.userID})
	default:
		c.reply("error", map[string]string{"message": "unknown action"})
	}
}

func (c *Client) reply(event string, data any) {
	frame, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		return
	}
	c.Deliver(frame)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
