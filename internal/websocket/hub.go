package websocket

import (
	"log"
	"net/http"
	"sync"

	"invoicebuilder/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is a single subscriber watching one editing session's
// preview.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	SessionID string
	Send      chan []byte
}

// Message pairs a snapshot payload with the session it belongs to.
type Message struct {
	SessionID string
	Data      []byte
}

// Hub tracks subscribers per session and fans fresh invoice snapshots
// out to the clients watching that session only.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
}

// NewHub initializes a Hub. Run must be started before any client
// connects or snapshot is broadcast.
func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan Message, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run is the hub's dispatch loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("preview client connected, session %s", client.SessionID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Printf("preview client disconnected, session %s", client.SessionID)
			}
			h.mu.Unlock()
		case msg := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.SessionID != msg.SessionID {
					continue
				}
				select {
				case client.Send <- msg.Data:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// writePump pushes queued snapshots out to the connection.
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump drains the connection so pings and closes are handled.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		_ = c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}
	}
}

// ServeWs upgrades a preview subscription request. The session query
// parameter must name a live editing session.
func ServeWs(hub *Hub, c *gin.Context, sessions session.Manager) {
	raw := c.Query("session")
	if raw == "" {
		log.Println("preview connection rejected: missing session")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		log.Println("preview connection rejected: invalid session id:", err)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	if _, err := sessions.Get(c.Request.Context(), id); err != nil {
		log.Println("preview connection rejected:", err)
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("websocket upgrade failed:", err)
		return
	}
	client := &Client{Hub: hub, Conn: conn, SessionID: id.String(), Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}
