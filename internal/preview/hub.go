package preview

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SamJakob/MageArenaFlagEditor/internal/logging"
)

// reloadMessage is pushed to every client when the stored flag changes.
const reloadMessage = "reload"

// upgrader accepts only same-host origins; the preview is a local tool.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == "http://"+r.Host
	},
}

// client is one connected browser tab.
type client struct {
	hub  *hub
	conn *websocket.Conn
	send chan []byte
}

// hub maintains active WebSocket connections and broadcasts reload
// notifications. A single goroutine owns the client set.
type hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
}

func newHub() *hub {
	return &hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// run handles registration and broadcasting until ctx is cancelled.
func (h *hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			logging.WebSocketEvent("client_connected", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			logging.WebSocketEvent("client_disconnected", len(h.clients))

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Client channel full, disconnect
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// notify queues a broadcast without blocking the caller.
func (h *hub) notify(message string) {
	select {
	case h.broadcast <- []byte(message):
	default:
		logging.Warn("broadcast channel full, dropping message")
	}
}

// readPump drains the connection until the client goes away.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error("websocket unexpected close", "error", err)
			}
			break
		}
	}
}

// writePump forwards broadcasts to the connection and keeps it alive with
// pings.
func (c *client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
