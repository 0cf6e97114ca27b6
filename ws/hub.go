package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"tetrecs-server/config"
	"tetrecs-server/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SessionManager defines what the Hub needs from the session manager.
// Start creates and starts a session whose events are delivered through c.SendJSON.
type SessionManager interface {
	Start(c *Client, msg StartMsg) (*game.Game, error)
}

// Hub maintains the set of active clients.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Sessions   SessionManager
	Config     *config.Config

	// stopped is closed when Run returns.
	stopped chan struct{}
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, sessions SessionManager) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Sessions:   sessions,
		Config:     cfg,
		stopped:    make(chan struct{}),
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run closes every
// connection, which stops their sessions, and returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, closing connections", "tag", "hub", "clients", len(h.Clients))
			for client := range h.Clients {
				delete(h.Clients, client)
				close(client.done)
				client.Conn.Close()
			}
			return
		case client := <-h.Register:
			h.Clients[client] = true
			slog.Info("client connected", "tag", "hub", "clients", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.done)
				slog.Info("client disconnected", "tag", "hub", "clients", len(h.Clients))
			}
		}
	}
}

func (h *Hub) unregister(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.stopped:
	}
}

// ServeWS handles WebSocket upgrade requests and creates a new Client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade error", "tag", "hub", "err", err)
		return
	}

	client := NewClient(h, conn)

	select {
	case h.Register <- client:
	case <-h.stopped:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
