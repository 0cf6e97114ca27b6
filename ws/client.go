package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"tetrecs-server/ai"
	"tetrecs-server/game"
	"tetrecs-server/gameerrors"
	"tetrecs-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between the websocket connection and the hub.
// Game is only touched from the ReadPump goroutine.
//
// Send is never closed: session goroutines may still deliver events after the
// client is gone. The hub closes done instead, which stops WritePump and
// turns later sends into no-ops.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	Name   string
	UserID string
	Game   *game.Game

	done chan struct{}
}

// NewClient creates a client for conn with a buffered send channel.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 256),
		done: make(chan struct{}),
	}
}

// Done is closed once the hub has unregistered the client.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// SendJSON queues v for the peer. It is safe to call from any goroutine,
// before or after the client disconnects.
func (c *Client) SendJSON(v any) {
	wsutil.SendJSON(c.Send, c.done, v)
}

// ReadPump pumps messages from the websocket connection to the session.
// It runs in its own goroutine per connection. A disconnect stops the
// client's running session.
func (c *Client) ReadPump() {
	defer func() {
		if c.Game != nil {
			c.Game.Stop()
		}
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "tag", "ws", "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	switch envelope.Type {
	case "start":
		c.handleStart(envelope.Raw)
	case "place":
		c.handlePlace(envelope.Raw)
	case "rotate":
		c.handleRotate(envelope.Raw)
	case "swap":
		c.handleSwap()
	case "hint":
		c.handleHint()
	case "quit":
		c.handleQuit()
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

// sessionRunning reports whether the client has a session that has not ended.
func (c *Client) sessionRunning() bool {
	if c.Game == nil {
		return false
	}
	select {
	case <-c.Game.Done():
		return false
	default:
		return true
	}
}

func (c *Client) handleStart(raw json.RawMessage) {
	var msg StartMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid start message.")
		return
	}
	if c.sessionRunning() {
		c.sendError("A session is already running.")
		return
	}

	msg.Name = strings.TrimSpace(msg.Name)
	maxLen := c.Hub.Config.MaxNameLength
	if msg.Token == "" {
		if n := utf8.RuneCountInString(msg.Name); n < 1 || n > maxLen {
			c.sendError(fmt.Sprintf("Name must be between 1 and %d characters.", maxLen))
			return
		}
	}

	g, err := c.Hub.Sessions.Start(c, msg)
	if err != nil {
		slog.Warn("could not start session", "tag", "ws", "err", err)
		c.sendError("Could not start session: " + err.Error())
		return
	}
	c.Game = g
}

func (c *Client) handlePlace(raw json.RawMessage) {
	if c.Game == nil {
		c.sendGameError(gameerrors.ErrNoSession)
		return
	}
	var msg PlaceMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid place message.")
		return
	}
	// A rejected placement is reported by the session's placement_failed event.
	if _, err := c.Game.Place(msg.X, msg.Y); err != nil {
		c.sendGameError(err)
	}
}

func (c *Client) handleRotate(raw json.RawMessage) {
	if c.Game == nil {
		c.sendGameError(gameerrors.ErrNoSession)
		return
	}
	var msg RotateMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid rotate message.")
		return
	}
	if err := c.Game.Rotate(msg.Turns); err != nil {
		c.sendGameError(err)
	}
}

func (c *Client) handleSwap() {
	if c.Game == nil {
		c.sendGameError(gameerrors.ErrNoSession)
		return
	}
	if err := c.Game.Swap(); err != nil {
		c.sendGameError(err)
	}
}

func (c *Client) handleHint() {
	if !c.sessionRunning() {
		c.sendGameError(gameerrors.ErrNoSession)
		return
	}
	s := c.Game.Snapshot()
	if s.Phase != game.Running {
		c.sendError("The session is not running.")
		return
	}
	hint := HintMsg{Type: "hint"}
	if mv, ok := ai.BestMove(s.Board, s.Current); ok {
		hint = HintMsg{
			Type:     "hint",
			Found:    true,
			X:        mv.X,
			Y:        mv.Y,
			Rotation: mv.Rotation,
			Lines:    mv.Lines,
			Blocks:   mv.Blocks,
		}
	}
	c.SendJSON(hint)
}

func (c *Client) handleQuit() {
	if c.Game == nil {
		c.sendGameError(gameerrors.ErrNoSession)
		return
	}
	c.Game.Stop()
}

func (c *Client) sendGameError(err error) {
	switch {
	case errors.Is(err, gameerrors.ErrSessionOver):
		c.sendError("The session is over.")
	case errors.Is(err, gameerrors.ErrNotStarted):
		c.sendError("The session has not started.")
	default:
		c.sendError(err.Error())
	}
}

func (c *Client) sendError(message string) {
	c.SendJSON(ErrorMsg{Type: "error", Message: message})
}
