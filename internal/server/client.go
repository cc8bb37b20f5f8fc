package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/uno-arena/uno-server-go/internal/game"
	"github.com/uno-arena/uno-server-go/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Intents are small.
	maxMessageSize = 1024

	sendBufferSize = 256
)

// Client is one WebSocket connection: its session, the player identity it
// acts for and the room that player sits in. player and room are nil until
// a create_room or join_room intent succeeds.
type Client struct {
	server *Server
	conn   *websocket.Conn
	send   chan []byte
	sess   *session.Session
	logger *zap.Logger

	mu     sync.Mutex
	player *game.Player
	room   *game.Room

	// closed guards the send channel; it is read and written under the
	// server registry lock.
	closed bool
}

// handleWS upgrades the connection, creates its session and starts the
// pumps.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	sess, err := s.sessions.CreateSession()
	if err != nil {
		s.logger.Warn("connection rejected", zap.Error(err))
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server full"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	client := &Client{
		server: s,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		sess:   sess,
		logger: s.logger.With(zap.String("session_id", sess.ID)),
	}
	client.logger.Debug("client connected", zap.String("remote", conn.RemoteAddr().String()))

	go client.writePump()
	go client.readPump()
}

// checkOrigin accepts requests whose Origin header matches the configured
// allowlist. Absent origins (non-browser clients) are accepted.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// bind attaches the player identity and room after a successful create or
// join.
func (c *Client) bind(player *game.Player, room *game.Room) {
	c.mu.Lock()
	c.player = player
	c.room = room
	c.mu.Unlock()
	c.server.sessions.Bind(c.sess.ID, player.ID, room.ID)
}

// detach clears the player/room binding, returning what was bound.
func (c *Client) detach() (*game.Player, *game.Room) {
	c.mu.Lock()
	player, room := c.player, c.room
	c.player = nil
	c.room = nil
	c.mu.Unlock()
	c.server.sessions.ClearBinding(c.sess.ID)
	return player, room
}

// current returns the active binding without clearing it.
func (c *Client) current() (*game.Player, *game.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player, c.room
}

// readPump reads intents until the connection dies, then releases
// everything the connection held.
func (c *Client) readPump() {
	defer func() {
		c.server.dropClient(c)
		c.conn.Close()
		c.logger.Debug("client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.server.sessions.UpdateActivity(c.sess.ID)
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("read error", zap.Error(err))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.server.sessions.UpdateActivity(c.sess.ID)
		c.handleMessage(message)
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
