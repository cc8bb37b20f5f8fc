package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"

	"github.com/uno-arena/uno-server-go/internal/config"
	"github.com/uno-arena/uno-server-go/internal/game"
	"github.com/uno-arena/uno-server-go/internal/session"
	"github.com/uno-arena/uno-server-go/internal/stats"
)

// Server is the WebSocket gateway plus the small REST surface. It owns the
// connection registry and implements game.Notifier, so rooms push state
// through it without knowing about sockets.
type Server struct {
	cfg      config.ServerConfig
	rooms    *game.Manager
	sessions *session.Manager
	stats    *stats.Collector
	version  string
	logger   *zap.Logger

	httpServer *http.Server

	mu      sync.RWMutex
	clients map[string]*Client
}

// New wires the gateway. The caller must also install the returned server
// as the room manager's notifier.
func New(cfg config.ServerConfig, rooms *game.Manager, sessions *session.Manager, collector *stats.Collector, version string, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		rooms:    rooms,
		sessions: sessions,
		stats:    collector,
		version:  version,
		logger:   logger,
		clients:  make(map[string]*Client),
	}
	s.httpServer = &http.Server{
		Addr:    cfg.Address,
		Handler: s.Handler(),
	}
	return s
}

// Handler builds the routed, CORS-wrapped handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/rooms", s.handleRooms)
	mux.HandleFunc("/api/state", s.handleState)

	return handlers.CORS(
		handlers.AllowedOrigins(s.cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(mux)
}

// ListenAndServe blocks serving HTTP until shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("gateway listening", zap.String("address", s.cfg.Address))
	return s.httpServer.ListenAndServe()
}

// Shutdown closes every client connection and stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	conns := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.RUnlock()
	for _, c := range conns {
		c.conn.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

// PushState implements game.Notifier.
func (s *Server) PushState(playerID string, state *game.StateView) {
	s.push(playerID, "state", state)
}

// PushEvent implements game.Notifier.
func (s *Server) PushEvent(playerID string, event string, data map[string]interface{}) {
	s.push(playerID, event, data)
}

// push delivers one envelope without blocking. Unknown player ids are
// expected: bots and departed players have no connection.
func (s *Server) push(playerID, msgType string, data interface{}) {
	raw, err := json.Marshal(Envelope{Type: msgType, Data: mustRaw(data)})
	if err != nil {
		s.logger.Error("marshal push failed", zap.String("type", msgType), zap.Error(err))
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[playerID]
	if !ok || client.closed {
		return
	}
	select {
	case client.send <- raw:
	default:
		s.logger.Warn("send buffer full, dropping push",
			zap.String("player_id", playerID),
			zap.String("type", msgType),
		)
	}
}

// kickClient notifies and unbinds the connection acting for playerID. Safe
// for bots and departed players, which have no connection.
func (s *Server) kickClient(playerID string) {
	s.push(playerID, game.EventKicked, nil)
	s.mu.RLock()
	client := s.clients[playerID]
	s.mu.RUnlock()
	if client != nil {
		client.detach()
	}
	s.unregisterClient(playerID)
}

// registerClient binds a connection to a player identity for pushes.
func (s *Server) registerClient(playerID string, c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[playerID] = c
}

func (s *Server) unregisterClient(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, playerID)
}

// dropClient tears down everything a closing connection holds: its room
// seat (bot-replaced mid-game), its registry entry and its session. The
// room operation runs before the registry update so kick notifications can
// still reach other players.
func (s *Server) dropClient(c *Client) {
	player, room := c.detach()
	if player != nil && room != nil {
		room.RemovePlayer(player, room.Started())
	}
	if c.sess != nil {
		s.sessions.RemoveSession(c.sess.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if player != nil && s.clients[player.ID] == c {
		delete(s.clients, player.ID)
	}
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.logger, map[string]interface{}{
		"rooms": s.rooms.ListPublic(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.logger, map[string]interface{}{
		"active_sessions": s.sessions.GetActiveSessions(),
		"open_rooms":      s.rooms.RoomCount(),
		"running_games":   s.rooms.RunningGames(),
		"stats":           s.stats.Current(),
		"version":         s.version,
	})
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write response failed", zap.Error(err))
	}
}

func mustRaw(data interface{}) json.RawMessage {
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return raw
}
