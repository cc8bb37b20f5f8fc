package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session ties one WebSocket connection to the player identity and room it
// is acting for. Bindings are set when the player enters a room and cleared
// when they leave it.
type Session struct {
	ID         string
	PlayerID   string
	RoomCode   string
	CreatedAt  time.Time
	LastActive time.Time
}

// Manager tracks live sessions and sweeps out entries whose lease expired.
// A session's lease is renewed on every inbound frame, so only abandoned
// connections age out.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	leasePeriod time.Duration
	maxSessions int
	logger      *zap.Logger
}

// NewManager creates a session registry. maxSessions caps concurrent
// entries; zero or negative disables the cap.
func NewManager(leasePeriod time.Duration, maxSessions int, logger *zap.Logger) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		leasePeriod: leasePeriod,
		maxSessions: maxSessions,
		logger:      logger,
	}
}

// CreateSession registers a new unbound session for a fresh connection.
func (m *Manager) CreateSession() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return nil, fmt.Errorf("session limit %d reached", m.maxSessions)
	}

	now := time.Now()
	sess := &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		LastActive: now,
	}
	m.sessions[sess.ID] = sess
	m.logger.Debug("session created", zap.String("session_id", sess.ID))
	return sess, nil
}

// GetSession resolves a session id. Expired entries still resolve until the
// sweeper collects them.
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Bind attaches a player identity and room code to the session. Returns
// false for unknown sessions.
func (m *Manager) Bind(id, playerID, roomCode string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return false
	}
	sess.PlayerID = playerID
	sess.RoomCode = roomCode
	sess.LastActive = time.Now()
	return true
}

// ClearBinding detaches the session from its player and room, returning it
// to the unbound state of a fresh connection.
func (m *Manager) ClearBinding(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[id]; ok {
		sess.PlayerID = ""
		sess.RoomCode = ""
		sess.LastActive = time.Now()
	}
}

// UpdateActivity renews the session lease.
func (m *Manager) UpdateActivity(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[id]; ok {
		sess.LastActive = time.Now()
	}
}

// RemoveSession drops a session.
func (m *Manager) RemoveSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		m.logger.Debug("session removed", zap.String("session_id", id))
	}
}

// GetActiveSessions returns the current session count.
func (m *Manager) GetActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpiredSessions sweeps expired leases once a minute until the
// context is cancelled. Run as a goroutine from main.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

func (m *Manager) removeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, sess := range m.sessions {
		if now.Sub(sess.LastActive) > m.leasePeriod {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired sessions removed",
			zap.Int("count", removed),
			zap.Int("remaining", len(m.sessions)),
		)
	}
}

// CloseAll drops every session. Used on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := len(m.sessions)
	m.sessions = make(map[string]*Session)
	if count > 0 {
		m.logger.Info("all sessions closed", zap.Int("count", count))
	}
}
