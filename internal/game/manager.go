package game

import (
	"math/rand"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/uno-arena/uno-server-go/internal/config"
	"github.com/uno-arena/uno-server-go/internal/stats"
)

// CodeLength is the fixed size of a join code. The gateway rejects codes
// of any other length before touching the registry.
const CodeLength = 7

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ123456789"

// Manager is the code → Room registry. Rooms remove themselves when the
// last human leaves.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	logger   *zap.Logger
	stats    *stats.Collector
	timing   config.GameConfig
	notifier Notifier
}

// NewManager creates an empty registry.
func NewManager(timing config.GameConfig, collector *stats.Collector, logger *zap.Logger) *Manager {
	return &Manager{
		rooms:  make(map[string]*Room),
		logger: logger,
		stats:  collector,
		timing: timing,
	}
}

// SetNotifier installs the gateway sink handed to every new room. Called
// once during startup, before any room exists.
func (m *Manager) SetNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = n
}

// CreateRoom opens a room with host seated and returns it.
func (m *Manager) CreateRoom(host *Player, settings Settings) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := m.newCode()
	room := newRoom(code, host, settings.normalized(m.timing.MaxPlayers), m.notifier, m.stats, m.timing, m.logger)
	room.onEmpty = m.releaseRoom
	m.rooms[code] = room
	m.stats.RoomCreated()

	m.logger.Info("room created",
		zap.String("room_id", code),
		zap.String("host_id", host.ID),
		zap.Bool("public", room.settings.Public),
	)
	return room
}

// GetRoom resolves a join code.
func (m *Manager) GetRoom(code string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[code]
	return room, ok
}

// RoomCount returns the number of open rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// RunningGames counts rooms whose game has started.
func (m *Manager) RunningGames() int {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	running := 0
	for _, r := range rooms {
		if r.Started() {
			running++
		}
	}
	return running
}

// ListPublic returns lobby entries for every listed, joinable room. Room
// locks are taken after the registry lock is released.
func (m *Manager) ListPublic() []Summary {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		if s, ok := r.PublicSummary(); ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CloseAll force-releases every open room. Used on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	for _, r := range rooms {
		r.Close()
	}
}

// releaseRoom drops an emptied room from the registry.
func (m *Manager) releaseRoom(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return
	}
	delete(m.rooms, id)
	m.stats.RoomClosed()
	m.logger.Info("room released", zap.String("room_id", id))
}

// newCode generates an unused 7-character join code. Caller holds the
// registry lock.
func (m *Manager) newCode() string {
	buf := make([]byte, CodeLength)
	for {
		for i := range buf {
			buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if _, taken := m.rooms[code]; !taken {
			return code
		}
	}
}
