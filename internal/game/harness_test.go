package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/uno-arena/uno-server-go/internal/config"
	"github.com/uno-arena/uno-server-go/internal/deck"
	"github.com/uno-arena/uno-server-go/internal/stats"
)

// fakeNotifier records every push so tests can assert on broadcast
// sequences and advisories.
type fakeNotifier struct {
	mu     sync.Mutex
	states map[string][]*StateView
	events map[string][]recordedEvent
}

type recordedEvent struct {
	event string
	data  map[string]interface{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		states: make(map[string][]*StateView),
		events: make(map[string][]recordedEvent),
	}
}

func (f *fakeNotifier) PushState(playerID string, state *StateView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[playerID] = append(f.states[playerID], state)
}

func (f *fakeNotifier) PushEvent(playerID string, event string, data map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[playerID] = append(f.events[playerID], recordedEvent{event: event, data: data})
}

func (f *fakeNotifier) lastState(playerID string) *StateView {
	f.mu.Lock()
	defer f.mu.Unlock()
	pushes := f.states[playerID]
	if len(pushes) == 0 {
		return nil
	}
	return pushes[len(pushes)-1]
}

func (f *fakeNotifier) statesFor(playerID string) []*StateView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*StateView(nil), f.states[playerID]...)
}

func (f *fakeNotifier) eventCount(playerID, event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events[playerID] {
		if e.event == event {
			n++
		}
	}
	return n
}

// testTiming zeroes every pacing delay so sequences run synchronously.
func testTiming() config.GameConfig {
	return config.GameConfig{
		HandSize:        7,
		MaxPlayers:      4,
		InactivityLimit: 300,
	}
}

type testEnv struct {
	manager  *Manager
	room     *Room
	players  []*Player
	notifier *fakeNotifier
	stats    *stats.Collector
}

func newTestEnv(t *testing.T, timing config.GameConfig, settings Settings, names ...string) *testEnv {
	t.Helper()
	require.NotEmpty(t, names)

	collector := stats.NewCollector()
	manager := NewManager(timing, collector, zaptest.NewLogger(t))
	notifier := newFakeNotifier()
	manager.SetNotifier(notifier)

	host := NewPlayer(names[0])
	room := manager.CreateRoom(host, settings)
	t.Cleanup(room.Close)
	players := []*Player{host}
	for _, name := range names[1:] {
		p := NewPlayer(name)
		require.NoError(t, room.AddPlayer(p))
		players = append(players, p)
	}
	return &testEnv{manager: manager, room: room, players: players, notifier: notifier, stats: collector}
}

func newStartedEnv(t *testing.T, settings Settings, names ...string) *testEnv {
	t.Helper()
	env := newTestEnv(t, testTiming(), settings, names...)
	require.NoError(t, env.room.StartGame())
	return env
}

// setTurn hands the turn to p with fresh flags, as if the pointer had just
// advanced there. The rigging helpers take the room lock; the inactivity
// watcher runs from the moment a game starts.
func setTurn(r *Room, p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.players {
		q.resetTurnFlags()
	}
	r.turn = p
	p.FindPlayableCards(r.top())
	p.CanDraw = true
	p.CanPlay = true
}

func setHand(r *Room, p *Player, cards ...deck.Card) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Hand = append([]deck.Card(nil), cards...)
	if r.turn == p {
		p.FindPlayableCards(r.top())
	}
}

func setPile(r *Room, cards ...deck.Card) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pile = append([]deck.Card(nil), cards...)
}

// rigDeck replaces the draw pile contents, front first.
func rigDeck(r *Room, cards ...deck.Card) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for !r.deck.Empty() {
		if _, err := r.deck.Draw(); err != nil {
			break
		}
	}
	r.deck.Push(cards...)
}

func number(color deck.Color, n int) deck.Card {
	return deck.NewCard(color, deck.TypeNone, n)
}

func action(color deck.Color, t deck.CardType) deck.Card {
	return deck.NewCard(color, t, -1)
}

func wild(t deck.CardType) deck.Card {
	return deck.NewCard(deck.ColorNone, t, -1)
}

func totalCards(r *Room) int {
	total := r.deck.Len() + len(r.pile)
	for _, p := range r.players {
		total += len(p.Hand)
	}
	return total
}
