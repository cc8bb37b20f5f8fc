package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/uno-arena/uno-server-go/internal/stats"
)

func TestCreateRoomAssignsUniqueCodes(t *testing.T) {
	m := NewManager(testTiming(), stats.NewCollector(), zaptest.NewLogger(t))

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room := m.CreateRoom(NewPlayer("host"), DefaultSettings())
		t.Cleanup(room.Close)

		if len(room.ID) != 7 {
			t.Fatalf("expected a 7 character code, got %q", room.ID)
		}
		for _, c := range room.ID {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q uses a character outside the alphabet", room.ID)
			}
		}
		if seen[room.ID] {
			t.Fatalf("code %q issued twice", room.ID)
		}
		seen[room.ID] = true
	}
	assert.Equal(t, 50, m.RoomCount())
}

func TestGetRoomResolvesCode(t *testing.T) {
	m := NewManager(testTiming(), stats.NewCollector(), zaptest.NewLogger(t))
	room := m.CreateRoom(NewPlayer("host"), DefaultSettings())
	t.Cleanup(room.Close)

	got, ok := m.GetRoom(room.ID)
	require.True(t, ok)
	assert.Same(t, room, got)

	_, ok = m.GetRoom("NOPE123")
	assert.False(t, ok)
}

func TestCreateRoomClampsMaxPlayers(t *testing.T) {
	m := NewManager(testTiming(), stats.NewCollector(), zaptest.NewLogger(t))

	settings := DefaultSettings()
	settings.MaxPlayers = 9
	room := m.CreateRoom(NewPlayer("host"), settings)
	t.Cleanup(room.Close)
	assert.Equal(t, 4, room.settings.MaxPlayers)

	settings.MaxPlayers = 0
	room = m.CreateRoom(NewPlayer("host"), settings)
	t.Cleanup(room.Close)
	assert.Equal(t, 4, room.settings.MaxPlayers, "out-of-range values fall back to the table limit")
}

func TestListPublicFiltersUnlistedAndStarted(t *testing.T) {
	m := NewManager(testTiming(), stats.NewCollector(), zaptest.NewLogger(t))

	open := m.CreateRoom(NewPlayer("open-host"), DefaultSettings())
	t.Cleanup(open.Close)

	hidden := DefaultSettings()
	hidden.Public = false
	private := m.CreateRoom(NewPlayer("private-host"), hidden)
	t.Cleanup(private.Close)

	running := m.CreateRoom(NewPlayer("running-host"), DefaultSettings())
	t.Cleanup(running.Close)
	require.NoError(t, running.AddBot())
	require.NoError(t, running.StartGame())

	list := m.ListPublic()
	require.Len(t, list, 1)
	assert.Equal(t, open.ID, list[0].ID)
	assert.Equal(t, "open-host", list[0].Host)
	assert.Equal(t, 1, list[0].Players)
	assert.Equal(t, 4, list[0].MaxPlayers)
}

func TestRunningGamesCountsStartedRooms(t *testing.T) {
	m := NewManager(testTiming(), stats.NewCollector(), zaptest.NewLogger(t))

	lobby := m.CreateRoom(NewPlayer("waiting"), DefaultSettings())
	t.Cleanup(lobby.Close)

	running := m.CreateRoom(NewPlayer("playing"), DefaultSettings())
	t.Cleanup(running.Close)
	require.NoError(t, running.AddBot())
	require.NoError(t, running.StartGame())

	assert.Equal(t, 2, m.RoomCount())
	assert.Equal(t, 1, m.RunningGames())
}

func TestEmptiedRoomLeavesRegistry(t *testing.T) {
	collector := stats.NewCollector()
	m := NewManager(testTiming(), collector, zaptest.NewLogger(t))

	host := NewPlayer("host")
	room := m.CreateRoom(host, DefaultSettings())
	require.Equal(t, int64(1), collector.Current().LobbiesOnline)

	room.RemovePlayer(host, false)

	assert.Equal(t, 0, m.RoomCount())
	assert.Equal(t, int64(0), collector.Current().LobbiesOnline)
	assert.Equal(t, int64(1), collector.Current().LobbiesCreated)

	_, ok := m.GetRoom(room.ID)
	assert.False(t, ok)
}

func TestCloseAllReleasesEveryRoom(t *testing.T) {
	m := NewManager(testTiming(), stats.NewCollector(), zaptest.NewLogger(t))
	for i := 0; i < 5; i++ {
		m.CreateRoom(NewPlayer("host"), DefaultSettings())
	}
	require.Equal(t, 5, m.RoomCount())

	m.CloseAll()
	assert.Equal(t, 0, m.RoomCount())
}
