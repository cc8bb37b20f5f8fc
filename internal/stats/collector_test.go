package stats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()

	c.RoomCreated()
	c.RoomCreated()
	c.RoomClosed()
	c.CardPlayed()
	c.CardPlayed()
	c.CardPlayed()
	c.Plus4Dealt()
	c.BotUsed()
	c.GamePlayed()

	snap := c.Current()
	assert.Equal(t, int64(2), snap.LobbiesCreated)
	assert.Equal(t, int64(1), snap.LobbiesOnline)
	assert.Equal(t, int64(3), snap.CardsPlayed)
	assert.Equal(t, int64(1), snap.Plus4sDealt)
	assert.Equal(t, int64(1), snap.BotsUsed)
	assert.Equal(t, int64(1), snap.GamesPlayed)
}

func TestRestoreSeedsCountersButNotGauge(t *testing.T) {
	c := NewCollector()
	c.Restore(Snapshot{
		LobbiesCreated: 40,
		LobbiesOnline:  9,
		CardsPlayed:    1200,
		Plus4sDealt:    33,
		BotsUsed:       17,
		GamesPlayed:    25,
	})
	c.RoomCreated()
	c.GamePlayed()

	snap := c.Current()
	assert.Equal(t, int64(41), snap.LobbiesCreated)
	assert.Equal(t, int64(1), snap.LobbiesOnline, "gauge restarts at zero")
	assert.Equal(t, int64(1200), snap.CardsPlayed)
	assert.Equal(t, int64(26), snap.GamesPlayed)
}

type recordingSink struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (s *recordingSink) Flush(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snaps)
}

func TestRunFlusherPushesAndFlushesOnShutdown(t *testing.T) {
	c := NewCollector()
	c.GamePlayed()
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.RunFlusher(ctx, sink, 5*time.Millisecond, zaptest.NewLogger(t))
		close(done)
	}()

	require.Eventually(t, func() bool { return sink.count() > 0 }, time.Second, time.Millisecond)
	before := sink.count()
	cancel()
	<-done

	// the shutdown path adds one last flush
	assert.GreaterOrEqual(t, sink.count(), before+1)
	assert.Equal(t, int64(1), sink.snaps[0].GamesPlayed)
}
