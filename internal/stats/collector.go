package stats

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	LobbiesCreated int64 `json:"lobbies_created"`
	LobbiesOnline  int64 `json:"lobbies_online"`
	CardsPlayed    int64 `json:"cards_played"`
	Plus4sDealt    int64 `json:"plus4s_dealt"`
	BotsUsed       int64 `json:"bots_used"`
	GamesPlayed    int64 `json:"games_played"`
}

// Sink receives counter snapshots for persistence.
type Sink interface {
	Flush(ctx context.Context, snap Snapshot) error
}

// Collector aggregates fire-and-forget gameplay counters. Rooms increment
// them without any read dependency back into game logic.
type Collector struct {
	lobbiesCreated atomic.Int64
	lobbiesOnline  atomic.Int64
	cardsPlayed    atomic.Int64
	plus4sDealt    atomic.Int64
	botsUsed       atomic.Int64
	gamesPlayed    atomic.Int64
}

// NewCollector returns a zeroed collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RoomCreated records a new lobby and raises the online gauge.
func (c *Collector) RoomCreated() {
	c.lobbiesCreated.Add(1)
	c.lobbiesOnline.Add(1)
}

// RoomClosed lowers the online gauge.
func (c *Collector) RoomClosed() {
	c.lobbiesOnline.Add(-1)
}

// CardPlayed records one successful play.
func (c *Collector) CardPlayed() {
	c.cardsPlayed.Add(1)
}

// Plus4Dealt records a Plus4 reaching the discard pile.
func (c *Collector) Plus4Dealt() {
	c.plus4sDealt.Add(1)
}

// BotUsed records a bot seat, added or substituted.
func (c *Collector) BotUsed() {
	c.botsUsed.Add(1)
}

// GamePlayed records a finished game.
func (c *Collector) GamePlayed() {
	c.gamesPlayed.Add(1)
}

// Restore seeds the cumulative counters from a persisted snapshot so they
// keep accumulating across restarts. LobbiesOnline is a live gauge and
// always restarts at zero.
func (c *Collector) Restore(snap Snapshot) {
	c.lobbiesCreated.Store(snap.LobbiesCreated)
	c.cardsPlayed.Store(snap.CardsPlayed)
	c.plus4sDealt.Store(snap.Plus4sDealt)
	c.botsUsed.Store(snap.BotsUsed)
	c.gamesPlayed.Store(snap.GamesPlayed)
}

// Current returns a snapshot of all counters.
func (c *Collector) Current() Snapshot {
	return Snapshot{
		LobbiesCreated: c.lobbiesCreated.Load(),
		LobbiesOnline:  c.lobbiesOnline.Load(),
		CardsPlayed:    c.cardsPlayed.Load(),
		Plus4sDealt:    c.plus4sDealt.Load(),
		BotsUsed:       c.botsUsed.Load(),
		GamesPlayed:    c.gamesPlayed.Load(),
	}
}

// RunFlusher periodically pushes snapshots to sink until ctx is cancelled,
// with one final flush on the way out. Flush failures are logged and
// retried on the next tick.
func (c *Collector) RunFlusher(ctx context.Context, sink Sink, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := sink.Flush(flushCtx, c.Current()); err != nil {
				logger.Warn("final stats flush failed", zap.Error(err))
			}
			cancel()
			return
		case <-ticker.C:
			if err := sink.Flush(ctx, c.Current()); err != nil {
				logger.Warn("stats flush failed", zap.Error(err))
			}
		}
	}
}
