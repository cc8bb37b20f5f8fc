package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/uno-arena/uno-server-go/internal/stats"
)

// statsRowID keys the single server_stats row the counters are flushed
// into.
const statsRowID = 1

const statsSchema = `
CREATE TABLE IF NOT EXISTS server_stats (
	id              INT PRIMARY KEY,
	lobbies_created BIGINT NOT NULL,
	lobbies_online  BIGINT NOT NULL,
	cards_played    BIGINT NOT NULL,
	plus4s_dealt    BIGINT NOT NULL,
	bots_used       BIGINT NOT NULL,
	games_played    BIGINT NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
)`

// StatsRepository persists counter snapshots. It implements stats.Sink.
type StatsRepository struct {
	db *DB
}

// NewStatsRepository creates the repository.
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// EnsureSchema creates the server_stats table when missing.
func (r *StatsRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.pool.Exec(ctx, statsSchema); err != nil {
		return fmt.Errorf("create server_stats table: %w", err)
	}
	return nil
}

// Flush upserts the snapshot into the single stats row.
func (r *StatsRepository) Flush(ctx context.Context, snap stats.Snapshot) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO server_stats (
			id, lobbies_created, lobbies_online, cards_played,
			plus4s_dealt, bots_used, games_played, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			lobbies_created = EXCLUDED.lobbies_created,
			lobbies_online  = EXCLUDED.lobbies_online,
			cards_played    = EXCLUDED.cards_played,
			plus4s_dealt    = EXCLUDED.plus4s_dealt,
			bots_used       = EXCLUDED.bots_used,
			games_played    = EXCLUDED.games_played,
			updated_at      = EXCLUDED.updated_at
	`,
		statsRowID,
		snap.LobbiesCreated,
		snap.LobbiesOnline,
		snap.CardsPlayed,
		snap.Plus4sDealt,
		snap.BotsUsed,
		snap.GamesPlayed,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("flush stats snapshot: %w", err)
	}
	return nil
}

// Load reads the persisted snapshot, returning zero counters when the row
// does not exist yet.
func (r *StatsRepository) Load(ctx context.Context) (stats.Snapshot, error) {
	var snap stats.Snapshot
	err := r.db.pool.QueryRow(ctx, `
		SELECT lobbies_created, lobbies_online, cards_played,
		       plus4s_dealt, bots_used, games_played
		FROM server_stats WHERE id = $1
	`, statsRowID).Scan(
		&snap.LobbiesCreated,
		&snap.LobbiesOnline,
		&snap.CardsPlayed,
		&snap.Plus4sDealt,
		&snap.BotsUsed,
		&snap.GamesPlayed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats.Snapshot{}, nil
		}
		return stats.Snapshot{}, fmt.Errorf("load stats snapshot: %w", err)
	}
	return snap, nil
}
