package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tilewars/server/internal/config"
	"github.com/tilewars/server/internal/world"
)

var ErrGameExists = errors.New("game already recorded")

type GameRow struct {
	ID         string
	Map        string
	Config     config.GameConfig
	StartedAt  time.Time
	FinishedAt *time.Time
	FinalTick  *int64
	Digest     string
}

// GameRepo stores game records: the config a game started with and every
// turn it executed, enough to replay it.
type GameRepo struct {
	db *DB
}

func NewGameRepo(db *DB) *GameRepo {
	return &GameRepo{db: db}
}

func (r *GameRepo) CreateGame(ctx context.Context, id string, cfg config.GameConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal game config: %w", err)
	}
	tag, err := r.db.Pool.Exec(ctx,
		`INSERT INTO games (id, map_name, config) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		id, cfg.Map, raw,
	)
	if err != nil {
		return fmt.Errorf("create game %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("create game %s: %w", id, ErrGameExists)
	}
	return nil
}

// LoadGame returns nil when no game has the id.
func (r *GameRepo) LoadGame(ctx context.Context, id string) (*GameRow, error) {
	row := &GameRow{}
	var raw []byte
	var digest *string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, map_name, config, started_at, finished_at, final_tick, digest
		 FROM games WHERE id = $1`, id,
	).Scan(&row.ID, &row.Map, &raw, &row.StartedAt, &row.FinishedAt, &row.FinalTick, &digest)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &row.Config); err != nil {
		return nil, fmt.Errorf("game %s config: %w", id, err)
	}
	if digest != nil {
		row.Digest = *digest
	}
	return row, nil
}

// AppendTurns writes a batch of executed turns in one transaction.
func (r *GameRepo) AppendTurns(ctx context.Context, gameID string, recs []TurnRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		for _, rec := range recs {
			payload, err := compressTurn(rec.Turn)
			if err != nil {
				return fmt.Errorf("encode turn %d: %w", rec.Turn.Number, err)
			}
			var digest *string
			if rec.Digest != "" {
				digest = &rec.Digest
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO game_turns (game_id, turn_number, tick, payload, digest)
				 VALUES ($1, $2, $3, $4, $5)`,
				gameID, rec.Turn.Number, int64(rec.Tick), payload, digest,
			); err != nil {
				return fmt.Errorf("insert turn %d: %w", rec.Turn.Number, err)
			}
		}
		return nil
	})
}

// LoadTurns returns every recorded turn of a game in turn order.
func (r *GameRepo) LoadTurns(ctx context.Context, gameID string) ([]TurnRecord, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT tick, payload, COALESCE(digest, '')
		 FROM game_turns WHERE game_id = $1 ORDER BY turn_number`, gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		var tick int64
		var payload []byte
		var rec TurnRecord
		if err := rows.Scan(&tick, &payload, &rec.Digest); err != nil {
			return nil, err
		}
		if rec.Turn, err = decompressTurn(payload); err != nil {
			return nil, fmt.Errorf("game %s tick %d: %w", gameID, tick, err)
		}
		rec.Tick = world.Tick(tick)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FinishGame stamps the final tick, digest and per-player stats.
func (r *GameRepo) FinishGame(ctx context.Context, gameID string, tick world.Tick, digest string, stats map[world.PlayerID]world.PlayerStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx,
		`UPDATE games SET finished_at = now(), final_tick = $2, digest = $3, stats = $4
		 WHERE id = $1`,
		gameID, int64(tick), digest, raw,
	)
	return err
}
