package persist

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/config"
	"github.com/tilewars/server/internal/world"
)

// openTestDB connects to the database named by TILEWARS_TEST_DSN, skipping
// the test when it is unset.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TILEWARS_TEST_DSN")
	if dsn == "" {
		t.Skip("TILEWARS_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cfg := config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxLifetime: time.Minute}
	db, err := NewDB(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(db.Close)
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	return db
}

func TestGameRepoRecordsTurns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewGameRepo(db)
	id := "test-" + time.Now().Format("20060102150405.000000000")
	t.Cleanup(func() { db.Pool.Exec(context.Background(), `DELETE FROM games WHERE id = $1`, id) })

	cfg := config.DefaultGame()
	if err := repo.CreateGame(ctx, id, cfg); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := repo.CreateGame(ctx, id, cfg); !errors.Is(err, ErrGameExists) {
		t.Fatalf("second CreateGame = %v, want ErrGameExists", err)
	}
	if err := repo.AppendTurns(ctx, id, sampleTurns()); err != nil {
		t.Fatalf("AppendTurns: %v", err)
	}
	turns, err := repo.LoadTurns(ctx, id)
	if err != nil {
		t.Fatalf("LoadTurns: %v", err)
	}
	if len(turns) != 3 || len(turns[1].Turn.Intents) != 2 || turns[2].Digest != "abc123" {
		t.Fatalf("turns = %+v", turns)
	}

	stats := map[world.PlayerID]world.PlayerStats{"p1": {TilesConquered: 12}}
	if err := repo.FinishGame(ctx, id, 3, "ff00", stats); err != nil {
		t.Fatalf("FinishGame: %v", err)
	}
	row, err := repo.LoadGame(ctx, id)
	if err != nil || row == nil {
		t.Fatalf("LoadGame: %v %v", row, err)
	}
	if row.Map != cfg.Map || row.FinalTick == nil || *row.FinalTick != 3 || row.Digest != "ff00" || row.FinishedAt == nil {
		t.Fatalf("game row = %+v", row)
	}
	if row.Config.SpawnPhaseTicks != cfg.SpawnPhaseTicks {
		t.Fatalf("config not preserved: %+v", row.Config)
	}
	if missing, err := repo.LoadGame(ctx, "no-such-game"); err != nil || missing != nil {
		t.Fatalf("missing game = %v, %v", missing, err)
	}
}
