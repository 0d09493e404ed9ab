package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/config"
	"github.com/tilewars/server/internal/logging"
	"github.com/tilewars/server/internal/persist"
	"github.com/tilewars/server/internal/system"
)

func printUsage() {
	fmt.Println("Usage: replay <source> [flags]")
	fmt.Println()
	fmt.Println("Re-executes a recorded game and checks every stored digest.")
	fmt.Println()
	fmt.Println("Sources:")
	fmt.Println("  archive   Read turns from <archive.dir>/<game>.jsonl.zst")
	fmt.Println("  db        Read config and turns from PostgreSQL")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	src := os.Args[1]
	if src == "-h" || src == "--help" || src == "help" {
		printUsage()
		return
	}

	fs := flag.NewFlagSet(src, flag.ExitOnError)
	cfgPath := fs.String("config", "config/server.toml", "server config file")
	gameID := fs.String("game", "", "game id (default: server.game_id)")
	file := fs.String("file", "", "archive file (archive source only)")
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	if *gameID == "" {
		*gameID = cfg.Server.GameID
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var res *result
	switch src {
	case "archive":
		path := *file
		if path == "" {
			path = persist.ArchivePath(cfg.Archive.Dir, *gameID)
		}
		res, err = replayArchive(path, *gameID, cfg, log)
	case "db":
		res, err = replayDB(*gameID, cfg, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown source: %s\n\n", src)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Replayed %d turns to tick %d, %d digests checked\n", res.turns, res.tick, res.checked)
	fmt.Printf("Final digest %s\n", res.digest)
}

type result struct {
	turns   int
	checked int
	tick    int64
	digest  string
}

// errDigestMismatch marks a replay that diverged from the recording.
var errDigestMismatch = errors.New("digest mismatch")

// replayer steps a fresh match through recorded turns in order.
type replayer struct {
	boot *system.Boot
	res  result
}

func newReplayer(gameID string, game config.GameConfig, dc config.DataConfig, log *zap.Logger) (*replayer, error) {
	b, err := system.NewBoot(gameID, game, dc, log)
	if err != nil {
		return nil, err
	}
	return &replayer{boot: b}, nil
}

func (r *replayer) apply(rec persist.TurnRecord) error {
	m := r.boot.Match
	if got := m.Game.Ticks(); got != rec.Tick {
		return fmt.Errorf("turn %d recorded at tick %d, replay is at tick %d", rec.Turn.Number, rec.Tick, got)
	}
	turn := rec.Turn
	if err := m.Step(&turn); err != nil {
		return fmt.Errorf("turn %d: %w", turn.Number, err)
	}
	r.res.turns++
	if rec.Digest != "" {
		if got := m.Game.DigestHex(); got != rec.Digest {
			return fmt.Errorf("turn %d: %w: recorded %s, replayed %s", turn.Number, errDigestMismatch, rec.Digest, got)
		}
		r.res.checked++
	}
	return nil
}

func (r *replayer) finish() *result {
	g := r.boot.Match.Game
	r.res.tick = int64(g.Ticks())
	r.res.digest = g.DigestHex()
	r.boot.Close()
	return &r.res
}

// replayArchive uses the game config from the config file; the archive
// holds turns only.
func replayArchive(path, gameID string, cfg *config.Config, log *zap.Logger) (*result, error) {
	r, err := newReplayer(gameID, cfg.Game, cfg.Data, log)
	if err != nil {
		return nil, err
	}
	if err := persist.ReadTurnLog(path, r.apply); err != nil {
		r.finish()
		return nil, err
	}
	return r.finish(), nil
}

func replayDB(gameID string, cfg *config.Config, log *zap.Logger) (*result, error) {
	if cfg.Database.DSN == "" {
		return nil, errors.New("database.dsn is empty")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	repo := persist.NewGameRepo(db)

	row, err := repo.LoadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("game %s not recorded", gameID)
	}
	turns, err := repo.LoadTurns(ctx, gameID)
	if err != nil {
		return nil, err
	}

	r, err := newReplayer(gameID, row.Config, cfg.Data, log)
	if err != nil {
		return nil, err
	}
	for _, rec := range turns {
		if err := r.apply(rec); err != nil {
			r.finish()
			return nil, err
		}
	}
	res := r.finish()
	if row.Digest != "" && row.Digest != res.digest {
		return nil, fmt.Errorf("final %w: recorded %s, replayed %s", errDigestMismatch, row.Digest, res.digest)
	}
	return res, nil
}
