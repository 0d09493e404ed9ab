package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/config"
	coresys "github.com/tilewars/server/internal/core/system"
	"github.com/tilewars/server/internal/logging"
	gonet "github.com/tilewars/server/internal/net"
	"github.com/tilewars/server/internal/persist"
	"github.com/tilewars/server/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName, gameID string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             tilewars  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(game: %s)\033[0m\n\n", serverName, gameID)
}

func printSection(title string) {
	lineLen := max(3, 46-len(title)-1)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(3, 42-len(label)-len(numStr))
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("TILEWARS_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.GameID)

	// 3. Data, scripts and the match
	printSection("data")
	boot, err := system.NewBoot(cfg.Server.GameID, cfg.Game, cfg.Data, log)
	if err != nil {
		return err
	}
	defer boot.Close()
	printStat("maps", boot.Maps.Count())
	printStat("unit types", boot.Units.Count())
	printOK(fmt.Sprintf("map %s loaded", cfg.Game.Map))
	fmt.Println()
	match := boot.Match

	// 4. Optional database record
	var recorder system.GameRecorder
	if cfg.Database.DSN != "" {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		repo := persist.NewGameRepo(db)
		if err := repo.CreateGame(ctx, cfg.Server.GameID, cfg.Game); err != nil {
			if errors.Is(err, persist.ErrGameExists) {
				return fmt.Errorf("game %s already recorded, pick another server.game_id", cfg.Server.GameID)
			}
			return err
		}
		recorder = repo
		fmt.Println()
	}

	// 5. Local turn archive
	var archive system.TurnWriter
	if cfg.Archive.Dir != "" {
		if err := os.MkdirAll(cfg.Archive.Dir, 0o755); err != nil {
			return fmt.Errorf("archive dir: %w", err)
		}
		turnLog, err := persist.OpenTurnLog(persist.ArchivePath(cfg.Archive.Dir, cfg.Server.GameID))
		if err != nil {
			return err
		}
		defer turnLog.Close()
		archive = turnLog
	}

	// 6. Network
	netServer := gonet.NewServer(cfg.Network, log)
	if err := netServer.Listen(); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	go func() {
		if err := netServer.Serve(); err != nil {
			log.Error("websocket server stopped", zap.Error(err))
		}
	}()

	// 7. Systems
	store := gonet.NewSessionStore()
	persistSys := system.NewPersistenceSystem(match, archive, recorder, cfg.Archive.FlushInterval, log)
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(netServer, store, match, cfg.Network.MaxIntentsPerTick, log))
	runner.Register(system.NewEventDispatchSystem(match.Game.Bus()))
	runner.Register(system.NewSimulationSystem(match))
	runner.Register(system.NewDigestSystem(match, cfg.Archive.DigestEvery, log))
	runner.Register(system.NewOutputSystem(match.Game, store, log))
	runner.Register(persistSys)
	runner.Register(system.NewCleanupSystem(store))

	// 8. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("listening on ws://%s/ws", netServer.Addr().String()))
	printReady(fmt.Sprintf("game loop running (tick: %s)", cfg.Server.TickRate))
	fmt.Println()

	stop := func(reason string) error {
		log.Info("stopping", zap.String("reason", reason), zap.Int64("tick", int64(match.Game.Ticks())))
		persistSys.Finish()
		store.ForEach(func(s *gonet.Session) { s.Close() })
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := netServer.Shutdown(ctx); err != nil {
			log.Warn("websocket shutdown", zap.Error(err))
		}
		log.Info("server stopped", zap.String("digest", match.Game.DigestHex()))
		return match.Halted()
	}

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Server.TickRate)
			if match.Halted() != nil {
				return stop("invariant violation")
			}
			if cfg.Server.MaxTicks > 0 && int(match.Game.Ticks()) >= cfg.Server.MaxTicks {
				return stop("tick limit reached")
			}
		case sig := <-shutdownCh:
			return stop(sig.String())
		}
	}
}
