package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Game     GameConfig     `toml:"game"`
	Data     DataConfig     `toml:"data"`
	Database DatabaseConfig `toml:"database"`
	Network  NetworkConfig  `toml:"network"`
	Archive  ArchiveConfig  `toml:"archive"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Name      string        `toml:"name"`
	GameID    string        `toml:"game_id" env:"TILEWARS_GAME_ID"`
	TickRate  time.Duration `toml:"tick_rate" env:"TILEWARS_TICK_RATE"`
	MaxTicks  int           `toml:"max_ticks"` // 0 = run until signalled
	StartTime int64         // set at boot, not from config
}

// GameConfig holds simulation tunables. Every field feeds world.Config and
// is therefore part of the deterministic input of a game.
type GameConfig struct {
	Map             string `toml:"map" env:"TILEWARS_MAP"`
	NumBots         int    `toml:"num_bots" env:"TILEWARS_NUM_BOTS"`
	DisableNations  bool   `toml:"disable_nations"`
	Difficulty      string `toml:"difficulty"` // easy, medium, hard, impossible
	InstantBuild    bool   `toml:"instant_build"`
	InfiniteGold    bool   `toml:"infinite_gold"`
	SpawnPhaseTicks int    `toml:"spawn_phase_ticks"`
	SpawnRadius     int    `toml:"spawn_radius"`

	StartingTroops        int64   `toml:"starting_troops"`
	DefaultTroopRatio     float64 `toml:"default_troop_ratio"`
	AllianceRequestTTL    int     `toml:"alliance_request_ttl"`
	TraitorDuration       int     `toml:"traitor_duration"`
	TargetDuration        int     `toml:"target_duration"`
	EmojiCooldown         int     `toml:"emoji_cooldown"`
	DonateCooldown        int     `toml:"donate_cooldown"`
	TemporaryEmbargoTicks int     `toml:"temporary_embargo_ticks"`
	RelationDecayInterval int     `toml:"relation_decay_interval"`
	MaxBoats              int     `toml:"max_boats"`

	FactoryGoldPerTick    int64 `toml:"factory_gold_per_tick"`
	AirportCheckInterval  int   `toml:"airport_check_interval"`
	PlaneBombCooldown     int   `toml:"plane_bomb_cooldown"`
	RedAirCostPerPlane    int64 `toml:"red_air_cost_per_plane"`
	WarshipTargetingRange int   `toml:"warship_targeting_range"`
	WarshipShellRate      int   `toml:"warship_shell_rate"`
	WarshipPatrolRange    int   `toml:"warship_patrol_range"`
	WarPlaneHealPerTick   int   `toml:"war_plane_heal_per_tick"`
	ShellDamage           int   `toml:"shell_damage"`
	SiloCooldown          int   `toml:"silo_cooldown"`
	SAMCooldown           int   `toml:"sam_cooldown"`
	SAMRange              int   `toml:"sam_range"`
	NukeSpeed             int   `toml:"nuke_speed"`

	Nukes map[string]NukeMagnitude `toml:"nukes"`
}

// NukeMagnitude is the area of effect of one bomb type, in tiles.
type NukeMagnitude struct {
	Inner int `toml:"inner"`
	Outer int `toml:"outer"`
}

type DataConfig struct {
	Units      string `toml:"units"`       // empty = embedded catalogue
	Maps       string `toml:"maps"`        // empty = embedded map list
	ScriptsDir string `toml:"scripts_dir"` // optional Lua overrides
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn" env:"TILEWARS_DATABASE_DSN"` // empty disables the database
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type NetworkConfig struct {
	BindAddress       string        `toml:"bind_address" env:"TILEWARS_BIND_ADDRESS"`
	InQueueSize       int           `toml:"in_queue_size"`
	OutQueueSize      int           `toml:"out_queue_size"`
	MaxIntentsPerTick int           `toml:"max_intents_per_tick"`
	MaxMessageBytes   int64         `toml:"max_message_bytes"`
	WriteTimeout      time.Duration `toml:"write_timeout"`
	ReadTimeout       time.Duration `toml:"read_timeout"`
}

type ArchiveConfig struct {
	Dir           string `toml:"dir" env:"TILEWARS_ARCHIVE_DIR"` // empty disables the local turn log
	DigestEvery   int    `toml:"digest_every"`
	FlushInterval int    `toml:"flush_interval"` // turns between database writes
}

type LoggingConfig struct {
	Level      string `toml:"level" env:"TILEWARS_LOG_LEVEL"`
	Format     string `toml:"format"` // "json" or "console"
	File       string `toml:"file"`   // optional rotated JSON log
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Load reads a TOML file over the defaults, then applies TILEWARS_*
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

// Parse decodes TOML bytes over the defaults and applies the environment.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.GameID == "" {
		return fmt.Errorf("server.game_id must not be empty")
	}
	if c.Server.TickRate <= 0 {
		return fmt.Errorf("server.tick_rate must be positive")
	}
	if c.Game.SpawnPhaseTicks < 0 {
		return fmt.Errorf("game.spawn_phase_ticks must not be negative")
	}
	if c.Game.NumBots < 0 {
		return fmt.Errorf("game.num_bots must not be negative")
	}
	for name, m := range c.Game.Nukes {
		if m.Inner < 0 || m.Outer < m.Inner {
			return fmt.Errorf("game.nukes.%s: need 0 <= inner <= outer", name)
		}
	}
	return nil
}

// Defaults returns the built-in configuration. Tests start from it.
func Defaults() *Config { return defaults() }

// DefaultGame returns the built-in simulation tunables.
func DefaultGame() GameConfig { return defaults().Game }

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "tilewars",
			GameID:   "local",
			TickRate: 100 * time.Millisecond,
		},
		Game: GameConfig{
			Map:             "plains",
			NumBots:         20,
			Difficulty:      "medium",
			SpawnPhaseTicks: 100,
			SpawnRadius:     4,

			StartingTroops:        25_000,
			DefaultTroopRatio:     0.95,
			AllianceRequestTTL:    200,
			TraitorDuration:       300,
			TargetDuration:        100,
			EmojiCooldown:         50,
			DonateCooldown:        100,
			TemporaryEmbargoTicks: 600,
			RelationDecayInterval: 50,
			MaxBoats:              3,

			FactoryGoldPerTick:    500,
			AirportCheckInterval:  10,
			PlaneBombCooldown:     100,
			RedAirCostPerPlane:    750_000,
			WarshipTargetingRange: 130,
			WarshipShellRate:      20,
			WarshipPatrolRange:    100,
			WarPlaneHealPerTick:   1,
			ShellDamage:           250,
			SiloCooldown:          75,
			SAMCooldown:           75,
			SAMRange:              70,
			NukeSpeed:             6,

			Nukes: map[string]NukeMagnitude{
				"AtomBomb":     {Inner: 12, Outer: 30},
				"HydrogenBomb": {Inner: 80, Outer: 100},
				"PlaneBomb":    {Inner: 6, Outer: 12},
			},
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Network: NetworkConfig{
			BindAddress:       "0.0.0.0:3000",
			InQueueSize:       128,
			OutQueueSize:      256,
			MaxIntentsPerTick: 16,
			MaxMessageBytes:   64 << 10,
			WriteTimeout:      10 * time.Second,
			ReadTimeout:       60 * time.Second,
		},
		Archive: ArchiveConfig{
			Dir:           "data/archive",
			DigestEvery:   100,
			FlushInterval: 50,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  64,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
	}
}
