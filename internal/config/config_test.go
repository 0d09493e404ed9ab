package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[server]
game_id = "match-7"
tick_rate = "50ms"

[game]
num_bots = 3
instant_build = true

[game.nukes.AtomBomb]
inner = 5
outer = 10
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.GameID != "match-7" {
		t.Fatalf("game id = %q", cfg.Server.GameID)
	}
	if cfg.Server.TickRate != 50*time.Millisecond {
		t.Fatalf("tick rate = %s", cfg.Server.TickRate)
	}
	if cfg.Game.NumBots != 3 || !cfg.Game.InstantBuild {
		t.Fatalf("game section not applied: %+v", cfg.Game)
	}
	if got := cfg.Game.Nukes["AtomBomb"]; got.Inner != 5 || got.Outer != 10 {
		t.Fatalf("atom bomb magnitude = %+v", got)
	}
	// untouched defaults survive
	if cfg.Game.FactoryGoldPerTick != 500 {
		t.Fatalf("factory gold = %d", cfg.Game.FactoryGoldPerTick)
	}
	if _, ok := cfg.Game.Nukes["HydrogenBomb"]; !ok {
		t.Fatal("default hydrogen bomb magnitude lost")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("TILEWARS_GAME_ID", "from-env")
	t.Setenv("TILEWARS_NUM_BOTS", "11")
	cfg, err := Parse([]byte(`[server]
game_id = "from-file"`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.GameID != "from-env" {
		t.Fatalf("game id = %q, want from-env", cfg.Server.GameID)
	}
	if cfg.Game.NumBots != 11 {
		t.Fatalf("num bots = %d, want 11", cfg.Game.NumBots)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"empty game id": "[server]\ngame_id = \"\"",
		"negative bots": "[game]\nnum_bots = -1",
		"bad nuke":      "[game.nukes.AtomBomb]\ninner = 9\nouter = 3",
	}
	for name, src := range cases {
		if _, err := Parse([]byte(src)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadSetsStartTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte("[server]\nname = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.StartTime == 0 {
		t.Fatal("start time not set")
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "config", "server.toml"))
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse sample: %v", err)
	}
	if !reflect.DeepEqual(cfg, Defaults()) {
		t.Errorf("sample config drifted from defaults:\n got %+v\nwant %+v", cfg, Defaults())
	}
}
