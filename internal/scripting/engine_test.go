package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestTradeGoldGrowsWithDistance(t *testing.T) {
	e := newTestEngine(t, "")
	prev := int64(-1)
	for _, d := range []int{0, 10, 50, 200, 1000} {
		g := e.TradeGold(d)
		if g <= prev {
			t.Fatalf("TradeGold(%d) = %d, not above %d", d, g, prev)
		}
		prev = g
	}
	if got := e.TradeGold(0); got != 10000 {
		t.Fatalf("TradeGold(0) = %d, want 10000", got)
	}
}

func TestTradeSpawnRateAtLeastOne(t *testing.T) {
	e := newTestEngine(t, "")
	for _, n := range []int{0, 1, 5, 50} {
		if r := e.TradeSpawnRate(n); r < 1 {
			t.Fatalf("TradeSpawnRate(%d) = %d", n, r)
		}
	}
}

func TestTroopIncreaseStopsAtMax(t *testing.T) {
	e := newTestEngine(t, "")
	max := e.MaxTroops(100, 0)
	if max <= 0 {
		t.Fatalf("MaxTroops = %d", max)
	}
	if got := e.TroopIncrease(max, max); got != 0 {
		t.Fatalf("increase at cap = %d", got)
	}
	if got := e.TroopIncrease(max-5, max); got > 5 {
		t.Fatalf("increase overshoots cap: %d", got)
	}
	if e.MaxTroops(100, 2) <= max {
		t.Fatal("cities should raise the troop cap")
	}
}

func TestOverrideDirectory(t *testing.T) {
	dir := t.TempDir()
	core := filepath.Join(dir, "core")
	if err := os.MkdirAll(core, 0o755); err != nil {
		t.Fatal(err)
	}
	src := "function gold_addition(tiles) return 7 end\n"
	if err := os.WriteFile(filepath.Join(core, "override.lua"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, dir)
	if got := e.GoldAddition(10_000); got != 7 {
		t.Fatalf("GoldAddition = %d, want override 7", got)
	}
}

func TestBrokenScriptFallsBack(t *testing.T) {
	dir := t.TempDir()
	core := filepath.Join(dir, "core")
	if err := os.MkdirAll(core, 0o755); err != nil {
		t.Fatal(err)
	}
	src := "function trade_spawn_rate(n) error('boom') end\n"
	if err := os.WriteFile(filepath.Join(core, "bad.lua"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, dir)
	if got := e.TradeSpawnRate(3); got != 1 {
		t.Fatalf("TradeSpawnRate fallback = %d, want 1", got)
	}
}
