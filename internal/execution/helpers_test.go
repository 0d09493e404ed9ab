package execution

import (
	"testing"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/config"
	"github.com/tilewars/server/internal/core/event"
	"github.com/tilewars/server/internal/data"
	"github.com/tilewars/server/internal/scripting"
	"github.com/tilewars/server/internal/world"
)

// fixedCurves pays no income and grows no troops, so balances only move
// when an execution moves them.
type fixedCurves struct{}

func (fixedCurves) TradeGold(dist int) int64                    { return int64(1000 * dist) }
func (fixedCurves) TradeSpawnRate(int) int                      { return 1 }
func (fixedCurves) MaxTroops(tiles, cities int) int64           { return 1_000_000 }
func (fixedCurves) TroopIncrease(troops, maxTroops int64) int64 { return 0 }
func (fixedCurves) GoldAddition(int) int64                      { return 0 }

type testOpts struct {
	mapName string
	curves  world.Curves
	tune    func(*config.GameConfig)
}

func newTestGame(t *testing.T, o testOpts) *world.Game {
	t.Helper()
	if o.mapName == "" {
		o.mapName = "plains"
	}
	maps, err := data.DefaultMapData()
	if err != nil {
		t.Fatalf("load maps: %v", err)
	}
	units, err := data.DefaultUnitTable()
	if err != nil {
		t.Fatalf("load units: %v", err)
	}
	if o.curves == nil {
		eng, err := scripting.NewEngine("", zap.NewNop())
		if err != nil {
			t.Fatalf("lua engine: %v", err)
		}
		t.Cleanup(eng.Close)
		o.curves = eng
	}
	gc := config.DefaultGame()
	gc.SpawnPhaseTicks = 0
	gc.NumBots = 0
	gc.DisableNations = true
	if o.tune != nil {
		o.tune(&gc)
	}
	md := maps.Get(o.mapName)
	if md == nil {
		t.Fatalf("map %s missing", o.mapName)
	}
	cfg := &world.Config{Game: gc, Units: units, Curves: o.curves}
	return world.NewGame(world.NewGameMap(md), cfg, md.Info.Nations, event.NewBus(), zap.NewNop())
}

func addHuman(t *testing.T, g *world.Game, id string) *world.Player {
	t.Helper()
	p, err := g.AddPlayer(world.PlayerInfo{ID: world.PlayerID(id), Name: id, Type: world.PlayerHuman, ClientID: world.ClientID("c-" + id)})
	if err != nil {
		t.Fatalf("AddPlayer(%s): %v", id, err)
	}
	return p
}

// claim conquers the land in a square of side 2r+1 around (x, y).
func claim(g *world.Game, p *world.Player, x, y, r int) {
	gm := g.Map()
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if gm.IsValidCoord(x+dx, y+dy) && gm.IsLand(gm.Ref(x+dx, y+dy)) {
				g.Conquer(p, gm.Ref(x+dx, y+dy))
			}
		}
	}
}

func ref(g *world.Game, x, y int) world.TileRef { return g.Map().Ref(x, y) }

func mustTick(t *testing.T, g *world.Game, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := g.ExecuteNextTick(); err != nil {
			t.Fatalf("tick %d: %v", g.Ticks(), err)
		}
	}
}

func ptr[T any](v T) *T { return &v }
