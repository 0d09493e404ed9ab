package world

import (
	"testing"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/config"
	"github.com/tilewars/server/internal/core/event"
	"github.com/tilewars/server/internal/data"
	"github.com/tilewars/server/internal/scripting"
)

func newTestGame(t *testing.T, mapName string, tune func(*config.GameConfig)) *Game {
	t.Helper()
	maps, err := data.DefaultMapData()
	if err != nil {
		t.Fatalf("load maps: %v", err)
	}
	units, err := data.DefaultUnitTable()
	if err != nil {
		t.Fatalf("load units: %v", err)
	}
	curves, err := scripting.NewEngine("", zap.NewNop())
	if err != nil {
		t.Fatalf("lua engine: %v", err)
	}
	t.Cleanup(curves.Close)

	gc := config.DefaultGame()
	gc.SpawnPhaseTicks = 0
	if tune != nil {
		tune(&gc)
	}
	md := maps.Get(mapName)
	if md == nil {
		t.Fatalf("map %s missing", mapName)
	}
	cfg := &Config{Game: gc, Units: units, Curves: curves}
	return NewGame(NewGameMap(md), cfg, md.Info.Nations, event.NewBus(), zap.NewNop())
}

func addPlayer(t *testing.T, g *Game, id string) *Player {
	t.Helper()
	p, err := g.AddPlayer(PlayerInfo{ID: PlayerID(id), Name: id, Type: PlayerHuman, ClientID: ClientID("c-" + id)})
	if err != nil {
		t.Fatalf("AddPlayer(%s): %v", id, err)
	}
	return p
}

// claim conquers a filled square of side 2r+1 around (x, y).
func claim(g *Game, p *Player, x, y, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if g.Map().IsValidCoord(x+dx, y+dy) {
				t := g.Map().Ref(x+dx, y+dy)
				if g.Map().IsLand(t) {
					g.Conquer(p, t)
				}
			}
		}
	}
}

func mustTick(t *testing.T, g *Game, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := g.ExecuteNextTick(); err != nil {
			t.Fatalf("tick %d: %v", g.Ticks(), err)
		}
	}
}
