package execution

import (
	"testing"

	"github.com/tilewars/server/internal/config"
	"github.com/tilewars/server/internal/core/event"
	"github.com/tilewars/server/internal/world"
)

func TestRespawnMovesTerritoryWithoutElimination(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}, tune: func(c *config.GameConfig) { c.SpawnPhaseTicks = 50 }})
	var eliminated []world.PlayerID
	event.Subscribe(g.Bus(), func(e world.PlayerEliminatedEvent) { eliminated = append(eliminated, e.Player) })
	msgs := inbox(g)

	info := world.PlayerInfo{ID: "a", Name: "a", Type: world.PlayerHuman, ClientID: "c-a"}
	g.AddExecution(NewSpawnExecution(info, ref(g, 10, 10), "game"))
	mustTick(t, g, 2)
	p, ok := g.Player("a")
	if !ok || !p.OwnsTile(ref(g, 10, 10)) {
		t.Fatal("first spawn did not claim its tile")
	}

	g.AddExecution(NewSpawnExecution(info, ref(g, 40, 40), "game"))
	mustTick(t, g, 2)
	got := msgs()

	if len(eliminated) != 0 {
		t.Errorf("respawn eliminated %v", eliminated)
	}
	if hasMessage(got, "", "eliminated") {
		t.Error("respawn announced an elimination")
	}
	if p.OwnsTile(ref(g, 10, 10)) || !p.OwnsTile(ref(g, 40, 40)) {
		t.Error("territory did not move to the new spawn")
	}
	if !p.IsAlive() {
		t.Error("player is not alive after respawn")
	}
}
