package execution

import (
	"testing"

	"github.com/tilewars/server/internal/world"
)

func TestWarPlaneHoldsFireAfterBombing(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}, tune: freeGold})
	a, b := addHuman(t, g, "a"), addHuman(t, g, "b")
	claim(g, a, 10, 10, 2)
	claim(g, b, 20, 10, 2)
	build(t, a, world.Airport, ref(g, 10, 10))
	build(t, b, world.Airport, ref(g, 20, 10))
	plane := build(t, a, world.WarPlane, ref(g, 10, 10))
	enemy := build(t, b, world.WarPlane, ref(g, 20, 10))
	startDriver(g, plane)

	plane.TouchLastBomb(g.Ticks())
	cooldown := g.Config().Game.PlaneBombCooldown
	for i := 0; i < cooldown-1; i++ {
		mustTick(t, g, 1)
		if plane.TargetUnit() != 0 {
			t.Fatalf("plane targeted a unit %d ticks after bombing", i+1)
		}
	}
	mustTick(t, g, 2)
	if plane.TargetUnit() != enemy.ID() {
		t.Fatalf("reloaded plane target = %v, want %v", plane.TargetUnit(), enemy.ID())
	}
}

func TestReadyPlanesSkipsRecentBombers(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}, tune: freeGold})
	a := addHuman(t, g, "a")
	claim(g, a, 10, 10, 2)
	build(t, a, world.Airport, ref(g, 10, 10))
	fresh := build(t, a, world.WarPlane, ref(g, 10, 10))
	bomber := build(t, a, world.WarPlane, ref(g, 10, 10))
	bomber.TouchLastBomb(g.Ticks())

	ready := readyPlanes(g, a)
	if len(ready) != 1 || ready[0] != fresh {
		t.Fatalf("ready planes = %d, want only the fresh one", len(ready))
	}
}
