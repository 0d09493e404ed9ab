package execution

import (
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/pathfind"
	"github.com/tilewars/server/internal/world"
)

const (
	shellSpeed   = 3
	shellMaxLife = 50
)

// ShellExecution flies a shell at a unit and damages it on impact. Units
// without health are destroyed outright.
type ShellExecution struct {
	base
	spawn    world.TileRef
	ownerID  world.PlayerID
	shooter  world.UnitID
	targetID world.UnitID

	shellID world.UnitID
	pf      *pathfind.PathFinder
	age     int
}

func NewShellExecution(spawn world.TileRef, owner world.PlayerID, shooter, target world.UnitID) *ShellExecution {
	return &ShellExecution{spawn: spawn, ownerID: owner, shooter: shooter, targetID: target}
}

func (e *ShellExecution) Init(g *world.Game, tick world.Tick) {
	e.g = g
	p, ok := e.player("shell", e.ownerID)
	if !ok {
		return
	}
	if _, ok := g.Unit(e.targetID); !ok {
		e.reject("shell: target not found", zap.Uint64("unit", uint64(e.targetID)))
		return
	}
	e.shellID = p.BuildUnit(world.Shell, e.spawn, world.WithTargetUnit(e.targetID)).ID()
	e.pf = pathfind.NewAir(g.Map(), prng.New(int64(tick)))
}

func (e *ShellExecution) Tick(world.Tick) {
	g := e.game()
	shell, ok := g.Unit(e.shellID)
	if !ok {
		e.stop()
		return
	}
	target, ok := g.Unit(e.targetID)
	e.age++
	if !ok || target.OwnerID() == e.ownerID || e.age > shellMaxLife {
		shell.Delete(false)
		e.stop()
		return
	}
	for i := 0; i < shellSpeed; i++ {
		next, st := e.pf.NextTile(shell.Tile(), target.Tile())
		if st == pathfind.Next {
			shell.Move(next)
			continue
		}
		if target.HasHealth() {
			target.ModifyHealth(-g.Config().Game.ShellDamage)
		} else {
			target.Delete(true)
		}
		shell.Delete(false)
		e.stop()
		return
	}
}
