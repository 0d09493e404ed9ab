package execution

import (
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/world"
)

// SpawnExecution places a player's starting territory. During the spawn
// phase a player may spawn again; the previous territory is released.
type SpawnExecution struct {
	base
	info   world.PlayerInfo
	tile   world.TileRef
	gameID string
}

func NewSpawnExecution(info world.PlayerInfo, tile world.TileRef, gameID string) *SpawnExecution {
	return &SpawnExecution{info: info, tile: tile, gameID: gameID}
}

func (e *SpawnExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	if !g.Map().IsValidRef(e.tile) || !g.Map().IsLand(e.tile) {
		e.reject("spawn: not a land tile", zap.String("player", string(e.info.ID)), zap.Uint32("tile", uint32(e.tile)))
	}
}

func (e *SpawnExecution) Tick(world.Tick) {
	g := e.game()
	e.stop()
	if !g.InSpawnPhase() {
		return
	}
	if owner := g.Owner(e.tile); owner != nil && owner.ID() != e.info.ID {
		g.Log().Warn("spawn: tile already owned", zap.String("player", string(e.info.ID)), zap.String("owner", string(owner.ID())))
		return
	}

	p, ok := g.Player(e.info.ID)
	if !ok {
		var err error
		if p, err = g.AddPlayer(e.info); err != nil {
			g.Log().Warn("spawn: add player", zap.Error(err))
			return
		}
	}
	first := !p.HasSpawned()
	g.ClearTerritory(p)
	for _, t := range spawnTiles(g, e.tile) {
		g.Conquer(p, t)
	}
	if !first {
		return
	}
	g.AddExecution(NewPlayerExecution(p.ID()))
	if p.Type() == world.PlayerBot {
		g.AddExecution(NewBotExecution(p.ID(), e.gameID))
	}
}

func (e *SpawnExecution) ActiveDuringSpawnPhase() bool { return true }

// spawnTiles are the unowned land tiles within the spawn radius of center.
func spawnTiles(g *world.Game, center world.TileRef) []world.TileRef {
	gm := g.Map()
	var out []world.TileRef
	for _, t := range gm.BFS(center, world.EuclDistFN(center, g.Config().Game.SpawnRadius)) {
		if gm.IsLand(t) && !gm.HasOwner(t) {
			out = append(out, t)
		}
	}
	return out
}
