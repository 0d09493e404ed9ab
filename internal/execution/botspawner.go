package execution

import (
	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/world"
)

const (
	botSpawnTries       = 10_000
	botMinSpawnDistance = 30
)

var (
	botNamePrefixes = []string{
		"Akkadian", "Avar", "Baltic", "Breton", "Coastal", "Dacian", "Frankish",
		"Gothic", "Hunnic", "Iberian", "Jute", "Lydian", "Median", "Nubian",
		"Pictish", "Saxon", "Scythian", "Thracian", "Vandal", "Zulu",
	}
	botNameSuffixes = []string{
		"Band", "Clan", "Confederacy", "Dominion", "Horde", "League", "March",
		"Order", "Republic", "Tribe",
	}
)

// BotSpawner places bot players on random unowned land, keeping them
// apart from each other.
type BotSpawner struct {
	g      *world.Game
	gameID string
	rnd    *prng.PseudoRandom
	spawns []world.TileRef
}

func NewBotSpawner(g *world.Game, gameID string) *BotSpawner {
	return &BotSpawner{g: g, gameID: gameID, rnd: prng.New(prng.SimpleHash(gameID))}
}

// SpawnBots returns up to n spawn executions; fewer when the map runs out
// of room.
func (s *BotSpawner) SpawnBots(n int) []world.Execution {
	var out []world.Execution
	for tries := 0; len(out) < n && tries < botSpawnTries; tries++ {
		t, ok := s.spawnTile()
		if !ok {
			continue
		}
		s.spawns = append(s.spawns, t)
		info := world.PlayerInfo{
			ID:   world.PlayerID(s.rnd.NextID()),
			Name: prng.Pick(s.rnd, botNamePrefixes) + " " + prng.Pick(s.rnd, botNameSuffixes),
			Type: world.PlayerBot,
		}
		out = append(out, NewSpawnExecution(info, t, s.gameID))
	}
	return out
}

func (s *BotSpawner) spawnTile() (world.TileRef, bool) {
	gm := s.g.Map()
	t := gm.Ref(s.rnd.NextInt(0, gm.Width()), s.rnd.NextInt(0, gm.Height()))
	if !gm.IsLand(t) || gm.HasOwner(t) {
		return 0, false
	}
	for _, o := range s.spawns {
		if gm.ManhattanDist(o, t) < botMinSpawnDistance {
			return 0, false
		}
	}
	return t, true
}
