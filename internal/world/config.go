package world

import (
	"github.com/tilewars/server/internal/config"
	"github.com/tilewars/server/internal/data"
)

// Curves are the scripted economy formulas. The scripting engine provides
// the production implementation.
type Curves interface {
	TradeGold(dist int) int64
	TradeSpawnRate(totalAirports int) int
	MaxTroops(tiles, cities int) int64
	TroopIncrease(troops, maxTroops int64) int64
	GoldAddition(tiles int) int64
}

// Config is every lookup the simulation makes outside the world state.
type Config struct {
	Game   config.GameConfig
	Units  *data.UnitTable
	Curves Curves
}

var noUnit = &data.UnitInfo{}

// UnitInfo returns the catalogue row for t. Types missing from the
// catalogue are free, have no health and build instantly.
func (c *Config) UnitInfo(t UnitType) *data.UnitInfo {
	if u := c.Units.Get(string(t)); u != nil {
		return u
	}
	return noUnit
}

// UnitCost is the price of p's next unit of type t. It never decreases as
// p owns more units of that type.
func (c *Config) UnitCost(t UnitType, p *Player) Gold {
	if c.Game.InfiniteGold {
		return Gold{}
	}
	return GoldOf(c.UnitInfo(t).Cost(p.UnitsIncludingConstruction(t)))
}

// ConstructionTicks is how long t stays a Construction before completing.
func (c *Config) ConstructionTicks(t UnitType) int {
	if c.Game.InstantBuild {
		return 0
	}
	return c.UnitInfo(t).ConstructionTicks
}

func (c *Config) NukeMagnitude(t UnitType) config.NukeMagnitude {
	return c.Game.Nukes[string(t)]
}

func (c *Config) TradeGold(dist int) Gold { return GoldOf(c.Curves.TradeGold(dist)) }
