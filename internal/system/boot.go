package system

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/config"
	"github.com/tilewars/server/internal/core/event"
	"github.com/tilewars/server/internal/data"
	"github.com/tilewars/server/internal/execution"
	"github.com/tilewars/server/internal/scripting"
	"github.com/tilewars/server/internal/world"
)

// Boot is everything loaded to start a match: data tables, the Lua curve
// engine and the match itself.
type Boot struct {
	Maps   *data.MapDataTable
	Units  *data.UnitTable
	Curves *scripting.Engine
	Match  *Match
}

// Close releases the Lua state.
func (b *Boot) Close() {
	if b.Curves != nil {
		b.Curves.Close()
	}
}

// NewBoot loads data and builds a fresh match for gameID from game.
// Two boots with equal inputs replay identically.
func NewBoot(gameID string, game config.GameConfig, dc config.DataConfig, log *zap.Logger) (*Boot, error) {
	maps, err := loadMaps(dc.Maps)
	if err != nil {
		return nil, fmt.Errorf("load maps: %w", err)
	}
	units, err := loadUnits(dc.Units)
	if err != nil {
		return nil, fmt.Errorf("load units: %w", err)
	}
	md := maps.Get(game.Map)
	if md == nil {
		return nil, fmt.Errorf("unknown map %q (have %v)", game.Map, maps.Names())
	}
	eng, err := scripting.NewEngine(dc.ScriptsDir, log)
	if err != nil {
		return nil, fmt.Errorf("scripting: %w", err)
	}

	cfg := &world.Config{Game: game, Units: units, Curves: eng}
	g := world.NewGame(world.NewGameMap(md), cfg, md.Info.Nations, event.NewBus(), log)
	x := execution.NewExecutor(g, gameID, log)
	return &Boot{
		Maps:   maps,
		Units:  units,
		Curves: eng,
		Match:  NewMatch(gameID, g, x, log),
	}, nil
}

func loadMaps(dir string) (*data.MapDataTable, error) {
	if dir == "" {
		return data.DefaultMapData()
	}
	return data.LoadMapData(dir)
}

func loadUnits(path string) (*data.UnitTable, error) {
	if path == "" {
		return data.DefaultUnitTable()
	}
	return data.LoadUnitTable(path)
}
