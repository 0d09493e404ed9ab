package scripting

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

//go:embed scripts
var embedded embed.FS

// Engine wraps a single gopher-lua VM evaluating the economy curves.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine loads the built-in scripts, then any .lua files under
// scriptsDir/core, which may redefine the built-in functions.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadEmbedded(); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load core scripts: %w", err)
	}
	if scriptsDir != "" {
		if err := e.loadDir(filepath.Join(scriptsDir, "core")); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load script overrides: %w", err)
		}
	}
	return e, nil
}

func (e *Engine) loadEmbedded() error {
	entries, err := fs.ReadDir(embedded, "scripts/core")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".lua" {
			continue
		}
		name := path.Join("scripts/core", entry.Name())
		src, err := embedded.ReadFile(name)
		if err != nil {
			return err
		}
		if err := e.vm.DoString(string(src)); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", name))
	}
	return nil
}

// loadDir loads all .lua files in a directory in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		p := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", p))
	}
	return nil
}

// TradeGold is the gold each owner receives for a trade flight of dist tiles.
func (e *Engine) TradeGold(dist int) int64 {
	return nonNegative(e.callNumber("trade_gold", 0, float64(dist)))
}

// TradeSpawnRate is N in the 1-in-N chance an airport launches a trade plane.
func (e *Engine) TradeSpawnRate(totalAirports int) int {
	n := int(e.callNumber("trade_spawn_rate", 1, float64(totalAirports)))
	if n < 1 {
		return 1
	}
	return n
}

func (e *Engine) MaxTroops(tiles, cities int) int64 {
	return nonNegative(e.callNumber("max_troops", 0, float64(tiles), float64(cities)))
}

func (e *Engine) TroopIncrease(troops, maxTroops int64) int64 {
	return nonNegative(e.callNumber("troop_increase", 0, float64(troops), float64(maxTroops)))
}

func (e *Engine) GoldAddition(tiles int) int64 {
	return nonNegative(e.callNumber("gold_addition", 0, float64(tiles)))
}

// callNumber calls a global Lua function with numeric args and returns its
// numeric result, or fallback when the call fails.
func (e *Engine) callNumber(name string, fallback float64, args ...float64) float64 {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("name", name))
		return fallback
	}

	lArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lArgs[i] = lua.LNumber(a)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lArgs...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return fallback
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua function returned non-number", zap.String("func", name), zap.String("type", result.Type().String()))
		return fallback
	}
	return float64(n)
}

func nonNegative(v float64) int64 {
	if v < 0 {
		return 0
	}
	return int64(v)
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
