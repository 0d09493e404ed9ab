package data

import (
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// UnitInfo is one row of the unit catalogue.
type UnitInfo struct {
	Type              string  `yaml:"type"`
	Costs             []int64 `yaml:"costs"`
	MaxHealth         int     `yaml:"max_health"`
	ConstructionTicks int     `yaml:"construction_ticks"`
	TerritoryBound    bool    `yaml:"territory_bound"`
}

// Cost returns the price of the next unit for a player already owning owned
// units of this type.
func (u *UnitInfo) Cost(owned int) int64 {
	if len(u.Costs) == 0 {
		return 0
	}
	if owned < 0 {
		owned = 0
	}
	if owned >= len(u.Costs) {
		owned = len(u.Costs) - 1
	}
	return u.Costs[owned]
}

// UnitTable provides unit catalogue lookups by type name.
type UnitTable struct {
	units map[string]*UnitInfo
	order []string
}

type unitListFile struct {
	Units []UnitInfo `yaml:"units"`
}

// LoadUnitTable reads a unit catalogue YAML file.
func LoadUnitTable(path string) (*UnitTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit list %s: %w", path, err)
	}
	return ParseUnitTable(raw)
}

// DefaultUnitTable returns the catalogue compiled into the binary.
func DefaultUnitTable() (*UnitTable, error) {
	raw, err := fs.ReadFile(defaults(), "units.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded unit list: %w", err)
	}
	return ParseUnitTable(raw)
}

// ParseUnitTable decodes and validates a catalogue. Cost curves must be
// non-negative and non-decreasing.
func ParseUnitTable(raw []byte) (*UnitTable, error) {
	var file unitListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse unit list: %w", err)
	}
	t := &UnitTable{units: make(map[string]*UnitInfo, len(file.Units))}
	for i := range file.Units {
		u := file.Units[i]
		if u.Type == "" {
			return nil, fmt.Errorf("unit %d: missing type", i)
		}
		if _, dup := t.units[u.Type]; dup {
			return nil, fmt.Errorf("unit %s: duplicate entry", u.Type)
		}
		for j, c := range u.Costs {
			if c < 0 {
				return nil, fmt.Errorf("unit %s: negative cost at %d", u.Type, j)
			}
			if j > 0 && c < u.Costs[j-1] {
				return nil, fmt.Errorf("unit %s: cost curve decreases at %d", u.Type, j)
			}
		}
		if u.MaxHealth < 0 || u.ConstructionTicks < 0 {
			return nil, fmt.Errorf("unit %s: negative health or construction time", u.Type)
		}
		t.units[u.Type] = &u
		t.order = append(t.order, u.Type)
	}
	return t, nil
}

// Get returns the catalogue row for a type, or nil.
func (t *UnitTable) Get(typ string) *UnitInfo {
	return t.units[typ]
}

// Types lists catalogue types in file order.
func (t *UnitTable) Types() []string {
	return append([]string(nil), t.order...)
}

func (t *UnitTable) Count() int {
	return len(t.units)
}
