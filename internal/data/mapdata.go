package data

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// Terrain classes stored per tile.
const (
	TerrainPlains byte = iota
	TerrainHighland
	TerrainMountain
	TerrainOcean
	TerrainLake
)

var terrainGlyphs = map[byte]byte{
	'.': TerrainPlains,
	',': TerrainHighland,
	'^': TerrainMountain,
	'~': TerrainOcean,
	'-': TerrainLake,
}

// NationInfo is a computer-controlled nation placed on a map.
type NationInfo struct {
	Name     string `yaml:"name"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
	Flag     string `yaml:"flag"`
	Strength int    `yaml:"strength"`
}

// MapInfo holds metadata for a single map, loaded from map_list.yaml.
type MapInfo struct {
	Name    string       `yaml:"name"`
	File    string       `yaml:"file"`
	Width   int          `yaml:"width"`
	Height  int          `yaml:"height"`
	Nations []NationInfo `yaml:"nations"`
}

// MapData is a fully loaded map. Terrain is row-major: Terrain[y*Width+x].
type MapData struct {
	Info    MapInfo
	Terrain []byte
}

// MapDataTable provides map lookups by name.
type MapDataTable struct {
	maps  map[string]*MapData
	names []string
}

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

// LoadMapData loads dir/map_list.yaml and the glyph files under dir/maps.
func LoadMapData(dir string) (*MapDataTable, error) {
	return loadMapData(os.DirFS(dir))
}

// DefaultMapData returns the maps compiled into the binary.
func DefaultMapData() (*MapDataTable, error) {
	return loadMapData(defaults())
}

func loadMapData(fsys fs.FS) (*MapDataTable, error) {
	raw, err := fs.ReadFile(fsys, "map_list.yaml")
	if err != nil {
		return nil, fmt.Errorf("read map list: %w", err)
	}
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}

	table := &MapDataTable{maps: make(map[string]*MapData, len(file.Maps))}
	for _, info := range file.Maps {
		if info.Width <= 0 || info.Height <= 0 {
			return nil, fmt.Errorf("map %s: invalid size %dx%d", info.Name, info.Width, info.Height)
		}
		src, err := fs.ReadFile(fsys, path.Join("maps", info.File))
		if err != nil {
			return nil, fmt.Errorf("map %s: %w", info.Name, err)
		}
		terrain, err := parseGlyphs(src, info.Width, info.Height)
		if err != nil {
			return nil, fmt.Errorf("map %s: %w", info.Name, err)
		}
		for _, n := range info.Nations {
			if n.X < 0 || n.X >= info.Width || n.Y < 0 || n.Y >= info.Height {
				return nil, fmt.Errorf("map %s: nation %s outside map", info.Name, n.Name)
			}
		}
		table.maps[info.Name] = &MapData{Info: info, Terrain: terrain}
		table.names = append(table.names, info.Name)
	}
	return table, nil
}

// parseGlyphs reads one text row per map row; '#' lines are comments.
func parseGlyphs(src []byte, width, height int) ([]byte, error) {
	terrain := make([]byte, width*height)
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	y := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if y >= height {
			return nil, fmt.Errorf("more than %d rows", height)
		}
		if len(line) != width {
			return nil, fmt.Errorf("row %d: width %d, want %d", y, len(line), width)
		}
		for x, g := range line {
			t, ok := terrainGlyphs[g]
			if !ok {
				return nil, fmt.Errorf("row %d col %d: unknown glyph %q", y, x, g)
			}
			terrain[y*width+x] = t
		}
		y++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if y != height {
		return nil, fmt.Errorf("%d rows, want %d", y, height)
	}
	return terrain, nil
}

// Get returns a loaded map or nil.
func (t *MapDataTable) Get(name string) *MapData {
	return t.maps[name]
}

// Names lists maps in file order.
func (t *MapDataTable) Names() []string {
	return append([]string(nil), t.names...)
}

// Count returns the number of maps loaded.
func (t *MapDataTable) Count() int {
	return len(t.maps)
}
