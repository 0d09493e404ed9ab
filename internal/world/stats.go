package world

// PlayerStats accumulates per-player production and losses.
type PlayerStats struct {
	GoldWork        Gold             `json:"goldWork"`
	GoldTrade       Gold             `json:"goldTrade"`
	UnitsBuilt      map[UnitType]int `json:"unitsBuilt,omitempty"`
	UnitsLost       map[UnitType]int `json:"unitsLost,omitempty"`
	BombsLaunched   map[UnitType]int `json:"bombsLaunched,omitempty"`
	AttacksLaunched int              `json:"attacksLaunched"`
	TilesConquered  int              `json:"tilesConquered"`
}

// Stats is the resource-accounting sink.
type Stats struct {
	players map[PlayerID]*PlayerStats
}

func NewStats() *Stats {
	return &Stats{players: make(map[PlayerID]*PlayerStats)}
}

func (s *Stats) of(p PlayerID) *PlayerStats {
	ps := s.players[p]
	if ps == nil {
		ps = &PlayerStats{
			UnitsBuilt:    map[UnitType]int{},
			UnitsLost:     map[UnitType]int{},
			BombsLaunched: map[UnitType]int{},
		}
		s.players[p] = ps
	}
	return ps
}

func (s *Stats) GoldWork(p PlayerID, g Gold) {
	ps := s.of(p)
	ps.GoldWork = ps.GoldWork.Add(g)
}

func (s *Stats) GoldTrade(p PlayerID, g Gold) {
	ps := s.of(p)
	ps.GoldTrade = ps.GoldTrade.Add(g)
}

func (s *Stats) UnitBuilt(p PlayerID, t UnitType)    { s.of(p).UnitsBuilt[t]++ }
func (s *Stats) UnitLost(p PlayerID, t UnitType)     { s.of(p).UnitsLost[t]++ }
func (s *Stats) BombLaunched(p PlayerID, t UnitType) { s.of(p).BombsLaunched[t]++ }
func (s *Stats) AttackLaunched(p PlayerID)           { s.of(p).AttacksLaunched++ }
func (s *Stats) TileConquered(p PlayerID)            { s.of(p).TilesConquered++ }

// Player returns a copy of one player's counters.
func (s *Stats) Player(p PlayerID) PlayerStats {
	ps := s.of(p)
	cp := *ps
	cp.UnitsBuilt = copyCounts(ps.UnitsBuilt)
	cp.UnitsLost = copyCounts(ps.UnitsLost)
	cp.BombsLaunched = copyCounts(ps.BombsLaunched)
	return cp
}

// Snapshot copies every player's counters, e.g. for the game record.
func (s *Stats) Snapshot() map[PlayerID]PlayerStats {
	out := make(map[PlayerID]PlayerStats, len(s.players))
	for id := range s.players {
		out[id] = s.Player(id)
	}
	return out
}

func copyCounts(m map[UnitType]int) map[UnitType]int {
	out := make(map[UnitType]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
