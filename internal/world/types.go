package world

// Tick is the discrete simulation time unit.
type Tick int64

// PlayerID identifies a player for the lifetime of a game.
type PlayerID string

// ClientID identifies the connection a human player joined from.
type ClientID string

// AllPlayers is the emoji/chat recipient meaning everyone.
const AllPlayers PlayerID = "AllPlayers"

type PlayerType string

const (
	PlayerHuman     PlayerType = "HUMAN"
	PlayerBot       PlayerType = "BOT"
	PlayerFakeHuman PlayerType = "FAKEHUMAN"
)

// PlayerInfo is the identity a player is created from.
type PlayerInfo struct {
	ID       PlayerID   `json:"id"`
	Name     string     `json:"name"`
	Type     PlayerType `json:"type"`
	ClientID ClientID   `json:"clientID,omitempty"`
	Flag     string     `json:"flag,omitempty"`
	Team     string     `json:"team,omitempty"`
}

// Relation is the coarse diplomatic stance derived from a relation score.
type Relation int

const (
	Hostile Relation = iota
	Distrustful
	Neutral
	Friendly
)

func (r Relation) String() string {
	switch r {
	case Hostile:
		return "hostile"
	case Distrustful:
		return "distrustful"
	case Neutral:
		return "neutral"
	default:
		return "friendly"
	}
}

func relationFromScore(v int) Relation {
	switch {
	case v < -50:
		return Hostile
	case v < 0:
		return Distrustful
	case v < 50:
		return Neutral
	default:
		return Friendly
	}
}

type UnitType string

const (
	City          UnitType = "City"
	Port          UnitType = "Port"
	DefensePost   UnitType = "DefensePost"
	MissileSilo   UnitType = "MissileSilo"
	SAMLauncher   UnitType = "SAMLauncher"
	Factory       UnitType = "Factory"
	Airport       UnitType = "Airport"
	Warship       UnitType = "Warship"
	WarPlane      UnitType = "WarPlane"
	TransportShip UnitType = "TransportShip"
	TradePlane    UnitType = "TradePlane"
	Shell         UnitType = "Shell"
	AtomBomb      UnitType = "AtomBomb"
	HydrogenBomb  UnitType = "HydrogenBomb"
	PlaneBomb     UnitType = "PlaneBomb"
	Construction  UnitType = "Construction"
)

// UnitTypes lists every unit type in a fixed order.
var UnitTypes = []UnitType{
	City, Port, DefensePost, MissileSilo, SAMLauncher, Factory, Airport,
	Warship, WarPlane, TransportShip, TradePlane, Shell,
	AtomBomb, HydrogenBomb, PlaneBomb, Construction,
}

// StructureTypes are territory-bound buildings.
var StructureTypes = []UnitType{City, Port, DefensePost, MissileSilo, SAMLauncher, Factory, Airport}

func (t UnitType) IsStructure() bool {
	for _, s := range StructureTypes {
		if s == t {
			return true
		}
	}
	return false
}

func (t UnitType) IsNuke() bool {
	return t == AtomBomb || t == HydrogenBomb || t == PlaneBomb
}

func (t UnitType) Valid() bool {
	for _, u := range UnitTypes {
		if u == t {
			return true
		}
	}
	return false
}

type MessageType string

const (
	MessageInfo    MessageType = "info"
	MessageSuccess MessageType = "success"
	MessageWarn    MessageType = "warn"
	MessageError   MessageType = "error"
)
