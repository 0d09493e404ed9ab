package world

// Events published on the game's event bus. They carry only identifiers so
// subscribers never hold live world state.

// MessageEvent is a line of text for one player, or everyone when Player is
// empty.
type MessageEvent struct {
	Tick   Tick        `json:"tick"`
	Player PlayerID    `json:"player,omitempty"`
	Type   MessageType `json:"type"`
	Text   string      `json:"text"`
}

type EmojiEvent struct {
	Tick      Tick     `json:"tick"`
	Sender    PlayerID `json:"sender"`
	Recipient PlayerID `json:"recipient"`
	Emoji     int      `json:"emoji"`
}

type QuickChatEvent struct {
	Tick      Tick              `json:"tick"`
	Sender    PlayerID          `json:"sender"`
	Recipient PlayerID          `json:"recipient"`
	Key       string            `json:"key"`
	Variables map[string]string `json:"variables,omitempty"`
}

type AllianceEventKind string

const (
	AllianceRequested AllianceEventKind = "requested"
	AllianceAccepted  AllianceEventKind = "accepted"
	AllianceRejected  AllianceEventKind = "rejected"
	AllianceBroken    AllianceEventKind = "broken"
)

type AllianceEvent struct {
	Tick Tick              `json:"tick"`
	Kind AllianceEventKind `json:"kind"`
	From PlayerID          `json:"from"`
	To   PlayerID          `json:"to"`
}

type TargetEvent struct {
	Tick   Tick     `json:"tick"`
	Player PlayerID `json:"player"`
	Target PlayerID `json:"target"`
}

type UnitDestroyedEvent struct {
	Tick  Tick     `json:"tick"`
	Owner PlayerID `json:"owner"`
	Type  UnitType `json:"unitType"`
	Tile  TileRef  `json:"tile"`
}

type PlayerEliminatedEvent struct {
	Tick   Tick     `json:"tick"`
	Player PlayerID `json:"player"`
}
