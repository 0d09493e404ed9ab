// Package intent defines the closed set of player commands and the turns
// that carry them into the simulation.
package intent

import "github.com/tilewars/server/internal/world"

// Kind is the wire tag selecting an intent's variant.
type Kind string

const (
	KindAttack               Kind = "attack"
	KindCancelAttack         Kind = "cancel_attack"
	KindCancelBoat           Kind = "cancel_boat"
	KindMoveWarship          Kind = "move_warship"
	KindMoveWarPlane         Kind = "move_warplane"
	KindSpawn                Kind = "spawn"
	KindBoat                 Kind = "boat"
	KindAllianceRequest      Kind = "allianceRequest"
	KindAllianceRequestReply Kind = "allianceRequestReply"
	KindBreakAlliance        Kind = "breakAlliance"
	KindTargetPlayer         Kind = "targetPlayer"
	KindEmoji                Kind = "emoji"
	KindDonateTroops         Kind = "donate_troops"
	KindDonateGold           Kind = "donate_gold"
	KindTroopRatio           Kind = "troop_ratio"
	KindEmbargo              Kind = "embargo"
	KindRedAir               Kind = "red_air"
	KindBuildUnit            Kind = "build_unit"
	KindQuickChat            Kind = "quick_chat"
)

// Kinds lists every intent kind in wire order.
var Kinds = []Kind{
	KindAttack, KindCancelAttack, KindCancelBoat, KindMoveWarship, KindMoveWarPlane,
	KindSpawn, KindBoat, KindAllianceRequest, KindAllianceRequestReply, KindBreakAlliance,
	KindTargetPlayer, KindEmoji, KindDonateTroops, KindDonateGold, KindTroopRatio,
	KindEmbargo, KindRedAir, KindBuildUnit, KindQuickChat,
}

// Intent is one player command. The set is closed: only pointers to the
// structs below satisfy it, and each has a case in the executor.
type Intent interface {
	Kind() Kind
	Client() world.ClientID
	isIntent()
}

// Header carries the fields every intent shares.
type Header struct {
	ClientID world.ClientID `json:"clientID"`
}

func (h Header) Client() world.ClientID { return h.ClientID }
func (Header) isIntent()                {}

// Attack sends troops at a player, or at unowned land when TargetID is nil.
// A nil Troops uses the attacker's target troop ratio.
type Attack struct {
	Header
	TargetID *world.PlayerID `json:"targetID"`
	Troops   *int64          `json:"troops"`
}

type CancelAttack struct {
	Header
	AttackID world.AttackID `json:"attackID"`
}

type CancelBoat struct {
	Header
	UnitID world.UnitID `json:"unitID"`
}

type MoveWarship struct {
	Header
	UnitID world.UnitID  `json:"unitId"`
	Tile   world.TileRef `json:"tile"`
}

type MoveWarPlane struct {
	Header
	UnitID world.UnitID  `json:"unitId"`
	Tile   world.TileRef `json:"tile"`
}

type Spawn struct {
	Header
	X int `json:"x"`
	Y int `json:"y"`
}

// Boat ships troops across water. SrcX/SrcY pick the launch tile; nil lets
// the server choose the nearest shore.
type Boat struct {
	Header
	TargetID *world.PlayerID `json:"targetID"`
	Troops   int64           `json:"troops"`
	DstX     int             `json:"dstX"`
	DstY     int             `json:"dstY"`
	SrcX     *int            `json:"srcX"`
	SrcY     *int            `json:"srcY"`
}

type AllianceRequest struct {
	Header
	Recipient world.PlayerID `json:"recipient"`
}

type AllianceRequestReply struct {
	Header
	Requestor world.PlayerID `json:"requestor"`
	Accept    bool           `json:"accept"`
}

type BreakAlliance struct {
	Header
	Recipient world.PlayerID `json:"recipient"`
}

type TargetPlayer struct {
	Header
	Target world.PlayerID `json:"target"`
}

type Emoji struct {
	Header
	Recipient world.PlayerID `json:"recipient"`
	Emoji     int            `json:"emoji"`
}

// DonateTroops gives troops to an ally; nil Troops donates a third.
type DonateTroops struct {
	Header
	Recipient world.PlayerID `json:"recipient"`
	Troops    *int64         `json:"troops"`
}

// DonateGold gives gold to an ally; nil Gold donates a third.
type DonateGold struct {
	Header
	Recipient world.PlayerID `json:"recipient"`
	Gold      *world.Gold    `json:"gold"`
}

type TroopRatio struct {
	Header
	Ratio float64 `json:"ratio"`
}

// EmbargoAction is "start" or "stop".
type EmbargoAction string

const (
	EmbargoStart EmbargoAction = "start"
	EmbargoStop  EmbargoAction = "stop"
)

type Embargo struct {
	Header
	TargetID world.PlayerID `json:"targetID"`
	Action   EmbargoAction  `json:"action"`
}

type RedAir struct {
	Header
}

type BuildUnit struct {
	Header
	Unit world.UnitType `json:"unit"`
	X    int            `json:"x"`
	Y    int            `json:"y"`
}

type QuickChat struct {
	Header
	Recipient    world.PlayerID    `json:"recipient"`
	QuickChatKey string            `json:"quickChatKey"`
	Variables    map[string]string `json:"variables,omitempty"`
}

func (*Attack) Kind() Kind               { return KindAttack }
func (*CancelAttack) Kind() Kind         { return KindCancelAttack }
func (*CancelBoat) Kind() Kind           { return KindCancelBoat }
func (*MoveWarship) Kind() Kind          { return KindMoveWarship }
func (*MoveWarPlane) Kind() Kind         { return KindMoveWarPlane }
func (*Spawn) Kind() Kind                { return KindSpawn }
func (*Boat) Kind() Kind                 { return KindBoat }
func (*AllianceRequest) Kind() Kind      { return KindAllianceRequest }
func (*AllianceRequestReply) Kind() Kind { return KindAllianceRequestReply }
func (*BreakAlliance) Kind() Kind        { return KindBreakAlliance }
func (*TargetPlayer) Kind() Kind         { return KindTargetPlayer }
func (*Emoji) Kind() Kind                { return KindEmoji }
func (*DonateTroops) Kind() Kind         { return KindDonateTroops }
func (*DonateGold) Kind() Kind           { return KindDonateGold }
func (*TroopRatio) Kind() Kind           { return KindTroopRatio }
func (*Embargo) Kind() Kind              { return KindEmbargo }
func (*RedAir) Kind() Kind               { return KindRedAir }
func (*BuildUnit) Kind() Kind            { return KindBuildUnit }
func (*QuickChat) Kind() Kind            { return KindQuickChat }

// newOf returns a zero value of the struct for k, ready to unmarshal into.
func newOf(k Kind) (Intent, bool) {
	switch k {
	case KindAttack:
		return &Attack{}, true
	case KindCancelAttack:
		return &CancelAttack{}, true
	case KindCancelBoat:
		return &CancelBoat{}, true
	case KindMoveWarship:
		return &MoveWarship{}, true
	case KindMoveWarPlane:
		return &MoveWarPlane{}, true
	case KindSpawn:
		return &Spawn{}, true
	case KindBoat:
		return &Boat{}, true
	case KindAllianceRequest:
		return &AllianceRequest{}, true
	case KindAllianceRequestReply:
		return &AllianceRequestReply{}, true
	case KindBreakAlliance:
		return &BreakAlliance{}, true
	case KindTargetPlayer:
		return &TargetPlayer{}, true
	case KindEmoji:
		return &Emoji{}, true
	case KindDonateTroops:
		return &DonateTroops{}, true
	case KindDonateGold:
		return &DonateGold{}, true
	case KindTroopRatio:
		return &TroopRatio{}, true
	case KindEmbargo:
		return &Embargo{}, true
	case KindRedAir:
		return &RedAir{}, true
	case KindBuildUnit:
		return &BuildUnit{}, true
	case KindQuickChat:
		return &QuickChat{}, true
	}
	return nil, false
}

// Join admits a client as a human player at the start of a turn.
type Join struct {
	ClientID world.ClientID `json:"clientID"`
	Name     string         `json:"name"`
	Flag     string         `json:"flag,omitempty"`
}

// Turn is the ordered batch of intents for one tick. Order is significant.
type Turn struct {
	Number  int64    `json:"turnNumber"`
	Intents []Intent `json:"-"`
	Joins   []Join   `json:"joins,omitempty"`
}
