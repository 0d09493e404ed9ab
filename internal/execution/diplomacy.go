package execution

import (
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/core/event"
	"github.com/tilewars/server/internal/world"
)

// pair resolves the acting player and the other party of a diplomatic
// action, rejecting the execution when either is unknown or they are the
// same player.
func (b *base) pair(kind string, from, to world.PlayerID) (*world.Player, *world.Player, bool) {
	p, ok := b.player(kind, from)
	if !ok {
		return nil, nil, false
	}
	o, ok := b.player(kind, to)
	if !ok {
		return nil, nil, false
	}
	if p == o {
		b.reject(kind+": cannot target self", zap.String("player", string(from)))
		return nil, nil, false
	}
	return p, o, true
}

// AllianceRequestExecution asks another player for an alliance. A pending
// request in the opposite direction is accepted instead.
type AllianceRequestExecution struct {
	once
	requestor, recipient world.PlayerID
}

func NewAllianceRequestExecution(requestor, recipient world.PlayerID) *AllianceRequestExecution {
	return &AllianceRequestExecution{requestor: requestor, recipient: recipient}
}

func (e *AllianceRequestExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	defer e.stop()
	p, o, ok := e.pair("alliance request", e.requestor, e.recipient)
	if !ok {
		return
	}
	if p.CreateAllianceRequest(o) == nil {
		g.Log().Debug("alliance request: not allowed", zap.String("player", string(p.ID())), zap.String("recipient", string(o.ID())))
	}
}

// AllianceReplyExecution answers a pending alliance request.
type AllianceReplyExecution struct {
	once
	requestor, recipient world.PlayerID
	accept               bool
}

func NewAllianceReplyExecution(requestor, recipient world.PlayerID, accept bool) *AllianceReplyExecution {
	return &AllianceReplyExecution{requestor: requestor, recipient: recipient, accept: accept}
}

func (e *AllianceReplyExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	defer e.stop()
	requestor, recipient, ok := e.pair("alliance reply", e.requestor, e.recipient)
	if !ok {
		return
	}
	for _, r := range recipient.IncomingAllianceRequests() {
		if r.Requestor() != requestor {
			continue
		}
		if e.accept {
			r.Accept()
		} else {
			r.Reject()
		}
		return
	}
	g.Log().Warn("alliance reply: no pending request", zap.String("requestor", string(e.requestor)), zap.String("recipient", string(e.recipient)))
}

type BreakAllianceExecution struct {
	once
	playerID, other world.PlayerID
}

func NewBreakAllianceExecution(player, other world.PlayerID) *BreakAllianceExecution {
	return &BreakAllianceExecution{playerID: player, other: other}
}

func (e *BreakAllianceExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	defer e.stop()
	p, o, ok := e.pair("break alliance", e.playerID, e.other)
	if !ok {
		return
	}
	if !p.BreakAlliance(o) {
		g.Log().Warn("break alliance: not allied", zap.String("player", string(p.ID())), zap.String("other", string(o.ID())))
	}
}

type TargetPlayerExecution struct {
	once
	playerID, target world.PlayerID
}

func NewTargetPlayerExecution(player, target world.PlayerID) *TargetPlayerExecution {
	return &TargetPlayerExecution{playerID: player, target: target}
}

func (e *TargetPlayerExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	defer e.stop()
	p, o, ok := e.pair("target", e.playerID, e.target)
	if !ok {
		return
	}
	if !p.CanTarget(o) {
		g.Log().Warn("target: not allowed", zap.String("player", string(p.ID())), zap.String("target", string(o.ID())))
		return
	}
	p.Target(o)
}

// EmojiExecution sends an emoji to one player or, with world.AllPlayers,
// to everyone.
type EmojiExecution struct {
	once
	sender, recipient world.PlayerID
	emoji             int
}

func NewEmojiExecution(sender, recipient world.PlayerID, emoji int) *EmojiExecution {
	return &EmojiExecution{sender: sender, recipient: recipient, emoji: emoji}
}

func (e *EmojiExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	defer e.stop()
	p, ok := e.player("emoji", e.sender)
	if !ok {
		return
	}
	if e.recipient != world.AllPlayers && !g.HasPlayer(e.recipient) {
		g.Log().Warn("emoji: recipient not found", zap.String("player", string(p.ID())), zap.String("recipient", string(e.recipient)))
		return
	}
	if !p.CanSendEmoji(e.recipient) {
		g.Log().Debug("emoji: on cooldown", zap.String("player", string(p.ID())))
		return
	}
	p.SendEmoji(e.recipient, e.emoji)
}

// QuickChatExecution relays a canned chat message.
type QuickChatExecution struct {
	once
	sender, recipient world.PlayerID
	key               string
	vars              map[string]string
}

func NewQuickChatExecution(sender, recipient world.PlayerID, key string, vars map[string]string) *QuickChatExecution {
	return &QuickChatExecution{sender: sender, recipient: recipient, key: key, vars: vars}
}

func (e *QuickChatExecution) Init(g *world.Game, tick world.Tick) {
	e.g = g
	defer e.stop()
	if _, _, ok := e.pair("quick chat", e.sender, e.recipient); !ok {
		return
	}
	event.Emit(g.Bus(), world.QuickChatEvent{Tick: tick, Sender: e.sender, Recipient: e.recipient, Key: e.key, Variables: e.vars})
}

// DonateTroopsExecution gives troops to a friendly player. Nil troops
// donates a third of the army.
type DonateTroopsExecution struct {
	once
	sender, recipient world.PlayerID
	troops            *int64
}

func NewDonateTroopsExecution(sender, recipient world.PlayerID, troops *int64) *DonateTroopsExecution {
	return &DonateTroopsExecution{sender: sender, recipient: recipient, troops: troops}
}

func (e *DonateTroopsExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	defer e.stop()
	p, o, ok := e.pair("donate troops", e.sender, e.recipient)
	if !ok {
		return
	}
	n := p.Troops() / 3
	if e.troops != nil {
		n = min(*e.troops, p.Troops())
	}
	if n <= 0 || !p.DonateTroops(o, n) {
		g.Log().Warn("donate troops: not allowed", zap.String("player", string(p.ID())), zap.String("recipient", string(o.ID())))
	}
}

// DonateGoldExecution gives gold to a friendly player. Nil gold donates a
// third of the treasury.
type DonateGoldExecution struct {
	once
	sender, recipient world.PlayerID
	gold              *world.Gold
}

func NewDonateGoldExecution(sender, recipient world.PlayerID, gold *world.Gold) *DonateGoldExecution {
	return &DonateGoldExecution{sender: sender, recipient: recipient, gold: gold}
}

func (e *DonateGoldExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	defer e.stop()
	p, o, ok := e.pair("donate gold", e.sender, e.recipient)
	if !ok {
		return
	}
	amount := p.Gold().DivInt(3)
	if e.gold != nil {
		amount = e.gold.Min(p.Gold())
	}
	if amount.IsZero() || !p.DonateGold(o, amount) {
		g.Log().Warn("donate gold: not allowed", zap.String("player", string(p.ID())), zap.String("recipient", string(o.ID())))
	}
}

// SetTargetTroopRatioExecution sets the share of max troops a player keeps
// as soldiers.
type SetTargetTroopRatioExecution struct {
	once
	playerID world.PlayerID
	ratio    float64
}

func NewSetTargetTroopRatioExecution(player world.PlayerID, ratio float64) *SetTargetTroopRatioExecution {
	return &SetTargetTroopRatioExecution{playerID: player, ratio: ratio}
}

func (e *SetTargetTroopRatioExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	defer e.stop()
	p, ok := e.player("troop ratio", e.playerID)
	if !ok {
		return
	}
	if e.ratio < 0 || e.ratio > 1 {
		g.Log().Warn("troop ratio: out of range", zap.String("player", string(p.ID())), zap.Float64("ratio", e.ratio))
		return
	}
	p.SetTargetTroopRatio(e.ratio)
}

// EmbargoExecution starts or stops a permanent embargo.
type EmbargoExecution struct {
	once
	playerID, target world.PlayerID
	start            bool
}

func NewEmbargoExecution(player, target world.PlayerID, start bool) *EmbargoExecution {
	return &EmbargoExecution{playerID: player, target: target, start: start}
}

func (e *EmbargoExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	defer e.stop()
	p, o, ok := e.pair("embargo", e.playerID, e.target)
	if !ok {
		return
	}
	if e.start {
		p.AddEmbargo(o.ID(), false)
	} else {
		p.StopEmbargo(o.ID())
	}
}
