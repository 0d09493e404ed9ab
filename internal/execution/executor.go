package execution

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/intent"
	"github.com/tilewars/server/internal/world"
)

// Executor turns intents into executions for one game.
type Executor struct {
	g      *world.Game
	gameID string
	rnd    *prng.PseudoRandom
	log    *zap.Logger

	started bool
}

func NewExecutor(g *world.Game, gameID string, log *zap.Logger) *Executor {
	return &Executor{
		g:      g,
		gameID: gameID,
		// offset by one so the executor never shares a seed with a bot
		rnd: prng.New(prng.SimpleHash(gameID) + 1),
		log: log.Named("executor"),
	}
}

// CreateExecs maps a turn's intents to executions, preserving order.
func (x *Executor) CreateExecs(turn *intent.Turn) []world.Execution {
	out := make([]world.Execution, 0, len(turn.Intents))
	for _, in := range turn.Intents {
		out = append(out, x.CreateExec(in))
	}
	return out
}

// CreateExec maps one intent to its execution. Intents from unknown
// clients, or aimed at coordinates off the map, become no-ops. An intent
// type without a case here is a programming error.
func (x *Executor) CreateExec(in intent.Intent) world.Execution {
	p, ok := x.g.PlayerByClientID(in.Client())
	if !ok {
		x.log.Warn("intent from unknown client", zap.String("client", string(in.Client())), zap.String("kind", string(in.Kind())))
		return &NoOpExecution{}
	}
	id := p.ID()

	switch in := in.(type) {
	case *intent.Attack:
		return NewAttackExecution(in.Troops, id, in.TargetID)
	case *intent.CancelAttack:
		return NewRetreatExecution(id, in.AttackID)
	case *intent.CancelBoat:
		return NewBoatRetreatExecution(id, in.UnitID)
	case *intent.MoveWarship:
		return NewMoveWarshipExecution(id, in.UnitID, in.Tile)
	case *intent.MoveWarPlane:
		return NewMoveWarPlaneExecution(id, in.UnitID, in.Tile)
	case *intent.Spawn:
		t, ok := x.ref(in, in.X, in.Y)
		if !ok {
			return &NoOpExecution{}
		}
		return NewSpawnExecution(p.Info(), t, x.gameID)
	case *intent.Boat:
		dst, ok := x.ref(in, in.DstX, in.DstY)
		if !ok {
			return &NoOpExecution{}
		}
		var src *world.TileRef
		if in.SrcX != nil && in.SrcY != nil {
			t, ok := x.ref(in, *in.SrcX, *in.SrcY)
			if !ok {
				return &NoOpExecution{}
			}
			src = &t
		}
		return NewTransportShipExecution(id, in.TargetID, dst, in.Troops, src)
	case *intent.AllianceRequest:
		return NewAllianceRequestExecution(id, in.Recipient)
	case *intent.AllianceRequestReply:
		return NewAllianceReplyExecution(in.Requestor, id, in.Accept)
	case *intent.BreakAlliance:
		return NewBreakAllianceExecution(id, in.Recipient)
	case *intent.TargetPlayer:
		return NewTargetPlayerExecution(id, in.Target)
	case *intent.Emoji:
		return NewEmojiExecution(id, in.Recipient, in.Emoji)
	case *intent.DonateTroops:
		return NewDonateTroopsExecution(id, in.Recipient, in.Troops)
	case *intent.DonateGold:
		return NewDonateGoldExecution(id, in.Recipient, in.Gold)
	case *intent.TroopRatio:
		return NewSetTargetTroopRatioExecution(id, in.Ratio)
	case *intent.Embargo:
		return NewEmbargoExecution(id, in.TargetID, in.Action == intent.EmbargoStart)
	case *intent.RedAir:
		return NewRedAirExecution(id)
	case *intent.BuildUnit:
		t, ok := x.ref(in, in.X, in.Y)
		if !ok {
			return &NoOpExecution{}
		}
		return NewConstructionExecution(id, in.Unit, t)
	case *intent.QuickChat:
		return NewQuickChatExecution(id, in.Recipient, in.QuickChatKey, in.Variables)
	}
	world.Invariantf("no execution for intent %T", in)
	return nil
}

func (x *Executor) ref(in intent.Intent, cx, cy int) (world.TileRef, bool) {
	gm := x.g.Map()
	if !gm.IsValidCoord(cx, cy) {
		x.log.Warn("intent coordinates off the map",
			zap.String("client", string(in.Client())),
			zap.String("kind", string(in.Kind())),
			zap.Int("x", cx), zap.Int("y", cy))
		return 0, false
	}
	return gm.Ref(cx, cy), true
}

func (x *Executor) SpawnBots(n int) []world.Execution {
	return NewBotSpawner(x.g, x.gameID).SpawnBots(n)
}

// FakeHumanExecutions returns one scripted player per map nation.
func (x *Executor) FakeHumanExecutions() []world.Execution {
	var out []world.Execution
	for _, n := range x.g.Nations() {
		out = append(out, NewFakeHumanExecution(x.gameID, n))
	}
	return out
}

// Start schedules the game-wide executions: upkeep, bots and nations. It
// runs once; later calls do nothing.
func (x *Executor) Start() {
	if x.started {
		return
	}
	x.started = true
	cfg := x.g.Config().Game
	x.g.AddExecution(&UpkeepExecution{})
	x.g.AddExecution(x.SpawnBots(cfg.NumBots)...)
	if !cfg.DisableNations {
		x.g.AddExecution(x.FakeHumanExecutions()...)
	}
	x.log.Info("game started",
		zap.String("game", x.gameID),
		zap.Int("bots", cfg.NumBots),
		zap.Int("nations", len(x.g.Nations())))
}

// ProcessTurn admits the turn's joining clients and schedules its intents.
// A failed join is reported but does not hold back the turn's intents.
func (x *Executor) ProcessTurn(turn *intent.Turn) error {
	x.Start()
	var errs []error
	for _, j := range turn.Joins {
		if err := x.join(j); err != nil {
			errs = append(errs, fmt.Errorf("turn %d: %w", turn.Number, err))
		}
	}
	x.g.AddExecution(x.CreateExecs(turn)...)
	return errors.Join(errs...)
}

func (x *Executor) join(j intent.Join) error {
	if _, ok := x.g.PlayerByClientID(j.ClientID); ok {
		x.log.Debug("client already joined", zap.String("client", string(j.ClientID)))
		return nil
	}
	id := world.PlayerID(strconv.FormatInt(prng.SimpleHash(string(j.ClientID)), 36))
	for x.g.HasPlayer(id) {
		id = world.PlayerID(x.rnd.NextID())
	}
	_, err := x.g.AddPlayer(world.PlayerInfo{
		ID:       id,
		Name:     j.Name,
		Type:     world.PlayerHuman,
		ClientID: j.ClientID,
		Flag:     j.Flag,
	})
	if err != nil {
		return fmt.Errorf("join %s: %w", j.ClientID, err)
	}
	x.log.Info("player joined", zap.String("client", string(j.ClientID)), zap.String("player", string(id)))
	return nil
}
