package system

import (
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/execution"
	"github.com/tilewars/server/internal/intent"
	"github.com/tilewars/server/internal/persist"
	"github.com/tilewars/server/internal/world"
)

// Match is the state the systems share for one running game: the turn
// being assembled from client input and the turns already executed but
// not yet persisted.
type Match struct {
	ID       string
	Game     *world.Game
	Executor *execution.Executor

	pending  intent.Turn
	nextTurn int64
	executed []persist.TurnRecord
	halted   error

	log *zap.Logger
}

func NewMatch(id string, g *world.Game, x *execution.Executor, log *zap.Logger) *Match {
	return &Match{ID: id, Game: g, Executor: x, log: log}
}

func (m *Match) QueueJoin(j intent.Join) {
	m.pending.Joins = append(m.pending.Joins, j)
}

func (m *Match) QueueIntent(in intent.Intent) {
	m.pending.Intents = append(m.pending.Intents, in)
}

// TakeTurn closes the turn being assembled and numbers it.
func (m *Match) TakeTurn() *intent.Turn {
	t := m.pending
	t.Number = m.nextTurn
	m.nextTurn++
	m.pending = intent.Turn{}
	return &t
}

// Step runs one turn through the executor and advances the game one tick.
// An invariant violation halts the match; every later Step returns it.
func (m *Match) Step(turn *intent.Turn) error {
	if m.halted != nil {
		return m.halted
	}
	tick := m.Game.Ticks()
	joinErr, err := m.admit(turn)
	if joinErr != nil {
		m.log.Warn("turn admitted with errors", zap.Int64("turn", turn.Number), zap.Error(joinErr))
	}
	if err == nil {
		err = m.Game.ExecuteNextTick()
	}
	if err != nil {
		m.halted = err
		m.log.Error("game halted", zap.Int64("turn", turn.Number), zap.Int64("tick", int64(tick)), zap.Error(err))
		return err
	}
	m.executed = append(m.executed, persist.TurnRecord{Tick: tick, Turn: *turn})
	return nil
}

// admit hands the turn to the executor. An invariant violation raised
// while building its executions is returned as halt; other panics go on.
func (m *Match) admit(turn *intent.Turn) (joinErr, halt error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*world.InvariantError)
			if !ok {
				panic(r)
			}
			halt = ie
		}
	}()
	return m.Executor.ProcessTurn(turn), nil
}

// Halted returns the error that stopped the match, if any.
func (m *Match) Halted() error { return m.halted }

// stampDigest attaches the current world digest to the latest executed turn.
func (m *Match) stampDigest() string {
	d := m.Game.DigestHex()
	if n := len(m.executed); n > 0 {
		m.executed[n-1].Digest = d
	}
	return d
}

func (m *Match) drainExecuted() []persist.TurnRecord {
	out := m.executed
	m.executed = nil
	return out
}
