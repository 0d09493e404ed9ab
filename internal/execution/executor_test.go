package execution

import (
	"testing"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/config"
	"github.com/tilewars/server/internal/intent"
	"github.com/tilewars/server/internal/world"
)

func header(id string) intent.Header { return intent.Header{ClientID: world.ClientID("c-" + id)} }

// factoryScenario spawns two players through the executor, funds the first
// and, when build is set, orders four factories for it.
func factoryScenario(t *testing.T, build bool) (*world.Game, []world.Gold) {
	t.Helper()
	g := newTestGame(t, testOpts{curves: fixedCurves{}, tune: func(c *config.GameConfig) { c.SpawnPhaseTicks = 5 }})
	x := NewExecutor(g, "game-1", zap.NewNop())

	joins := &intent.Turn{
		Joins: []intent.Join{{ClientID: "c-a", Name: "a"}, {ClientID: "c-b", Name: "b"}},
	}
	if err := x.ProcessTurn(joins); err != nil {
		t.Fatalf("joins: %v", err)
	}
	spawns := &intent.Turn{Number: 1, Intents: []intent.Intent{
		&intent.Spawn{Header: header("a"), X: 10, Y: 10},
		&intent.Spawn{Header: header("b"), X: 40, Y: 40},
	}}
	mustTick(t, g, 1)
	if err := x.ProcessTurn(spawns); err != nil {
		t.Fatalf("spawns: %v", err)
	}
	mustTick(t, g, 6)

	a, ok := g.PlayerByClientID("c-a")
	if !ok || !a.IsAlive() {
		t.Fatal("player a did not spawn")
	}
	a.AddGold(world.GoldOf(5_000_000))

	var costs []world.Gold
	// all four stack on the spawn tile
	for i := 0; i < 4; i++ {
		costs = append(costs, a.Cost(world.Factory))
		turn := &intent.Turn{Number: int64(2 + i)}
		if build {
			turn.Intents = []intent.Intent{&intent.BuildUnit{Header: header("a"), Unit: world.Factory, X: 10, Y: 10}}
		}
		if err := x.ProcessTurn(turn); err != nil {
			t.Fatalf("turn %d: %v", turn.Number, err)
		}
		mustTick(t, g, 1)
	}
	costs = append(costs, a.Cost(world.Factory))
	return g, costs
}

func TestFactoryCostScenario(t *testing.T) {
	g, costs := factoryScenario(t, true)
	want := []int64{0, 250_000, 500_000, 1_000_000, 1_000_000}
	for i, w := range want {
		if !costs[i].Equal(world.GoldOf(w)) {
			t.Errorf("cost before factory #%d = %s, want %d", i+1, costs[i], w)
		}
	}
	a, _ := g.PlayerByClientID("c-a")
	if got := a.UnitsIncludingConstruction(world.Factory); got != 4 {
		t.Fatalf("factories incl. construction = %d, want 4", got)
	}
	if !a.Gold().Equal(world.GoldOf(5_000_000 - 1_750_000)) {
		t.Fatalf("gold after construction = %s", a.Gold())
	}

	control, _ := factoryScenario(t, false)
	b, _ := g.PlayerByClientID("c-b")
	cb, _ := control.PlayerByClientID("c-b")
	if !b.Gold().Equal(cb.Gold()) || b.Troops() != cb.Troops() || b.NumTilesOwned() != cb.NumTilesOwned() || len(b.Units()) != len(cb.Units()) {
		t.Fatalf("player b differs from control: gold %s/%s troops %d/%d tiles %d/%d",
			b.Gold(), cb.Gold(), b.Troops(), cb.Troops(), b.NumTilesOwned(), cb.NumTilesOwned())
	}
}

func TestFactoriesCompleteAndPay(t *testing.T) {
	g, _ := factoryScenario(t, true)
	a, _ := g.PlayerByClientID("c-a")
	mustTick(t, g, g.Config().ConstructionTicks(world.Factory)+1)
	if n := a.UnitCount(world.Factory); n != 4 {
		t.Fatalf("completed factories = %d, want 4", n)
	}
	before := a.Gold()
	mustTick(t, g, 10)
	want := before.Add(world.GoldOf(4 * 10 * g.Config().Game.FactoryGoldPerTick))
	if !a.Gold().Equal(want) {
		t.Fatalf("gold after 10 ticks = %s, want %s", a.Gold(), want)
	}
}

func TestUnknownClientYieldsNoOp(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}})
	x := NewExecutor(g, "g", zap.NewNop())
	ex := x.CreateExec(&intent.Attack{Header: header("ghost")})
	if _, ok := ex.(*NoOpExecution); !ok {
		t.Fatalf("got %T, want *NoOpExecution", ex)
	}
	g.AddExecution(ex)
	mustTick(t, g, 1)
	if ex.IsActive() {
		t.Fatal("no-op still active after init")
	}
}

func TestOffMapCoordinatesYieldNoOp(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}})
	addHuman(t, g, "a")
	x := NewExecutor(g, "g", zap.NewNop())
	for _, in := range []intent.Intent{
		&intent.BuildUnit{Header: header("a"), Unit: world.City, X: -1, Y: 3},
		&intent.Spawn{Header: header("a"), X: 500, Y: 3},
		&intent.Boat{Header: header("a"), DstX: 1, DstY: 1, SrcX: ptr(-4), SrcY: ptr(2)},
	} {
		if ex := x.CreateExec(in); ex == nil {
			t.Fatalf("%s: nil execution", in.Kind())
		} else if _, ok := ex.(*NoOpExecution); !ok {
			t.Fatalf("%s: got %T", in.Kind(), ex)
		}
	}
}

type rogueIntent struct{ intent.Header }

func (*rogueIntent) Kind() intent.Kind { return "rogue" }

func TestUnknownIntentIsInvariantViolation(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}})
	addHuman(t, g, "a")
	x := NewExecutor(g, "g", zap.NewNop())
	defer func() {
		r := recover()
		if _, ok := r.(*world.InvariantError); !ok {
			t.Fatalf("recovered %v, want *world.InvariantError", r)
		}
	}()
	x.CreateExec(&rogueIntent{Header: header("a")})
	t.Fatal("CreateExec returned for an unknown intent")
}

func TestEveryKindHasAnExecution(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}})
	addHuman(t, g, "a")
	addHuman(t, g, "b")
	x := NewExecutor(g, "g", zap.NewNop())
	turn := &intent.Turn{Intents: []intent.Intent{
		&intent.Attack{Header: header("a")},
		&intent.CancelAttack{Header: header("a")},
		&intent.CancelBoat{Header: header("a")},
		&intent.MoveWarship{Header: header("a")},
		&intent.MoveWarPlane{Header: header("a")},
		&intent.Spawn{Header: header("a"), X: 5, Y: 5},
		&intent.Boat{Header: header("a"), DstX: 5, DstY: 5},
		&intent.AllianceRequest{Header: header("a"), Recipient: "b"},
		&intent.AllianceRequestReply{Header: header("a"), Requestor: "b"},
		&intent.BreakAlliance{Header: header("a"), Recipient: "b"},
		&intent.TargetPlayer{Header: header("a"), Target: "b"},
		&intent.Emoji{Header: header("a"), Recipient: "b"},
		&intent.DonateTroops{Header: header("a"), Recipient: "b"},
		&intent.DonateGold{Header: header("a"), Recipient: "b"},
		&intent.TroopRatio{Header: header("a"), Ratio: 0.5},
		&intent.Embargo{Header: header("a"), TargetID: "b", Action: intent.EmbargoStart},
		&intent.RedAir{Header: header("a")},
		&intent.BuildUnit{Header: header("a"), Unit: world.City, X: 5, Y: 5},
		&intent.QuickChat{Header: header("a"), Recipient: "b", QuickChatKey: "greet.hello"},
	}}
	if len(turn.Intents) != len(intent.Kinds) {
		t.Fatalf("test covers %d kinds, have %d", len(turn.Intents), len(intent.Kinds))
	}
	execs := x.CreateExecs(turn)
	if len(execs) != len(turn.Intents) {
		t.Fatalf("got %d executions for %d intents", len(execs), len(turn.Intents))
	}
	for i, ex := range execs {
		if _, ok := ex.(*NoOpExecution); ok {
			t.Errorf("%s mapped to a no-op", turn.Intents[i].Kind())
		}
	}
	if _, ok := execs[0].(*AttackExecution); !ok {
		t.Errorf("first execution is %T", execs[0])
	}
	if _, ok := execs[len(execs)-1].(*QuickChatExecution); !ok {
		t.Errorf("last execution is %T", execs[len(execs)-1])
	}
	// a bad turn must not stop the game
	g.AddExecution(execs...)
	mustTick(t, g, 3)
}

func TestJoinsGetStablePlayerIDs(t *testing.T) {
	run := func() []world.PlayerID {
		g := newTestGame(t, testOpts{curves: fixedCurves{}})
		x := NewExecutor(g, "g", zap.NewNop())
		turn := &intent.Turn{Joins: []intent.Join{{ClientID: "c-a", Name: "a"}, {ClientID: "c-b", Name: "b"}, {ClientID: "c-a", Name: "again"}}}
		if err := x.ProcessTurn(turn); err != nil {
			t.Fatalf("ProcessTurn: %v", err)
		}
		var ids []world.PlayerID
		for _, p := range g.AllPlayers() {
			ids = append(ids, p.ID())
		}
		return ids
	}
	first, second := run(), run()
	if len(first) != 2 {
		t.Fatalf("players = %v, want 2 (duplicate join ignored)", first)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("ids differ between runs: %v vs %v", first, second)
		}
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() string {
		g := newTestGame(t, testOpts{tune: func(c *config.GameConfig) {
			c.SpawnPhaseTicks = 30
			c.NumBots = 6
			c.DisableNations = false
		}})
		x := NewExecutor(g, "replay", zap.NewNop())
		turn := &intent.Turn{Joins: []intent.Join{{ClientID: "c-h", Name: "h"}}}
		if err := x.ProcessTurn(turn); err != nil {
			t.Fatalf("ProcessTurn: %v", err)
		}
		mustTick(t, g, 1)
		spawn := &intent.Turn{Number: 1, Intents: []intent.Intent{&intent.Spawn{Header: header("h"), X: 40, Y: 25}}}
		if err := x.ProcessTurn(spawn); err != nil {
			t.Fatalf("ProcessTurn: %v", err)
		}
		for i := 0; i < 400; i++ {
			if err := x.ProcessTurn(&intent.Turn{Number: int64(2 + i)}); err != nil {
				t.Fatalf("ProcessTurn: %v", err)
			}
			mustTick(t, g, 1)
		}
		if len(g.Players()) < 2 {
			t.Fatalf("only %d players alive", len(g.Players()))
		}
		return g.DigestHex()
	}
	if a, b := run(), run(); a != b {
		t.Fatalf("digests differ: %s vs %s", a, b)
	}
}

func TestSeedsDifferBetweenExecutorAndBots(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}})
	x := NewExecutor(g, "seed", zap.NewNop())
	bots := NewBotSpawner(g, "seed")
	if x.rnd.NextID() == bots.rnd.NextID() {
		t.Fatal("executor and bot spawner share a seed")
	}
}
