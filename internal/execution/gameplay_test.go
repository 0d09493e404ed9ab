package execution

import (
	"strings"
	"testing"

	"github.com/tilewars/server/internal/config"
	"github.com/tilewars/server/internal/core/event"
	"github.com/tilewars/server/internal/world"
)

// inbox collects the messages shown to players.
func inbox(g *world.Game) func() []world.MessageEvent {
	var got []world.MessageEvent
	event.Subscribe(g.Bus(), func(m world.MessageEvent) { got = append(got, m) })
	return func() []world.MessageEvent {
		g.Bus().SwapBuffers()
		g.Bus().DispatchAll()
		return got
	}
}

func hasMessage(msgs []world.MessageEvent, player world.PlayerID, substr string) bool {
	for _, m := range msgs {
		if m.Player == player && strings.Contains(m.Text, substr) {
			return true
		}
	}
	return false
}

func TestFactoryPaysCurrentOwner(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}, tune: freeGold})
	a, b := addHuman(t, g, "a"), addHuman(t, g, "b")
	claim(g, a, 10, 10, 2)
	claim(g, b, 20, 10, 2)
	f := build(t, a, world.Factory, ref(g, 10, 10))
	startDriver(g, f)
	read := inbox(g)

	mustTick(t, g, 3)
	per := world.GoldOf(g.Config().Game.FactoryGoldPerTick)
	if !a.Gold().Equal(per.MulInt(2)) {
		t.Fatalf("owner gold = %s, want two payouts of %s", a.Gold(), per)
	}

	g.Conquer(b, ref(g, 10, 10))
	if f.OwnerID() != b.ID() {
		t.Fatalf("factory owner = %s after capture", f.OwnerID())
	}
	mustTick(t, g, 2)
	if !b.Gold().Equal(per.MulInt(2)) {
		t.Fatalf("captor gold = %s, want %s", b.Gold(), per.MulInt(2))
	}
	if !a.Gold().Equal(per.MulInt(2)) {
		t.Fatalf("former owner still paid: %s", a.Gold())
	}
	if !hasMessage(read(), a.ID(), "captured") {
		t.Fatal("former owner not told of the capture")
	}
}

func TestConstructionCompletesAfterDelay(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}})
	a := addHuman(t, g, "a")
	claim(g, a, 10, 10, 2)
	a.AddGold(world.GoldOf(1_000_000))
	cost := a.Cost(world.City)

	g.AddExecution(NewConstructionExecution(a.ID(), world.City, ref(g, 10, 10)))
	mustTick(t, g, 1)
	if a.UnitCount(world.Construction) != 1 || a.UnitCount(world.City) != 0 {
		t.Fatalf("after start: constructions=%d cities=%d", a.UnitCount(world.Construction), a.UnitCount(world.City))
	}
	if !a.Gold().Equal(world.GoldOf(1_000_000).Sub(cost)) {
		t.Fatalf("gold = %s, want charged %s up front", a.Gold(), cost)
	}
	if got := a.Cost(world.City); got.Equal(cost) && !cost.IsZero() {
		t.Fatal("pending construction does not count towards the next price")
	}

	ticks := g.Config().ConstructionTicks(world.City)
	mustTick(t, g, ticks-1)
	if a.UnitCount(world.City) != 0 {
		t.Fatal("city finished early")
	}
	mustTick(t, g, 1)
	if a.UnitCount(world.City) != 1 || a.UnitCount(world.Construction) != 0 {
		t.Fatalf("after %d ticks: constructions=%d cities=%d", ticks, a.UnitCount(world.Construction), a.UnitCount(world.City))
	}
}

func TestConstructionRejectsForeignTile(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}, tune: freeGold})
	a, b := addHuman(t, g, "a"), addHuman(t, g, "b")
	claim(g, a, 10, 10, 2)
	claim(g, b, 20, 10, 2)
	ex := NewConstructionExecution(a.ID(), world.City, ref(g, 20, 10))
	g.AddExecution(ex)
	mustTick(t, g, 2)
	if ex.IsActive() || len(g.Units()) != 0 {
		t.Fatalf("foreign build went ahead: active=%v units=%d", ex.IsActive(), len(g.Units()))
	}
}

func TestInstantBuildSkipsConstruction(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}, tune: func(c *config.GameConfig) {
		c.InstantBuild = true
		c.InfiniteGold = true
	}})
	a := addHuman(t, g, "a")
	claim(g, a, 10, 10, 2)
	g.AddExecution(NewConstructionExecution(a.ID(), world.DefensePost, ref(g, 10, 10)))
	mustTick(t, g, 1)
	if a.UnitCount(world.DefensePost) != 1 {
		t.Fatal("instant build did not place the defense post")
	}
}

func TestAttackTakesUnownedLand(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}})
	a := addHuman(t, g, "a")
	claim(g, a, 40, 25, 2)
	a.AddTroops(50_000)
	before := a.NumTilesOwned()
	g.AddExecution(NewAttackExecution(ptr(int64(20_000)), a.ID(), nil))
	mustTick(t, g, 40)
	if a.NumTilesOwned() <= before {
		t.Fatalf("tiles %d, want more than %d", a.NumTilesOwned(), before)
	}
}

func TestAttackOnFriendRejected(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}})
	a, b := addHuman(t, g, "a"), addHuman(t, g, "b")
	claim(g, a, 10, 10, 2)
	claim(g, b, 15, 10, 2)
	a.CreateAllianceRequest(b)
	b.CreateAllianceRequest(a)
	a.AddTroops(10_000)
	bid := b.ID()
	ex := NewAttackExecution(ptr(int64(5_000)), a.ID(), &bid)
	g.AddExecution(ex)
	mustTick(t, g, 1)
	if ex.IsActive() || len(a.OutgoingAttacks()) != 0 {
		t.Fatal("attack on an ally went ahead")
	}
}

func TestTradePlanePaysBothOwners(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}, tune: freeGold})
	a, b := addHuman(t, g, "a"), addHuman(t, g, "b")
	claim(g, a, 10, 10, 2)
	claim(g, b, 30, 10, 2)
	src := build(t, a, world.Airport, ref(g, 10, 10))
	dst := build(t, b, world.Airport, ref(g, 30, 10))

	g.AddExecution(NewTradePlaneExecution(a.ID(), src.ID(), dst.ID()))
	mustTick(t, g, 40)
	want := world.GoldOf(fixedCurves{}.TradeGold(20))
	if !a.Gold().Equal(want) || !b.Gold().Equal(want) {
		t.Fatalf("gold a=%s b=%s, want %s each", a.Gold(), b.Gold(), want)
	}
	if len(g.Units(world.TradePlane)) != 0 {
		t.Fatal("trade plane still flying")
	}
}

func TestEmbargoGroundsTradePlane(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}, tune: freeGold})
	a, b := addHuman(t, g, "a"), addHuman(t, g, "b")
	claim(g, a, 10, 10, 2)
	claim(g, b, 60, 40, 2)
	src := build(t, a, world.Airport, ref(g, 10, 10))
	dst := build(t, b, world.Airport, ref(g, 60, 40))
	g.AddExecution(NewTradePlaneExecution(a.ID(), src.ID(), dst.ID()))
	mustTick(t, g, 3)

	g.AddExecution(NewEmbargoExecution(b.ID(), a.ID(), true))
	mustTick(t, g, 80)
	if !a.Gold().IsZero() || !b.Gold().IsZero() {
		t.Fatalf("trade paid through an embargo: a=%s b=%s", a.Gold(), b.Gold())
	}
	if !b.HasEmbargoAgainst(a) {
		t.Fatal("embargo not recorded")
	}

	g.AddExecution(NewEmbargoExecution(b.ID(), a.ID(), false))
	mustTick(t, g, 1)
	if !a.CanTrade(b) {
		t.Fatal("embargo not lifted")
	}
}

func TestAllianceAndDonations(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}})
	a, b := addHuman(t, g, "a"), addHuman(t, g, "b")
	claim(g, a, 10, 10, 2)
	claim(g, b, 20, 10, 2)
	a.AddTroops(9_000)
	a.AddGold(world.GoldOf(3_000))

	// donations need friendship
	g.AddExecution(NewDonateGoldExecution(a.ID(), b.ID(), nil))
	mustTick(t, g, 1)
	if !b.Gold().IsZero() {
		t.Fatal("donated to a stranger")
	}

	g.AddExecution(NewAllianceRequestExecution(a.ID(), b.ID()))
	mustTick(t, g, 1)
	g.AddExecution(NewAllianceReplyExecution(a.ID(), b.ID(), true))
	mustTick(t, g, 1)
	if !a.IsAlliedWith(b) {
		t.Fatal("alliance not formed")
	}

	troops := a.Troops()
	g.AddExecution(NewDonateTroopsExecution(a.ID(), b.ID(), nil))
	mustTick(t, g, 1)
	if got := a.Troops(); got != troops-troops/3 {
		t.Fatalf("donor troops = %d, want %d", got, troops-troops/3)
	}

	mustTick(t, g, g.Config().Game.DonateCooldown)
	g.AddExecution(NewDonateGoldExecution(a.ID(), b.ID(), ptr(world.GoldOf(500))))
	mustTick(t, g, 1)
	if !b.Gold().Equal(world.GoldOf(500)) || !a.Gold().Equal(world.GoldOf(2_500)) {
		t.Fatalf("gold a=%s b=%s after donating 500", a.Gold(), b.Gold())
	}

	g.AddExecution(NewBreakAllianceExecution(a.ID(), b.ID()))
	mustTick(t, g, 1)
	if a.IsAlliedWith(b) || !a.IsTraitor() {
		t.Fatalf("after break: allied=%v traitor=%v", a.IsAlliedWith(b), a.IsTraitor())
	}
}

func TestTroopRatioBounds(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}})
	a := addHuman(t, g, "a")
	g.AddExecution(NewSetTargetTroopRatioExecution(a.ID(), 0.25))
	mustTick(t, g, 1)
	if a.TargetTroopRatio() != 0.25 {
		t.Fatalf("ratio = %v", a.TargetTroopRatio())
	}
	g.AddExecution(NewSetTargetTroopRatioExecution(a.ID(), 1.5))
	mustTick(t, g, 1)
	if a.TargetTroopRatio() != 0.25 {
		t.Fatalf("out of range ratio applied: %v", a.TargetTroopRatio())
	}
}

func TestNukeClearsTarget(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}, tune: freeGold})
	a, b := addHuman(t, g, "a"), addHuman(t, g, "b")
	claim(g, a, 10, 10, 2)
	claim(g, b, 40, 25, 4)
	build(t, a, world.MissileSilo, ref(g, 10, 10))
	city := build(t, b, world.City, ref(g, 40, 25))
	read := inbox(g)

	g.AddExecution(NewNukeExecution(world.AtomBomb, a.ID(), ref(g, 40, 25), nil))
	mustTick(t, g, 1)
	if len(g.Units(world.AtomBomb)) != 1 {
		t.Fatal("bomb not launched")
	}
	if b.Relation(a) >= world.Neutral {
		t.Fatalf("target relation = %v after launch", b.Relation(a))
	}
	if !hasMessage(read(), b.ID(), "launched") {
		t.Fatal("target not warned")
	}
	mustTick(t, g, 20)
	if b.IsAlive() {
		t.Fatalf("target still holds %d tiles", b.NumTilesOwned())
	}
	if _, ok := g.Unit(city.ID()); ok {
		t.Fatal("city survived")
	}
	if len(g.Units(world.AtomBomb)) != 0 {
		t.Fatal("bomb still flying")
	}
	if a.NumTilesOwned() == 0 {
		t.Fatal("launcher hit itself")
	}
}

func TestSiloCooldownBlocksSecondLaunch(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}, tune: freeGold})
	a, b := addHuman(t, g, "a"), addHuman(t, g, "b")
	claim(g, a, 10, 10, 2)
	claim(g, b, 40, 25, 2)
	build(t, a, world.MissileSilo, ref(g, 10, 10))
	first := NewNukeExecution(world.AtomBomb, a.ID(), ref(g, 40, 25), nil)
	second := NewNukeExecution(world.AtomBomb, a.ID(), ref(g, 40, 25), nil)
	g.AddExecution(first, second)
	mustTick(t, g, 1)
	if !first.IsActive() || second.IsActive() {
		t.Fatalf("active first=%v second=%v, want only the first", first.IsActive(), second.IsActive())
	}
}

func TestSAMInterceptsBomb(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}, tune: freeGold})
	a, b := addHuman(t, g, "a"), addHuman(t, g, "b")
	claim(g, a, 10, 10, 2)
	claim(g, b, 60, 40, 3)
	build(t, a, world.MissileSilo, ref(g, 10, 10))
	sam := build(t, b, world.SAMLauncher, ref(g, 60, 40))
	startDriver(g, sam)

	g.AddExecution(NewNukeExecution(world.AtomBomb, a.ID(), ref(g, 60, 40), nil))
	mustTick(t, g, 40)
	if !b.IsAlive() {
		t.Fatal("defended player was wiped out")
	}
	if !sam.InCooldown(g.Ticks(), g.Config().Game.SAMCooldown) {
		t.Fatal("sam did not fire")
	}
}

func TestRedAirRejections(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}, tune: freeGold})
	a := addHuman(t, g, "a")
	bot, err := g.AddPlayer(world.PlayerInfo{ID: "bot", Name: "bot", Type: world.PlayerBot})
	if err != nil {
		t.Fatal(err)
	}
	claim(g, a, 10, 10, 2)
	claim(g, bot, 40, 25, 2)

	for _, id := range []world.PlayerID{bot.ID(), a.ID()} {
		ex := NewRedAirExecution(id)
		g.AddExecution(ex)
		mustTick(t, g, 1)
		if ex.IsActive() {
			t.Fatalf("red air for %s went ahead", id)
		}
	}
}

func TestRedAirSalvo(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}})
	a, b := addHuman(t, g, "a"), addHuman(t, g, "b")
	claim(g, a, 10, 10, 3)
	claim(g, b, 40, 25, 4)
	a.AddGold(world.GoldOf(100_000_000))
	b.AddGold(world.GoldOf(100_000_000))
	build(t, a, world.Airport, ref(g, 10, 10))
	for i := 0; i < 2; i++ {
		startDriver(g, build(t, a, world.WarPlane, ref(g, 10, 10)))
	}
	city := build(t, b, world.City, ref(g, 40, 25))
	a.Target(b)

	gold := a.Gold()
	g.AddExecution(NewRedAirExecution(a.ID()))
	mustTick(t, g, 1)
	paid := gold.Sub(a.Gold())
	if want := world.GoldOf(2 * g.Config().Game.RedAirCostPerPlane); !paid.Equal(want) {
		t.Fatalf("salvo cost %s, want %s", paid, want)
	}
	mustTick(t, g, 60)
	if _, ok := g.Unit(city.ID()); ok {
		t.Fatal("city survived the salvo")
	}
	if !a.Gold().Equal(gold.Sub(paid)) {
		t.Fatalf("bombs charged again: gold %s", a.Gold())
	}
}

func TestQuickChatReachesRecipient(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}})
	a, b := addHuman(t, g, "a"), addHuman(t, g, "b")
	var got []world.QuickChatEvent
	event.Subscribe(g.Bus(), func(e world.QuickChatEvent) { got = append(got, e) })
	g.AddExecution(NewQuickChatExecution(a.ID(), b.ID(), "greet.hello", map[string]string{"name": "b"}))
	mustTick(t, g, 1)
	g.Bus().SwapBuffers()
	g.Bus().DispatchAll()
	if len(got) != 1 || got[0].Recipient != b.ID() || got[0].Key != "greet.hello" {
		t.Fatalf("quick chat events = %+v", got)
	}
}

func TestRedAirRefundsRedirectedSortie(t *testing.T) {
	g := newTestGame(t, testOpts{curves: fixedCurves{}})
	a, b := addHuman(t, g, "a"), addHuman(t, g, "b")
	claim(g, a, 10, 10, 3)
	claim(g, b, 40, 25, 4)
	a.AddGold(world.GoldOf(100_000_000))
	b.AddGold(world.GoldOf(100_000_000))
	build(t, a, world.Airport, ref(g, 10, 10))
	plane := build(t, a, world.WarPlane, ref(g, 10, 10))
	startDriver(g, plane)
	build(t, b, world.City, ref(g, 40, 25))
	a.Target(b)

	gold := a.Gold()
	salvo := NewRedAirExecution(a.ID())
	g.AddExecution(salvo)
	mustTick(t, g, 1)
	if want := gold.Sub(world.GoldOf(g.Config().Game.RedAirCostPerPlane)); !a.Gold().Equal(want) {
		t.Fatalf("gold after launch %s, want %s", a.Gold(), want)
	}

	g.AddExecution(NewMoveWarPlaneExecution(a.ID(), plane.ID(), ref(g, 12, 12)))
	mustTick(t, g, 2)
	if salvo.IsActive() {
		t.Fatal("salvo still flying after its only plane was recalled")
	}
	if !a.Gold().Equal(gold) {
		t.Fatalf("gold after recall %s, want refund to %s", a.Gold(), gold)
	}
}
