package execution

import (
	"sort"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/world"
)

const (
	spawnSearchDelta   = 25
	spawnSearchTries   = 50
	territoryTileTries = 100
	boatRaidRange      = 150
	boatRaidTries      = 500
	warshipSpawnRadius = 250
	heckleCooldown     = 300
	embargoMalus       = -20
	troopRatioCap      = 0.7
	troopRatioCapAbove = 100_000
	samSearchRadius    = 60
	samPlacementRadius = 5
	samBuildChance     = 3
	samMaxCount        = 5
	troopsPerWarPlane  = 25_000
	largeArmyTroops    = 200_000
	emojiClown         = 36
	emojiAngry         = 41
	embargoRelation    = world.Hostile
)

var heckleEmojis = []int{emojiClown, emojiAngry}

// samCoverValue weighs own structures when choosing where a SAM launcher
// is most useful. Launchers already present add nothing.
var samCoverValue = map[world.UnitType]int{
	world.City:        25_000,
	world.DefensePost: 5_000,
	world.MissileSilo: 50_000,
	world.Port:        10_000,
	world.Factory:     15_000,
	world.Airport:     20_000,
}

// FakeHumanExecution plays a map nation the way a human might: it spawns
// near the nation's home cell, expands, trades embargoes for grudges,
// builds an economy and an air force, and strikes its enemies.
type FakeHumanExecution struct {
	base
	gameID string
	nation world.Nation
	rnd    *prng.PseudoRandom

	attackRate   int
	attackTick   int
	triggerRatio float64
	reserveRatio float64

	player    *world.Player
	behavior  *BotBehavior
	firstMove bool

	lastEmoji     map[world.PlayerID]world.Tick
	recent        *RecentTargets
	embargoMalus  map[world.PlayerID]bool
	recentChecked world.Tick
}

func NewFakeHumanExecution(gameID string, nation world.Nation) *FakeHumanExecution {
	rnd := prng.New(prng.SimpleHash(string(nation.Info.ID)) + prng.SimpleHash(gameID))
	e := &FakeHumanExecution{
		gameID:        gameID,
		nation:        nation,
		rnd:           rnd,
		firstMove:     true,
		lastEmoji:     make(map[world.PlayerID]world.Tick),
		recent:        NewRecentTargets(recentTargetMaxAge, recentTargetCapacity),
		embargoMalus:  make(map[world.PlayerID]bool),
		recentChecked: -1,
	}
	e.attackRate = rnd.NextInt(10, 20)
	e.attackTick = rnd.NextInt(0, e.attackRate)
	e.triggerRatio = float64(rnd.NextInt(50, 70)) / 100
	e.reserveRatio = float64(rnd.NextInt(20, 50)) / 100
	return e
}

func (e *FakeHumanExecution) Init(g *world.Game, _ world.Tick) { e.g = g }

func (e *FakeHumanExecution) ActiveDuringSpawnPhase() bool { return true }

func (e *FakeHumanExecution) Tick(tick world.Tick) {
	g := e.game()
	if tick > e.recentChecked {
		e.recent.Prune(tick)
		e.recentChecked = tick
	}
	if int(tick)%e.attackRate != e.attackTick {
		return
	}

	if g.InSpawnPhase() {
		t, ok := e.randomLand()
		if !ok {
			g.Log().Warn("fake human: no spawn tile", zap.String("nation", e.nation.Info.Name))
			return
		}
		g.AddExecution(NewSpawnExecution(e.nation.Info, t, e.gameID))
		return
	}

	if e.player == nil {
		p, ok := g.Player(e.nation.Info.ID)
		if !ok {
			return
		}
		e.player = p
	}
	p := e.player
	if !p.IsAlive() {
		e.stop()
		return
	}
	if e.behavior == nil {
		e.behavior = NewBotBehavior(e.rnd, g, p, e.triggerRatio, e.reserveRatio)
	}
	if e.firstMove {
		e.firstMove = false
		e.behavior.SendAttack(nil)
		return
	}
	if p.Troops() > troopRatioCapAbove && p.TargetTroopRatio() > troopRatioCap {
		p.SetTargetTroopRatio(troopRatioCap)
	}

	e.updateRelationsFromEmbargoes()
	e.behavior.HandleAllianceRequests()
	e.handleEnemies()
	e.handleUnits()
	e.handleEmbargoesToHostileNations()
	e.maybeAttack()
}

// updateRelationsFromEmbargoes holds a grudge against every player
// embargoing us, applied once per embargo and lifted with it.
func (e *FakeHumanExecution) updateRelationsFromEmbargoes() {
	p := e.player
	for _, o := range e.g.Players() {
		if o == p {
			continue
		}
		switch embargoed, applied := o.HasEmbargoAgainst(p), e.embargoMalus[o.ID()]; {
		case embargoed && !applied:
			p.UpdateRelation(o, embargoMalus)
			e.embargoMalus[o.ID()] = true
		case !embargoed && applied:
			p.UpdateRelation(o, -embargoMalus)
			delete(e.embargoMalus, o.ID())
		}
	}
}

func (e *FakeHumanExecution) handleEmbargoesToHostileNations() {
	p := e.player
	for _, o := range e.g.Players() {
		if o == p {
			continue
		}
		switch rel := p.Relation(o); {
		case rel <= embargoRelation && !p.HasEmbargoAgainst(o):
			p.AddEmbargo(o.ID(), false)
		case rel >= world.Neutral && p.HasEmbargoAgainst(o):
			p.StopEmbargo(o.ID())
		}
	}
}

func (e *FakeHumanExecution) maybeAttack() {
	p, gm := e.player, e.g.Map()
	var enemies []*world.Player
	borders, terraNullius := false, false
	seen := map[world.PlayerID]bool{}
	for _, t := range p.BorderTiles() {
		for _, n := range gm.Neighbors(t) {
			if !gm.IsLand(n) || gm.OwnerID(n) == p.SmallID() {
				continue
			}
			borders = true
			o := e.g.Owner(n)
			if o == nil {
				terraNullius = true
				continue
			}
			if !seen[o.ID()] {
				seen[o.ID()] = true
				enemies = append(enemies, o)
			}
		}
	}

	if !borders {
		if e.rnd.Chance(10) {
			e.sendBoatRandomly()
		}
		return
	}
	if e.rnd.Chance(20) {
		e.sendBoatRandomly()
		return
	}
	if terraNullius {
		e.behavior.SendAttack(nil)
		return
	}
	sortByTroops(enemies)

	if e.rnd.Chance(20) {
		if ally := prng.Pick(e.rnd, enemies); p.CanSendAllianceRequest(ally) {
			p.CreateAllianceRequest(ally)
			return
		}
	}
	target := enemies[0]
	if !e.rnd.Chance(2) {
		target = prng.Pick(e.rnd, enemies)
	}
	if e.shouldAttack(target) {
		e.behavior.SendAttack(target)
	}
}

func sortByTroops(ps []*world.Player) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Troops() < ps[j].Troops() })
}

func (e *FakeHumanExecution) shouldAttack(o *world.Player) bool {
	p := e.player
	if p.IsOnSameTeam(o) {
		return false
	}
	if p.IsFriendly(o) {
		if e.shouldDiscourageAttack(o) {
			return e.rnd.Chance(200)
		}
		return e.rnd.Chance(50)
	}
	if e.shouldDiscourageAttack(o) {
		return e.rnd.Chance(4)
	}
	return true
}

// shouldDiscourageAttack spares loyal humans on the easier difficulties.
func (e *FakeHumanExecution) shouldDiscourageAttack(o *world.Player) bool {
	if o.IsTraitor() {
		return false
	}
	switch e.g.Config().Game.Difficulty {
	case "hard", "impossible":
		return false
	}
	return o.Type() == world.PlayerHuman
}

func (e *FakeHumanExecution) handleEnemies() {
	p := e.player
	e.behavior.ForgetOldEnemies()
	e.behavior.AssistAllies()
	enemy := e.behavior.SelectEnemy()
	if enemy == nil {
		return
	}
	e.maybeSendEmoji(enemy)

	if !p.IsOnSameTeam(enemy) {
		planes := readyPlanes(e.g, p)
		if n := salvoSize(p, enemy, e.rnd, len(planes)); n > 0 {
			e.sendPlaneBombs(enemy, planes[:n])
		}
		strong := float64(enemy.Troops()) >= salvoTroopRatio*float64(p.Troops())
		if !(strong && enemy.UnitCount(world.SAMLauncher) > 0) {
			e.maybeSendNuke(enemy)
		}
	}

	if p.SharesBorderWith(enemy) {
		e.behavior.SendAttack(enemy)
	} else {
		e.maybeSendBoatAttack(enemy)
	}
}

func (e *FakeHumanExecution) maybeSendEmoji(enemy *world.Player) {
	if enemy.Type() != world.PlayerHuman {
		return
	}
	now := e.g.Ticks()
	if last, ok := e.lastEmoji[enemy.ID()]; ok && now-last <= heckleCooldown {
		return
	}
	e.lastEmoji[enemy.ID()] = now
	e.g.AddExecution(NewEmojiExecution(e.player.ID(), enemy.ID(), prng.Pick(e.rnd, heckleEmojis)))
}

// sendPlaneBombs gives each plane its own target, best first, cycling
// through the ranking when there are more planes than targets.
func (e *FakeHumanExecution) sendPlaneBombs(enemy *world.Player, planes []*world.Unit) {
	p := e.player
	ranked := rankTargets(e.g, p, e.rnd, enemy, e.recent)
	if len(ranked) == 0 {
		return
	}
	now := e.g.Ticks()
	for i, plane := range planes {
		t := ranked[i%len(ranked)].tile
		e.recent.Add(t, now)
		e.g.AddExecution(newAssignedPlaneBomb(p.ID(), t, plane.ID()))
	}
}

func (e *FakeHumanExecution) maybeSendNuke(enemy *world.Player) {
	p := e.player
	if enemy.Type() == world.PlayerBot || p.IsOnSameTeam(enemy) || p.Gold().Less(p.Cost(world.AtomBomb)) {
		return
	}
	t, typ, ok := chooseNukeTarget(e.g, p, e.rnd, enemy, e.recent)
	if !ok {
		return
	}
	e.recent.Add(t, e.g.Ticks())
	e.g.AddExecution(NewNukeExecution(typ, p.ID(), t, nil))
}

func (e *FakeHumanExecution) maybeSendBoatAttack(enemy *world.Player) {
	p, gm := e.player, e.g.Map()
	if p.IsOnSameTeam(enemy) {
		return
	}
	var ours, theirs []world.TileRef
	for _, t := range p.BorderTiles() {
		if gm.IsOceanShore(t) {
			ours = append(ours, t)
		}
	}
	for _, t := range enemy.BorderTiles() {
		if gm.IsOceanShore(t) {
			theirs = append(theirs, t)
		}
	}
	_, dst, ok := closestTiles(gm, ours, theirs)
	if !ok {
		return
	}
	id := enemy.ID()
	e.g.AddExecution(NewTransportShipExecution(p.ID(), &id, dst, p.Troops()/5, nil))
}

// closestTiles returns the pair from a and b with the smallest Manhattan
// distance.
func closestTiles(gm *world.GameMap, a, b []world.TileRef) (world.TileRef, world.TileRef, bool) {
	bestD := -1
	var ba, bb world.TileRef
	for _, x := range a {
		for _, y := range b {
			if d := gm.ManhattanDist(x, y); bestD < 0 || d < bestD {
				ba, bb, bestD = x, y, d
			}
		}
	}
	return ba, bb, bestD >= 0
}

func (e *FakeHumanExecution) sendBoatRandomly() {
	p, gm := e.player, e.g.Map()
	var shore []world.TileRef
	for _, t := range p.BorderTiles() {
		if gm.IsOceanShore(t) {
			shore = append(shore, t)
		}
	}
	if len(shore) == 0 {
		return
	}
	src := prng.Pick(e.rnd, shore)
	dst, ok := e.randOceanShoreTile(src, boatRaidRange)
	if !ok {
		return
	}
	var target *world.PlayerID
	if o := e.g.Owner(dst); o != nil {
		id := o.ID()
		target = &id
	}
	e.g.AddExecution(NewTransportShipExecution(p.ID(), target, dst, p.Troops()/5, nil))
}

func (e *FakeHumanExecution) randOceanShoreTile(from world.TileRef, dist int) (world.TileRef, bool) {
	gm := e.g.Map()
	x, y := gm.X(from), gm.Y(from)
	for i := 0; i < boatRaidTries; i++ {
		rx, ry := e.rnd.NextInt(x-dist, x+dist), e.rnd.NextInt(y-dist, y+dist)
		if !gm.IsValidCoord(rx, ry) {
			continue
		}
		t := gm.Ref(rx, ry)
		if !gm.IsOceanShore(t) {
			continue
		}
		if o := e.g.Owner(t); o == nil || (o != e.player && !o.IsFriendly(e.player)) {
			return t, true
		}
	}
	return 0, false
}

// randomLand finds unowned land near the nation's home cell, shying away
// from mountains.
func (e *FakeHumanExecution) randomLand() (world.TileRef, bool) {
	gm := e.g.Map()
	cx, cy := gm.X(e.nation.Spawn), gm.Y(e.nation.Spawn)
	for i := 0; i < spawnSearchTries; i++ {
		x := e.rnd.NextInt(cx-spawnSearchDelta, cx+spawnSearchDelta)
		y := e.rnd.NextInt(cy-spawnSearchDelta, cy+spawnSearchDelta)
		if !gm.IsValidCoord(x, y) {
			continue
		}
		t := gm.Ref(x, y)
		if !gm.IsLand(t) || gm.HasOwner(t) {
			continue
		}
		if gm.IsMountain(t) && e.rnd.Chance(2) {
			continue
		}
		return t, true
	}
	return 0, false
}

// randTerritoryTile samples p's bounding box for a tile p owns.
func (e *FakeHumanExecution) randTerritoryTile(p *world.Player) (world.TileRef, bool) {
	gm := e.g.Map()
	border := p.BorderTiles()
	if len(border) == 0 {
		return 0, false
	}
	minX, minY := gm.X(border[0]), gm.Y(border[0])
	maxX, maxY := minX, minY
	for _, t := range border[1:] {
		x, y := gm.X(t), gm.Y(t)
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	for i := 0; i < territoryTileTries; i++ {
		x, y := e.rnd.NextInt(minX, maxX+1), e.rnd.NextInt(minY, maxY+1)
		if !gm.IsValidCoord(x, y) {
			continue
		}
		if t := gm.Ref(x, y); p.OwnsTile(t) {
			return t, true
		}
	}
	return 0, false
}

func (e *FakeHumanExecution) build(t world.UnitType, tile world.TileRef) {
	e.g.AddExecution(NewConstructionExecution(e.player.ID(), t, tile))
}

func (e *FakeHumanExecution) handleUnits() {
	p, gm := e.player, e.g.Map()
	if p.UnitCount(world.Port) == 0 && p.Gold().Cmp(p.Cost(world.Port)) > 0 {
		var shore []world.TileRef
		for _, t := range p.BorderTiles() {
			if gm.IsOceanShore(t) {
				shore = append(shore, t)
			}
		}
		if len(shore) > 0 {
			e.build(world.Port, prng.Pick(e.rnd, shore))
		}
		return
	}
	e.maybeSpawnStructure(world.City, 2)
	e.maybeSpawnStructure(world.Factory, 1)
	e.maybeSpawnStructure(world.Airport, 1)
	if e.maybeSpawnWarship() {
		return
	}
	e.maybeSpawnStructure(world.MissileSilo, 1)
	e.maybeSpawnSAMLauncher()
	e.maybeSpawnWarPlane()
}

func (e *FakeHumanExecution) maybeSpawnStructure(t world.UnitType, maxNum int) {
	p := e.player
	if p.UnitCount(t) >= maxNum || p.Gold().Less(p.Cost(t)) {
		return
	}
	tile, ok := e.randTerritoryTile(p)
	if !ok {
		return
	}
	if _, ok := p.CanBuild(t, tile); ok {
		e.build(t, tile)
	}
}

func (e *FakeHumanExecution) maybeSpawnWarship() bool {
	p, gm := e.player, e.g.Map()
	if !e.rnd.Chance(50) {
		return false
	}
	ports := p.Units(world.Port)
	if len(ports) == 0 || p.UnitCount(world.Warship) > 0 || p.Gold().Cmp(p.Cost(world.Warship)) <= 0 {
		return false
	}
	port := prng.Pick(e.rnd, ports)
	px, py := gm.X(port.Tile()), gm.Y(port.Tile())
	for i := 0; i < patrolTileTries; i++ {
		x := e.rnd.NextInt(px-warshipSpawnRadius, px+warshipSpawnRadius)
		y := e.rnd.NextInt(py-warshipSpawnRadius, py+warshipSpawnRadius)
		if !gm.IsValidCoord(x, y) || !gm.IsOcean(gm.Ref(x, y)) {
			continue
		}
		t := gm.Ref(x, y)
		if _, ok := p.CanBuild(world.Warship, t); !ok {
			e.g.Log().Debug("fake human: cannot build warship", zap.String("player", string(p.ID())))
			return false
		}
		e.build(world.Warship, t)
		return true
	}
	return false
}

// maybeSpawnSAMLauncher covers the most valuable cluster of own structures
// not yet protected by a launcher.
func (e *FakeHumanExecution) maybeSpawnSAMLauncher() {
	p, gm := e.player, e.g.Map()
	if !e.rnd.Chance(samBuildChance) || p.Gold().Less(p.Cost(world.SAMLauncher)) {
		return
	}
	sams := p.Units(world.SAMLauncher)
	if len(sams) >= samMaxCount {
		return
	}
	const r2 = samSearchRadius * samSearchRadius
	covered := func(t world.TileRef) bool {
		for _, s := range sams {
			if gm.EuclideanDistSquared(s.Tile(), t) <= r2 {
				return true
			}
		}
		return false
	}
	structures := p.Units(world.City, world.DefensePost, world.MissileSilo, world.Port, world.Factory, world.Airport)
	bestTile, bestScore := world.TileRef(0), 0
	for _, s := range structures {
		if covered(s.Tile()) {
			continue
		}
		score := 0
		for _, n := range structures {
			if gm.EuclideanDistSquared(s.Tile(), n.Tile()) <= r2 {
				score += samCoverValue[n.Type()]
			}
		}
		if score <= bestScore {
			continue
		}
		for _, t := range gm.BFS(s.Tile(), world.EuclDistFN(s.Tile(), samPlacementRadius)) {
			if _, ok := p.CanBuild(world.SAMLauncher, t); ok && !covered(t) {
				bestTile, bestScore = t, score
				break
			}
		}
	}
	if bestScore > 0 {
		e.build(world.SAMLauncher, bestTile)
	}
}

func (e *FakeHumanExecution) maybeSpawnWarPlane() {
	p := e.player
	if p.UnitCount(world.Airport) == 0 {
		return
	}
	allowed := int(p.Troops() / troopsPerWarPlane)
	if p.Troops() > largeArmyTroops {
		allowed = (allowed*3 + 1) / 2
	}

	neighbors, _ := p.Neighbors()
	var hostile []*world.Player
	for _, n := range neighbors {
		if !p.IsFriendly(n) {
			hostile = append(hostile, n)
		}
	}
	strongEnemy, atWar, dominating := false, false, len(hostile) > 0
	for _, n := range hostile {
		if n.Troops() > p.Troops() {
			strongEnemy = true
		}
		if float64(p.Troops()) < float64(n.Troops())*1.5 {
			dominating = false
		}
		if e.fighting(n) {
			atWar = true
		}
	}
	switch {
	case atWar && strongEnemy:
		allowed *= 3
	case dominating:
		allowed = max(0, allowed-1)
	}
	if p.UnitCount(world.WarPlane) >= allowed {
		return
	}
	odds := 80
	if strongEnemy || p.Troops() > largeArmyTroops {
		odds = 100
	}
	if !e.rnd.Chance(odds) || p.Gold().Less(p.Cost(world.WarPlane)) {
		return
	}
	tile, ok := e.randTerritoryTile(p)
	if !ok {
		return
	}
	if _, ok := p.CanBuild(world.WarPlane, tile); ok {
		e.build(world.WarPlane, tile)
	}
}

func (e *FakeHumanExecution) fighting(o *world.Player) bool {
	for _, a := range e.player.OutgoingAttacks() {
		if a.TargetID() == o.ID() {
			return true
		}
	}
	for _, a := range e.player.IncomingAttacks() {
		if a.Attacker() == o {
			return true
		}
	}
	return false
}
