package world

// AttackID identifies an ongoing attack for cancellation.
type AttackID uint32

// Attack is the world-side record of a land attack. AttackExecution drives
// it; a retreat order only flips the retreating flag.
type Attack struct {
	g          *Game
	id         AttackID
	attacker   PlayerID
	target     PlayerID // empty = unowned land
	troops     int64
	source     TileRef
	hasSource  bool
	retreating bool
	active     bool
}

func (a *Attack) ID() AttackID            { return a.id }
func (a *Attack) Attacker() *Player       { return a.g.byID[a.attacker] }
func (a *Attack) TargetID() PlayerID      { return a.target }
func (a *Attack) Troops() int64           { return a.troops }
func (a *Attack) IsActive() bool          { return a.active }
func (a *Attack) Retreating() bool        { return a.retreating }
func (a *Attack) Source() (TileRef, bool) { return a.source, a.hasSource }

// Target resolves the defender; nil means unowned land.
func (a *Attack) Target() *Player { return a.g.byID[a.target] }

func (a *Attack) SetTroops(n int64) { a.troops = max(0, n) }

// OrderRetreat asks the driving execution to withdraw.
func (a *Attack) OrderRetreat() { a.retreating = true }

// Delete unregisters the attack from both players.
func (a *Attack) Delete() {
	if !a.active {
		return
	}
	a.active = false
	if p := a.Attacker(); p != nil {
		p.outgoing = removeAttack(p.outgoing, a)
	}
	if t := a.Target(); t != nil {
		t.incoming = removeAttack(t.incoming, a)
	}
	delete(a.g.attacks, a.id)
}

// CreateAttack registers a new attack. target nil attacks unowned land.
func (g *Game) CreateAttack(attacker, target *Player, troops int64, source TileRef, hasSource bool) *Attack {
	g.attackSeq++
	a := &Attack{
		g:         g,
		id:        g.attackSeq,
		attacker:  attacker.ID(),
		troops:    max(0, troops),
		source:    source,
		hasSource: hasSource,
		active:    true,
	}
	attacker.outgoing = append(attacker.outgoing, a)
	if target != nil {
		a.target = target.ID()
		target.incoming = append(target.incoming, a)
	}
	g.attacks[a.id] = a
	g.stats.AttackLaunched(attacker.ID())
	return a
}

// Attack looks up an active attack.
func (g *Game) Attack(id AttackID) (*Attack, bool) {
	a, ok := g.attacks[id]
	return a, ok
}
