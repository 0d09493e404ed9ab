package world

import "github.com/tilewars/server/internal/core/event"

type RequestStatus int

const (
	RequestPending RequestStatus = iota
	RequestAccepted
	RequestRejected
)

// AllianceRequest is a pending offer from requestor to recipient.
type AllianceRequest struct {
	g         *Game
	requestor PlayerID
	recipient PlayerID
	createdAt Tick
	status    RequestStatus
}

func (r *AllianceRequest) Requestor() *Player    { return r.g.byID[r.requestor] }
func (r *AllianceRequest) Recipient() *Player    { return r.g.byID[r.recipient] }
func (r *AllianceRequest) CreatedAt() Tick       { return r.createdAt }
func (r *AllianceRequest) Status() RequestStatus { return r.status }

// Accept forms the alliance.
func (r *AllianceRequest) Accept() {
	if r.status != RequestPending {
		return
	}
	r.status = RequestAccepted
	r.g.removeRequest(r)
	a, b := r.Requestor(), r.Recipient()
	if a == nil || b == nil || a.IsAlliedWith(b) {
		return
	}
	r.g.alliances = append(r.g.alliances, &Alliance{a: r.requestor, b: r.recipient, createdAt: r.g.ticks})
	a.UpdateRelation(b, 100)
	b.UpdateRelation(a, 100)
	event.Emit(r.g.bus, AllianceEvent{Tick: r.g.ticks, Kind: AllianceAccepted, From: r.requestor, To: r.recipient})
}

func (r *AllianceRequest) Reject() {
	if r.status != RequestPending {
		return
	}
	r.status = RequestRejected
	r.g.removeRequest(r)
	event.Emit(r.g.bus, AllianceEvent{Tick: r.g.ticks, Kind: AllianceRejected, From: r.requestor, To: r.recipient})
}

// Alliance is a symmetric pact between two players.
type Alliance struct {
	a, b      PlayerID
	createdAt Tick
}

func (a *Alliance) has(p PlayerID) bool { return a.a == p || a.b == p }

func (a *Alliance) other(p PlayerID) PlayerID {
	if a.a == p {
		return a.b
	}
	return a.a
}

func (g *Game) removeRequest(r *AllianceRequest) {
	for i, x := range g.requests {
		if x == r {
			g.requests = append(g.requests[:i], g.requests[i+1:]...)
			return
		}
	}
}

func (p *Player) IsAlliedWith(o *Player) bool {
	if o == nil || o == p {
		return false
	}
	for _, a := range p.g.alliances {
		if a.has(p.ID()) && a.has(o.ID()) {
			return true
		}
	}
	return false
}

// Allies returns allied players in join order.
func (p *Player) Allies() []*Player {
	var out []*Player
	for _, o := range p.g.players {
		if p.IsAlliedWith(o) {
			out = append(out, o)
		}
	}
	return out
}

func (p *Player) IncomingAllianceRequests() []*AllianceRequest {
	var out []*AllianceRequest
	for _, r := range p.g.requests {
		if r.recipient == p.ID() {
			out = append(out, r)
		}
	}
	return out
}

func (p *Player) OutgoingAllianceRequests() []*AllianceRequest {
	var out []*AllianceRequest
	for _, r := range p.g.requests {
		if r.requestor == p.ID() {
			out = append(out, r)
		}
	}
	return out
}

func (p *Player) CanSendAllianceRequest(o *Player) bool {
	if o == nil || o == p || !o.IsAlive() || p.IsAlliedWith(o) {
		return false
	}
	for _, r := range p.g.requests {
		if (r.requestor == p.ID() && r.recipient == o.ID()) || (r.requestor == o.ID() && r.recipient == p.ID()) {
			return false
		}
	}
	return true
}

// CreateAllianceRequest records an offer. A crossing offer from o is
// accepted instead of creating a second request.
func (p *Player) CreateAllianceRequest(o *Player) *AllianceRequest {
	for _, r := range p.g.requests {
		if r.requestor == o.ID() && r.recipient == p.ID() {
			r.Accept()
			return r
		}
	}
	if !p.CanSendAllianceRequest(o) {
		return nil
	}
	r := &AllianceRequest{g: p.g, requestor: p.ID(), recipient: o.ID(), createdAt: p.g.ticks}
	p.g.requests = append(p.g.requests, r)
	event.Emit(p.g.bus, AllianceEvent{Tick: p.g.ticks, Kind: AllianceRequested, From: p.ID(), To: o.ID()})
	return r
}

// BreakAlliance dissolves the pact; the breaker is marked a traitor.
func (p *Player) BreakAlliance(o *Player) bool {
	for i, a := range p.g.alliances {
		if a.has(p.ID()) && a.has(o.ID()) {
			p.g.alliances = append(p.g.alliances[:i], p.g.alliances[i+1:]...)
			p.MarkTraitor()
			o.UpdateRelation(p, -200)
			event.Emit(p.g.bus, AllianceEvent{Tick: p.g.ticks, Kind: AllianceBroken, From: p.ID(), To: o.ID()})
			return true
		}
	}
	return false
}

// ExpireAllianceRequests rejects requests older than ttl ticks.
func (g *Game) ExpireAllianceRequests(ttl int) {
	for _, r := range append([]*AllianceRequest(nil), g.requests...) {
		if g.ticks-r.createdAt >= Tick(ttl) {
			r.Reject()
		}
	}
}
