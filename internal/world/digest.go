package world

import (
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"

	"golang.org/x/crypto/blake2b"
)

// Digest hashes the simulation state with BLAKE2b-256. Two runs fed the same
// seed and turns must produce equal digests at every tick.
func (g *Game) Digest() [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err) // only fails for oversized keys
	}
	d := digestWriter{h: h}

	d.i64(int64(g.ticks))
	d.u64(uint64(len(g.players)))
	for _, p := range g.players {
		d.str(string(p.info.ID))
		d.u64(uint64(p.smallID))
		d.bytes(p.gold.Bytes())
		d.i64(p.troops)
		d.u64(math.Float64bits(p.targetTroopRatio))
		d.u64(uint64(len(p.tiles)))
		for _, o := range g.players {
			if v, ok := p.relations[o.info.ID]; ok {
				d.u64(uint64(o.smallID))
				d.i64(int64(v))
			}
		}
		for _, o := range g.players {
			if _, ok := p.embargoes[o.info.ID]; ok {
				d.u64(uint64(o.smallID))
			}
		}
	}
	for _, a := range g.alliances {
		d.str(string(a.a))
		d.str(string(a.b))
	}
	for _, id := range g.gm.owners {
		d.u64(uint64(id))
	}
	g.units.Each(func(id UnitID, u *Unit) {
		if !u.active {
			return
		}
		d.u64(uint64(id))
		d.str(string(u.typ))
		d.str(string(u.owner))
		d.u64(uint64(u.tile))
		d.i64(int64(u.health))
		d.i64(u.troops)
	})

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DigestHex is Digest rendered for logs and archives.
func (g *Game) DigestHex() string {
	d := g.Digest()
	return hex.EncodeToString(d[:])
}

type digestWriter struct {
	h   hash.Hash
	buf [8]byte
}

func (d *digestWriter) u64(v uint64) {
	binary.LittleEndian.PutUint64(d.buf[:], v)
	d.h.Write(d.buf[:])
}

func (d *digestWriter) i64(v int64) { d.u64(uint64(v)) }

func (d *digestWriter) bytes(b []byte) {
	d.u64(uint64(len(b)))
	d.h.Write(b)
}

func (d *digestWriter) str(s string) { d.bytes([]byte(s)) }
