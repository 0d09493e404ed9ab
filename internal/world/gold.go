package world

import (
	"encoding/json"
	"fmt"
	"math/big"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Gold is an immutable, arbitrary-precision, non-negative amount. The zero
// value is zero gold. Operations return new values and never mutate shared
// big.Int storage, so Gold can be copied freely.
type Gold struct {
	n *big.Int
}

func GoldOf(v int64) Gold {
	if v <= 0 {
		return Gold{}
	}
	return Gold{n: big.NewInt(v)}
}

func (g Gold) int() *big.Int {
	if g.n == nil {
		return new(big.Int)
	}
	return g.n
}

func (g Gold) Add(o Gold) Gold {
	return Gold{n: new(big.Int).Add(g.int(), o.int())}
}

// Sub returns g-o, floored at zero.
func (g Gold) Sub(o Gold) Gold {
	r := new(big.Int).Sub(g.int(), o.int())
	if r.Sign() <= 0 {
		return Gold{}
	}
	return Gold{n: r}
}

func (g Gold) MulInt(k int64) Gold {
	if k <= 0 {
		return Gold{}
	}
	return Gold{n: new(big.Int).Mul(g.int(), big.NewInt(k))}
}

// DivInt divides by k, rounding down. Non-positive k yields zero.
func (g Gold) DivInt(k int64) Gold {
	if k <= 0 {
		return Gold{}
	}
	return Gold{n: new(big.Int).Quo(g.int(), big.NewInt(k))}
}

// DivFloor returns how many whole o fit in g. Dividing by zero gold
// returns zero.
func (g Gold) DivFloor(o Gold) int64 {
	if o.IsZero() {
		return 0
	}
	q := new(big.Int).Quo(g.int(), o.int())
	if !q.IsInt64() {
		return 1<<63 - 1
	}
	return q.Int64()
}

func (g Gold) Cmp(o Gold) int      { return g.int().Cmp(o.int()) }
func (g Gold) Less(o Gold) bool    { return g.Cmp(o) < 0 }
func (g Gold) AtLeast(o Gold) bool { return g.Cmp(o) >= 0 }
func (g Gold) Equal(o Gold) bool   { return g.Cmp(o) == 0 }
func (g Gold) IsZero() bool        { return g.n == nil || g.n.Sign() == 0 }
func (g Gold) String() string      { return g.int().String() }
func (g Gold) Bytes() []byte       { return g.int().Bytes() }

func (g Gold) Min(o Gold) Gold {
	if g.Less(o) {
		return g
	}
	return o
}

// Int64 saturates at the int64 range.
func (g Gold) Int64() int64 {
	if !g.int().IsInt64() {
		return 1<<63 - 1
	}
	return g.int().Int64()
}

func (g Gold) Float64() float64 {
	f, _ := new(big.Float).SetInt(g.int()).Float64()
	return f
}

func (g Gold) MarshalJSON() ([]byte, error) {
	return []byte(`"` + g.String() + `"`), nil
}

func (g *Gold) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// plain JSON numbers are accepted too
		s = string(b)
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("gold: invalid amount %s", b)
	}
	if n.Sign() < 0 {
		n.SetInt64(0)
	}
	*g = Gold{n: n}
	return nil
}

var goldPrinter = message.NewPrinter(language.English)

// RenderGold formats an amount with digit grouping for player messages.
func RenderGold(g Gold) string {
	if g.int().IsInt64() {
		return goldPrinter.Sprintf("%d", g.Int64())
	}
	return g.String()
}

// RenderTroops formats a troop count for player messages.
func RenderTroops(n int64) string {
	return goldPrinter.Sprintf("%d", n)
}
