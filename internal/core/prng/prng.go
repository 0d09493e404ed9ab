// Package prng provides the seeded deterministic random source used by the
// simulation. There is no package-level generator: every owner constructs its
// own PseudoRandom from an explicit seed so replays are reproducible.
package prng

import (
	"math/bits"
	"strconv"
	"unicode/utf16"
)

// PseudoRandom is a splitmix64 generator. The zero value is usable but every
// caller in the simulation seeds it from a stable identifier.
type PseudoRandom struct {
	state uint64
}

func New(seed int64) *PseudoRandom {
	return &PseudoRandom{state: uint64(seed)}
}

func (r *PseudoRandom) next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// NextInt returns an integer in [min, max). When max <= min it returns min.
func (r *PseudoRandom) NextInt(min, max int) int {
	if max <= min {
		return min
	}
	span := uint64(max - min)
	// Multiply-high keeps the draw uniform enough for spans far below 2^32
	// and is identical on every platform.
	hi, _ := bits.Mul64(r.next(), span)
	return min + int(hi)
}

// NextFloat returns a float in [min, max).
func (r *PseudoRandom) NextFloat(min, max float64) float64 {
	f := float64(r.next()>>11) / (1 << 53)
	return min + f*(max-min)
}

// Chance reports true with probability 1/odds.
func (r *PseudoRandom) Chance(odds int) bool {
	if odds <= 1 {
		return true
	}
	return r.NextInt(0, odds) == 0
}

// NextID returns a short base-36 identifier.
func (r *PseudoRandom) NextID() string {
	return strconv.FormatUint(r.next()>>24, 36)
}

// Shuffle permutes n elements using swap (Fisher-Yates).
func (r *PseudoRandom) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, r.NextInt(0, i+1))
	}
}

// Pick returns a uniformly chosen element. Picking from an empty slice is a
// programming error.
func Pick[T any](r *PseudoRandom, items []T) T {
	if len(items) == 0 {
		panic("prng: Pick from empty slice")
	}
	return items[r.NextInt(0, len(items))]
}

// SimpleHash is the 32-bit string hash used to derive seeds from game and
// player identifiers. It runs over UTF-16 code units, so characters outside
// the BMP contribute both surrogates. The result is never negative.
func SimpleHash(s string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}
