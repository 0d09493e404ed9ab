package prng

import (
	"math"
	"testing"
)

func TestSameSeedSameSequence(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 1000; i++ {
		if x, y := a.NextInt(0, 1_000_000), b.NextInt(0, 1_000_000); x != y {
			t.Fatalf("draw %d: %d != %d", i, x, y)
		}
	}
}

func TestNextIntBounds(t *testing.T) {
	r := New(7)
	for i := 0; i < 10_000; i++ {
		v := r.NextInt(10, 20)
		if v < 10 || v >= 20 {
			t.Fatalf("NextInt(10,20) = %d", v)
		}
	}
	if v := r.NextInt(5, 5); v != 5 {
		t.Fatalf("empty range: got %d, want 5", v)
	}
	if v := r.NextInt(5, 3); v != 5 {
		t.Fatalf("inverted range: got %d, want 5", v)
	}
}

func TestChanceApproximatesOneOverK(t *testing.T) {
	for _, k := range []int{2, 3, 10, 50} {
		r := New(int64(k) * 977)
		const n = 200_000
		hits := 0
		for i := 0; i < n; i++ {
			if r.Chance(k) {
				hits++
			}
		}
		p := 1 / float64(k)
		got := float64(hits) / n
		// five standard deviations of a binomial proportion
		tol := 5 * math.Sqrt(p*(1-p)/n)
		if math.Abs(got-p) > tol {
			t.Fatalf("Chance(%d): frequency %.5f, want %.5f ± %.5f", k, got, p, tol)
		}
	}
}

func TestChanceOneIsCertain(t *testing.T) {
	r := New(1)
	for i := 0; i < 100; i++ {
		if !r.Chance(1) {
			t.Fatal("Chance(1) returned false")
		}
	}
}

func TestPickCoversAllElements(t *testing.T) {
	r := New(3)
	items := []string{"a", "b", "c", "d"}
	seen := map[string]int{}
	for i := 0; i < 4000; i++ {
		seen[Pick(r, items)]++
	}
	for _, it := range items {
		if seen[it] < 800 {
			t.Fatalf("element %q picked %d times", it, seen[it])
		}
	}
}

func TestPickEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on empty slice")
		}
	}()
	Pick(New(1), []int{})
}

func TestSimpleHash(t *testing.T) {
	if SimpleHash("") != 0 {
		t.Fatal("empty string should hash to 0")
	}
	// "a" = 97, "ab" = 97*31 + 98
	if got := SimpleHash("ab"); got != 97*31+98 {
		t.Fatalf("SimpleHash(ab) = %d", got)
	}
	// U+1F600 hashes as its surrogate pair 0xD83D, 0xDE00
	if got := SimpleHash("\U0001F600"); got != 0xD83D*31+0xDE00 {
		t.Fatalf("SimpleHash(emoji) = %d", got)
	}
	if got := SimpleHash("é"); got != 0xE9 {
		t.Fatalf("SimpleHash(é) = %d", got)
	}
	if SimpleHash("game-1") == SimpleHash("game-2") {
		t.Fatal("distinct ids should hash differently")
	}
	for _, s := range []string{"zzzzzzzzzzzzzzzz", "a long game identifier 123456"} {
		if SimpleHash(s) < 0 {
			t.Fatalf("negative hash for %q", s)
		}
	}
}
