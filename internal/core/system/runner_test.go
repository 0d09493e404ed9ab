package system

import (
	"testing"
	"time"
)

type recorder struct {
	phase Phase
	name  string
	log   *[]string
}

func (r recorder) Phase() Phase            { return r.phase }
func (r recorder) Update(dt time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{PhasePersist, "persist", &log})
	r.Register(recorder{PhaseUpdate, "update-a", &log})
	r.Register(recorder{PhaseInput, "input", &log})
	r.Register(recorder{PhaseUpdate, "update-b", &log})
	r.Register(recorder{PhaseOutput, "output", &log})

	r.Tick(time.Millisecond)
	want := []string{"input", "update-a", "update-b", "output", "persist"}
	if len(log) != len(want) {
		t.Fatalf("got %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("got %v, want %v", log, want)
		}
	}
	if r.Ticks() != 1 {
		t.Fatalf("Ticks() = %d", r.Ticks())
	}
}
