package event

import "testing"

type ping struct{ N int }
type pong struct{ S string }

func TestEventsDeliveredAfterSwap(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(p ping) { got = append(got, p.N) })

	Emit(b, ping{1})
	Emit(b, ping{2})
	b.DispatchAll()
	if len(got) != 0 {
		t.Fatalf("delivered before swap: %v", got)
	}

	b.SwapBuffers()
	b.DispatchAll()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v, want [1 2]", got)
	}

	b.SwapBuffers()
	b.DispatchAll()
	if len(got) != 2 {
		t.Fatalf("events redelivered: %v", got)
	}
}

func TestDispatchFollowsSubscriptionOrder(t *testing.T) {
	b := NewBus()
	var order []string
	Subscribe(b, func(pong) { order = append(order, "pong") })
	Subscribe(b, func(ping) { order = append(order, "ping") })

	for i := 0; i < 20; i++ {
		Emit(b, ping{i})
		Emit(b, pong{"x"})
	}
	b.SwapBuffers()
	b.DispatchAll()
	for i := 0; i < 20; i++ {
		if order[i] != "pong" || order[20+i] != "ping" {
			t.Fatalf("unexpected order %v", order)
		}
	}
}

func TestEmitOnNilBus(t *testing.T) {
	var b *Bus
	Emit(b, ping{1}) // must not panic
}
