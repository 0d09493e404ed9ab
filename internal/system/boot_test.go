package system

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/config"
)

func TestBootRejectsUnknownMap(t *testing.T) {
	gc := config.DefaultGame()
	gc.Map = "atlantis"
	_, err := NewBoot("x", gc, config.DataConfig{}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "atlantis") {
		t.Fatalf("err = %v", err)
	}
}

func TestBootsWithEqualInputsReplayIdentically(t *testing.T) {
	gc := config.DefaultGame()
	gc.NumBots = 4
	gc.SpawnPhaseTicks = 10
	run := func() string {
		b, err := NewBoot("same", gc, config.DataConfig{}, zap.NewNop())
		if err != nil {
			t.Fatal(err)
		}
		defer b.Close()
		for i := 0; i < 60; i++ {
			if err := b.Match.Step(b.Match.TakeTurn()); err != nil {
				t.Fatal(err)
			}
		}
		return b.Match.Game.DigestHex()
	}
	if a, b := run(), run(); a != b {
		t.Errorf("digests differ: %s vs %s", a, b)
	}
}
