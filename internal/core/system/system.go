package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain session queues into the next turn
	PhasePreUpdate               // 1: dispatch last tick's events
	PhaseUpdate                  // 2: executor + execution scheduler
	PhasePostUpdate              // 3: periodic digests
	PhaseOutput                  // 4: flush session buffers
	PhasePersist                 // 5: archive turns
	PhaseCleanup                 // 6: drop closed sessions
)

// System is one stage of the per-tick pipeline.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
