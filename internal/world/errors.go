package world

import (
	"errors"
	"fmt"
)

var (
	ErrPlayerNotFound   = errors.New("player not found")
	ErrPlayerExists     = errors.New("player already exists")
	ErrUnitNotFound     = errors.New("unit not found")
	ErrCannotBuild      = errors.New("cannot build here")
	ErrInsufficientGold = errors.New("insufficient gold")
)

// InvariantError reports a defect in the surrounding system rather than a
// player mistake. It is raised with panic and ends the current tick.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "invariant violated: " + e.Msg }

// Invariantf panics with an *InvariantError.
func Invariantf(format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
}
