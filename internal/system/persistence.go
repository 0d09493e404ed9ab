package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/tilewars/server/internal/core/system"
	"github.com/tilewars/server/internal/persist"
	"github.com/tilewars/server/internal/world"
)

// TurnWriter is the local turn archive.
type TurnWriter interface {
	Write(persist.TurnRecord) error
	Flush() error
}

// GameRecorder is the database side of the game record.
type GameRecorder interface {
	AppendTurns(ctx context.Context, gameID string, recs []persist.TurnRecord) error
	FinishGame(ctx context.Context, gameID string, tick world.Tick, digest string, stats map[world.PlayerID]world.PlayerStats) error
}

// PersistenceSystem archives every executed turn locally and writes them
// to the database in batches. Phase 5 (Persist). Either sink may be nil.
type PersistenceSystem struct {
	match    *Match
	archive  TurnWriter
	recorder GameRecorder
	interval int // turns per database batch

	batch []persist.TurnRecord
	log   *zap.Logger
}

func NewPersistenceSystem(match *Match, archive TurnWriter, recorder GameRecorder, intervalTurns int, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{
		match:    match,
		archive:  archive,
		recorder: recorder,
		interval: max(1, intervalTurns),
		log:      log,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	recs := s.match.drainExecuted()
	if len(recs) == 0 {
		return
	}
	if s.archive != nil {
		for _, rec := range recs {
			if err := s.archive.Write(rec); err != nil {
				s.log.Error("archive turn", zap.Int64("turn", rec.Turn.Number), zap.Error(err))
			}
		}
	}
	if s.recorder == nil {
		return
	}
	s.batch = append(s.batch, recs...)
	if len(s.batch) >= s.interval {
		s.flushBatch()
	}
}

func (s *PersistenceSystem) flushBatch() {
	if len(s.batch) == 0 || s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.recorder.AppendTurns(ctx, s.match.ID, s.batch); err != nil {
		// keep the batch; the next flush retries it
		s.log.Error("record turns", zap.Int("turns", len(s.batch)), zap.Error(err))
		return
	}
	s.batch = s.batch[:0]
}

// Finish writes everything still buffered and closes the game record with
// the final digest and stats. Called on shutdown.
func (s *PersistenceSystem) Finish() {
	s.Update(0)
	if s.archive != nil {
		if err := s.archive.Flush(); err != nil {
			s.log.Error("flush archive", zap.Error(err))
		}
	}
	if s.recorder == nil {
		return
	}
	s.flushBatch()
	g := s.match.Game
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.recorder.FinishGame(ctx, s.match.ID, g.Ticks(), g.DigestHex(), g.Stats().Snapshot()); err != nil {
		s.log.Error("finish game record", zap.Error(err))
		return
	}
	s.log.Info("game record closed", zap.String("game", s.match.ID), zap.Int64("tick", int64(g.Ticks())))
}
