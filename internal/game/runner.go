package game

import (
	"context"
	"log"
	"time"
)

// SnapshotSink receives every frame a runner produces.
type SnapshotSink interface {
	PushSnapshot(sessionID string, snap Snapshot)
}

// DefaultTickRate is the nominal frame rate the engines are tuned for.
const DefaultTickRate = 60

// RunSession drives a session at tickRate frames per second until it finishes or ctx
// is cancelled. Timestamps come from the session's clock.
func RunSession(ctx context.Context, s *Session, sink SnapshotSink, tickRate int) {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	interval := time.Second / time.Duration(tickRate)
	dt := interval.Seconds()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	clock := s.Clock()
	s.Start(clock.Now())
	log.Printf("[GAME] Runner started for session %s (%s, tick %v)", s.ID, s.Mode(), interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[GAME] Runner stopped for session %s", s.ID)
			return
		case <-ticker.C:
			snap := s.Step(clock.Now(), dt)
			if sink != nil {
				sink.PushSnapshot(s.ID, snap)
			}
			if snap.Phase == SessionFinished {
				log.Printf("[GAME] Runner finished for session %s", s.ID)
				return
			}
		}
	}
}
