package game

import (
	"context"
	"log"
	"time"
)

// StartReaper ends sessions nobody has touched for idleTimeout, checking every interval.
// It stops with ctx.
func (m *Manager) StartReaper(ctx context.Context, interval, idleTimeout time.Duration) {
	if interval <= 0 || idleTimeout <= 0 {
		log.Println("[REAPER] Disabled")
		return
	}

	log.Printf("[REAPER] Started (interval %v, idle timeout %v)", interval, idleTimeout)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[REAPER] Stopping")
				return
			case now := <-ticker.C:
				if n := m.reapIdle(now, idleTimeout); n > 0 {
					log.Printf("[REAPER] Ended %d idle session(s), %d active", n, m.ActiveSessionCount())
				}
			}
		}
	}()
}

// reapIdle ends every session whose last activity is older than idleTimeout at now.
func (m *Manager) reapIdle(now time.Time, idleTimeout time.Duration) int {
	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		if now.Sub(s.LastActivity()) > idleTimeout {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	ended := 0
	for _, id := range stale {
		if err := m.EndSession(id); err == nil {
			log.Printf("[REAPER] Ended idle session %s", id)
			ended++
		}
	}
	return ended
}
