package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Duel/internal/hermes"
)

func (m *Manager) reapLoop(ctx context.Context) {
	defer m.wg.Done()
	interval := m.cfg.ReapInterval()
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reapIdle()
			m.publishStats()
		}
	}
}

// reapIdle removes sessions idle for longer than the configured TTL and
// returns how many were removed. A non-positive TTL disables expiry.
func (m *Manager) reapIdle() int {
	ttl := m.cfg.SessionTTL()
	if ttl <= 0 {
		return 0
	}
	now := m.now()

	type expired struct {
		id   uuid.UUID
		idle time.Duration
	}
	var gone []expired

	m.mu.Lock()
	for id, s := range m.sessions {
		if idle := s.idle(now); idle > ttl {
			delete(m.sessions, id)
			gone = append(gone, expired{id: id, idle: idle})
		}
	}
	active := len(m.sessions)
	m.mu.Unlock()

	if len(gone) == 0 {
		return 0
	}

	m.metrics.ActiveSessions.Set(float64(active))
	m.metrics.SessionsExpired.Add(float64(len(gone)))
	for _, e := range gone {
		m.logger.Info("session expired", "session_id", e.id, "idle_for", e.idle)
		m.publish(hermes.SubjectSessionExpired(e.id.String()), hermes.SessionExpiredEvent{
			SessionID: e.id.String(),
			IdleFor:   e.idle.Round(time.Second).String(),
		})
	}
	return len(gone)
}

func (m *Manager) publishStats() {
	m.publish(hermes.SubjectStats, hermes.StatsEvent{
		ActiveSessions: m.Len(),
		Selections:     int(m.selections.Load()),
		Exhaustions:    int(m.exhaustions.Load()),
		Timestamp:      m.now(),
	})
}
