// Package session owns the live rotation engines. Each session wraps one
// rotation.Engine behind its own mutex; the Manager maps session ids to
// sessions, expires idle ones and records selections.
package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Duel/internal/geo"
	"github.com/MikeSquared-Agency/Duel/internal/rotation"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many active sessions")
	ErrInvalidSlot     = errors.New("invalid slot index")
)

type Session struct {
	ID        uuid.UUID
	Origin    geo.Point
	RadiusKm  float64
	CreatedAt time.Time

	mu     sync.Mutex
	engine *rotation.Engine

	lastSeen atomic.Int64 // unix nanos
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idle(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// CreateRequest describes a new session. When Candidates is empty the pool is
// drawn from the place catalogue around Origin.
type CreateRequest struct {
	Candidates   []rotation.Candidate `json:"candidates,omitempty"`
	Origin       *geo.Point           `json:"origin,omitempty"`
	RadiusKm     *float64             `json:"radius_km,omitempty"`
	MaxPriceTier *int                 `json:"max_price_tier,omitempty"`
}

// CandidateView is a candidate as shown to a client.
type CandidateView struct {
	rotation.Candidate
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

type SlotView struct {
	Index     int            `json:"index"`
	Candidate *CandidateView `json:"candidate"`
	Active    bool           `json:"active"`
	// Exhausted is set when the slot is empty because nothing eligible is left.
	Exhausted bool `json:"exhausted"`
}

type View struct {
	ID        uuid.UUID                    `json:"id"`
	Origin    geo.Point                    `json:"origin"`
	RadiusKm  float64                      `json:"radius_km"`
	Filter    rotation.Filter              `json:"filter"`
	Epoch     int                          `json:"epoch"`
	PoolSize  int                          `json:"pool_size"`
	Remaining int                          `json:"remaining"`
	Rejected  int                          `json:"rejected,omitempty"`
	Slots     [rotation.SlotCount]SlotView `json:"slots"`
	CreatedAt time.Time                    `json:"created_at"`
	LastSeen  time.Time                    `json:"last_seen"`
}

// SelectResult is the outcome of a Select call. Installed is nil when the
// opposite slot could not be refilled or when the selected slot was empty.
type SelectResult struct {
	View      View           `json:"session"`
	Chosen    *CandidateView `json:"chosen"`
	Installed *CandidateView `json:"installed"`
}

// view must be called with s.mu held.
func (s *Session) view() View {
	v := View{
		ID:        s.ID,
		Origin:    s.Origin,
		RadiusKm:  s.RadiusKm,
		Filter:    s.engine.Filter(),
		Epoch:     s.engine.Epoch(),
		PoolSize:  s.engine.PoolSize(),
		Remaining: s.engine.Remaining(),
		CreatedAt: s.CreatedAt,
		LastSeen:  time.Unix(0, s.lastSeen.Load()),
	}
	for i, slot := range s.engine.Slots() {
		v.Slots[i] = SlotView{
			Index:     i,
			Candidate: s.annotate(slot.Candidate),
			Active:    slot.Active,
			Exhausted: slot.Empty(),
		}
	}
	return v
}

func (s *Session) annotate(c *rotation.Candidate) *CandidateView {
	if c == nil {
		return nil
	}
	cv := &CandidateView{Candidate: *c}
	if c.Location != nil {
		d := s.Origin.DistanceTo(*c.Location)
		cv.DistanceKm = &d
	}
	return cv
}
