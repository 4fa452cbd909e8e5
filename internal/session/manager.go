package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Duel/internal/config"
	"github.com/MikeSquared-Agency/Duel/internal/geo"
	"github.com/MikeSquared-Agency/Duel/internal/hermes"
	"github.com/MikeSquared-Agency/Duel/internal/metrics"
	"github.com/MikeSquared-Agency/Duel/internal/rotation"
	"github.com/MikeSquared-Agency/Duel/internal/store"
)

// catalogueScanLimit bounds how many places are read before the radius cut.
const catalogueScanLimit = 1000

type Manager struct {
	store   store.Store
	hermes  hermes.Client
	metrics *metrics.Metrics
	cfg     *config.Config
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	selections  atomic.Int64
	exhaustions atomic.Int64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewManager builds a manager. The store and hermes client are optional:
// without a store sessions need explicit candidates and selections are not
// persisted; without hermes no events are published.
func NewManager(s store.Store, h hermes.Client, m *metrics.Metrics, cfg *config.Config, logger *slog.Logger) *Manager {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Manager{
		store:    s,
		hermes:   h,
		metrics:  m,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
		stopCh:   make(chan struct{}),
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.reapLoop(ctx)
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) Create(ctx context.Context, req CreateRequest) (View, error) {
	if limit := m.cfg.Session.MaxSessions; limit > 0 && m.Len() >= limit {
		return View{}, ErrTooManySessions
	}

	origin := geo.Point{Lat: m.cfg.Pool.OriginLat, Lng: m.cfg.Pool.OriginLng}
	if req.Origin != nil {
		origin = *req.Origin
	}
	radius := m.cfg.Pool.RadiusKm
	if req.RadiusKm != nil {
		radius = *req.RadiusKm
	}

	candidates := req.Candidates
	if len(candidates) == 0 && m.store != nil {
		var err error
		candidates, err = m.catalogue(ctx, origin, radius)
		if err != nil {
			return View{}, fmt.Errorf("load catalogue: %w", err)
		}
	}

	now := m.now()
	s := &Session{
		ID:        uuid.New(),
		Origin:    origin,
		RadiusKm:  radius,
		CreatedAt: now,
		engine:    rotation.NewEngine(),
	}
	s.touch(now)

	rejected := s.engine.Load(candidates)
	if rejected > 0 {
		m.metrics.RejectedCandidates.Add(float64(rejected))
		m.logger.Warn("dropped malformed candidates", "session_id", s.ID, "rejected", rejected)
	}
	if req.MaxPriceTier != nil {
		s.engine.SetFilter(req.MaxPriceTier)
	}
	shown := s.engine.Refill()
	v := s.view()
	v.Rejected = rejected

	m.mu.Lock()
	if limit := m.cfg.Session.MaxSessions; limit > 0 && len(m.sessions) >= limit {
		m.mu.Unlock()
		return View{}, ErrTooManySessions
	}
	m.sessions[s.ID] = s
	active := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SessionsCreated.Inc()
	m.metrics.ActiveSessions.Set(float64(active))
	m.logger.Info("session created", "session_id", s.ID, "pool_size", v.PoolSize, "rejected", rejected)

	m.publish(hermes.SubjectSessionCreated(s.ID.String()), hermes.SessionCreatedEvent{
		SessionID:    s.ID.String(),
		PoolSize:     v.PoolSize,
		Rejected:     rejected,
		OriginLat:    origin.Lat,
		OriginLng:    origin.Lng,
		MaxPriceTier: req.MaxPriceTier,
	})
	m.publishRefilled(s.ID, v.Epoch, shown)
	return v, nil
}

func (m *Manager) Get(id uuid.UUID) (View, error) {
	s, err := m.lookup(id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(), nil
}

func (m *Manager) Refill(id uuid.UUID) (View, error) {
	s, err := m.lookup(id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	shown := s.engine.Refill()
	v := s.view()
	s.mu.Unlock()

	m.metrics.Refills.Inc()
	m.publishRefilled(id, v.Epoch, shown)
	return v, nil
}

// SetFilter replaces the price filter, which clears the shown history. With
// refill set both slots are redrawn under the new filter.
func (m *Manager) SetFilter(id uuid.UUID, maxPriceTier *int, refill bool) (View, error) {
	s, err := m.lookup(id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	s.engine.SetFilter(maxPriceTier)
	var shown [rotation.SlotCount]*rotation.Candidate
	if refill {
		shown = s.engine.Refill()
	}
	v := s.view()
	s.mu.Unlock()

	m.metrics.FilterChanges.Inc()
	m.logger.Debug("filter changed", "session_id", id, "epoch", v.Epoch, "max_price_tier", maxPriceTier)
	m.publish(hermes.SubjectSessionFiltered(id.String()), hermes.FilterChangedEvent{
		SessionID:    id.String(),
		Epoch:        v.Epoch,
		MaxPriceTier: maxPriceTier,
	})
	if refill {
		m.metrics.Refills.Inc()
		m.publishRefilled(id, v.Epoch, shown)
	}
	return v, nil
}

// Select picks slot and rotates a fresh candidate into the other slot. The
// selection is recorded in the store when one is configured; a failed write
// is logged and does not undo the rotation.
func (m *Manager) Select(ctx context.Context, id uuid.UUID, slot int) (*SelectResult, error) {
	if !rotation.ValidSlot(slot) {
		return nil, ErrInvalidSlot
	}
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	chosen := s.engine.Slots()[slot].Candidate
	installed := s.engine.Select(slot)
	res := &SelectResult{
		View:      s.view(),
		Chosen:    s.annotate(chosen),
		Installed: s.annotate(installed),
	}
	s.mu.Unlock()

	if chosen == nil {
		return res, nil
	}

	m.selections.Add(1)
	m.metrics.Selections.WithLabelValues(strconv.Itoa(slot)).Inc()

	var installedID *string
	if installed != nil {
		installedID = &installed.ID
	}

	if m.store != nil {
		if err := m.store.CreateSelectionEvent(ctx, &store.SelectionEvent{
			SessionID:   id,
			Epoch:       res.View.Epoch,
			Slot:        slot,
			ChosenID:    chosen.ID,
			InstalledID: installedID,
		}); err != nil {
			m.logger.Error("failed to record selection", "session_id", id, "error", err)
		}
	}

	m.publish(hermes.SubjectSessionSelected(id.String()), hermes.SelectionEvent{
		SessionID:   id.String(),
		Epoch:       res.View.Epoch,
		Slot:        slot,
		ChosenID:    chosen.ID,
		InstalledID: installedID,
	})

	if installed == nil {
		m.exhaustions.Add(1)
		m.metrics.Exhaustions.Inc()
		m.logger.Info("session exhausted", "session_id", id, "epoch", res.View.Epoch)
		m.publish(hermes.SubjectSessionExhausted(id.String()), hermes.ExhaustedEvent{
			SessionID: id.String(),
			Epoch:     res.View.Epoch,
			EmptySlot: 1 - slot,
		})
	}
	return res, nil
}

func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	if _, ok := m.sessions[id]; !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	active := len(m.sessions)
	m.mu.Unlock()

	m.metrics.ActiveSessions.Set(float64(active))
	return nil
}

// Selections returns the recorded selection history. History outlives the
// in-memory session, so expired ids still resolve when a store is present.
func (m *Manager) Selections(ctx context.Context, id uuid.UUID) ([]*store.SelectionEvent, error) {
	if m.store == nil {
		if _, err := m.lookup(id); err != nil {
			return nil, err
		}
		return []*store.SelectionEvent{}, nil
	}
	events, err := m.store.GetSelectionEvents(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get selection events: %w", err)
	}
	if events == nil {
		events = []*store.SelectionEvent{}
	}
	return events, nil
}

func (m *Manager) lookup(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(m.now())
	return s, nil
}

// catalogue reads the most reviewed places and keeps those within radiusKm of
// origin, capped at the configured pool size.
func (m *Manager) catalogue(ctx context.Context, origin geo.Point, radiusKm float64) ([]rotation.Candidate, error) {
	places, err := m.store.ListPlaces(ctx, store.PlaceFilter{Limit: catalogueScanLimit})
	if err != nil {
		return nil, err
	}

	points := make([]geo.Point, len(places))
	for i, p := range places {
		points[i] = geo.Point{Lat: p.Lat, Lng: p.Lng}
	}

	idx := geo.WithinRadius(points, origin, radiusKm)
	if limit := m.cfg.Pool.MaxCandidates; limit > 0 && len(idx) > limit {
		idx = idx[:limit]
	}

	out := make([]rotation.Candidate, 0, len(idx))
	for _, i := range idx {
		out = append(out, candidateFromPlace(places[i]))
	}
	return out, nil
}

func candidateFromPlace(p *store.Place) rotation.Candidate {
	return rotation.Candidate{
		ID:         p.ID,
		Name:       p.Name,
		Location:   &geo.Point{Lat: p.Lat, Lng: p.Lng},
		Popularity: p.ReviewCount,
		Rating:     p.Rating,
		PriceTier:  p.PriceLevel,
		Details: rotation.Details{
			Address:   p.Address,
			Website:   p.Website,
			Hours:     p.Hours,
			PhotoRefs: p.PhotoRefs,
		},
	}
}

func (m *Manager) publishRefilled(id uuid.UUID, epoch int, shown [rotation.SlotCount]*rotation.Candidate) {
	evt := hermes.SessionRefilledEvent{SessionID: id.String(), Epoch: epoch}
	for i, c := range shown {
		if c != nil {
			evt.Slots[i] = c.ID
		}
	}
	m.publish(hermes.SubjectSessionRefilled(id.String()), evt)
}

func (m *Manager) publish(subject string, data interface{}) {
	if m.hermes == nil {
		return
	}
	if err := m.hermes.Publish(subject, data); err != nil {
		m.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
