package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MikeSquared-Agency/Duel/internal/hermes"
	"github.com/MikeSquared-Agency/Duel/internal/store"
)

const ingestQueue = "duel-ingest"

// SetupSubscriptions registers the place ingest subscription. Upstream
// enrichers publish finished places; each one is upserted into the catalogue.
func (m *Manager) SetupSubscriptions() error {
	if m.hermes == nil || m.store == nil {
		return nil
	}
	return m.hermes.QueueSubscribe(hermes.SubjectPlaceIngest, ingestQueue, func(_ string, data []byte) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		m.handleIngest(ctx, data)
	})
}

func (m *Manager) handleIngest(ctx context.Context, data []byte) {
	var evt hermes.PlaceIngestEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		m.metrics.PlacesIngested.WithLabelValues("invalid").Inc()
		m.logger.Warn("invalid place ingest event", "error", err)
		return
	}
	if evt.ID == "" || evt.Name == "" {
		m.metrics.PlacesIngested.WithLabelValues("invalid").Inc()
		m.logger.Warn("place ingest event missing id or name", "place_id", evt.ID)
		return
	}
	if evt.ReviewCount < 0 {
		evt.ReviewCount = 0
	}

	p := &store.Place{
		ID:          evt.ID,
		Name:        evt.Name,
		Lat:         evt.Lat,
		Lng:         evt.Lng,
		ReviewCount: evt.ReviewCount,
		Rating:      evt.Rating,
		PriceLevel:  evt.PriceLevel,
		Address:     evt.Address,
		Website:     evt.Website,
		Hours:       evt.Hours,
		PhotoRefs:   evt.PhotoRefs,
	}
	if err := m.store.UpsertPlace(ctx, p); err != nil {
		m.metrics.PlacesIngested.WithLabelValues("error").Inc()
		m.logger.Error("failed to upsert ingested place", "place_id", evt.ID, "error", err)
		return
	}
	m.metrics.PlacesIngested.WithLabelValues("ok").Inc()
	m.logger.Debug("place ingested", "place_id", evt.ID)
}
