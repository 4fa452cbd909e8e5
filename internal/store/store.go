package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Place is a catalogue entry as delivered by the upstream enrichment step.
type Place struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Lat         float64  `json:"lat" yaml:"lat"`
	Lng         float64  `json:"lng" yaml:"lng"`
	ReviewCount int      `json:"review_count" yaml:"review_count"`
	Rating      *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	PriceLevel  *int     `json:"price_level,omitempty" yaml:"price_level,omitempty"`
	Address     string   `json:"address,omitempty" yaml:"address,omitempty"`
	Website     string   `json:"website,omitempty" yaml:"website,omitempty"`
	Hours       []string `json:"hours,omitempty" yaml:"hours,omitempty"`
	PhotoRefs   []string `json:"photo_refs,omitempty" yaml:"photo_refs,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

type PlaceFilter struct {
	MaxPriceLevel *int
	Limit         int
	Offset        int
}

// SelectionEvent records one Select call on a session.
type SelectionEvent struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	Epoch       int       `json:"epoch"`
	Slot        int       `json:"slot"`
	ChosenID    string    `json:"chosen_id"`
	InstalledID *string   `json:"installed_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Stats struct {
	TotalPlaces     int `json:"total_places"`
	PricedPlaces    int `json:"priced_places"`
	TotalSelections int `json:"total_selections"`
	Exhaustions     int `json:"exhaustions"`
}

type Store interface {
	UpsertPlace(ctx context.Context, p *Place) error
	GetPlace(ctx context.Context, id string) (*Place, error)
	ListPlaces(ctx context.Context, filter PlaceFilter) ([]*Place, error)
	DeletePlace(ctx context.Context, id string) error

	CreateSelectionEvent(ctx context.Context, e *SelectionEvent) error
	GetSelectionEvents(ctx context.Context, sessionID uuid.UUID) ([]*SelectionEvent, error)

	GetStats(ctx context.Context) (*Stats, error)

	Close() error
}
