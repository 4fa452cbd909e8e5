package hermes

import "time"

type SessionCreatedEvent struct {
	SessionID    string  `json:"session_id"`
	PoolSize     int     `json:"pool_size"`
	Rejected     int     `json:"rejected"`
	OriginLat    float64 `json:"origin_lat"`
	OriginLng    float64 `json:"origin_lng"`
	MaxPriceTier *int    `json:"max_price_tier,omitempty"`
}

type SessionRefilledEvent struct {
	SessionID string    `json:"session_id"`
	Epoch     int       `json:"epoch"`
	Slots     [2]string `json:"slots"`
}

type FilterChangedEvent struct {
	SessionID    string `json:"session_id"`
	Epoch        int    `json:"epoch"`
	MaxPriceTier *int   `json:"max_price_tier,omitempty"`
}

type SelectionEvent struct {
	SessionID   string  `json:"session_id"`
	Epoch       int     `json:"epoch"`
	Slot        int     `json:"slot"`
	ChosenID    string  `json:"chosen_id"`
	InstalledID *string `json:"installed_id,omitempty"`
}

// ExhaustedEvent is published when a selection leaves the opposite slot empty.
type ExhaustedEvent struct {
	SessionID string `json:"session_id"`
	Epoch     int    `json:"epoch"`
	EmptySlot int    `json:"empty_slot"`
}

type SessionExpiredEvent struct {
	SessionID string `json:"session_id"`
	IdleFor   string `json:"idle_for"`
}

// PlaceIngestEvent is what upstream enrichers publish on SubjectPlaceIngest.
type PlaceIngestEvent struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	ReviewCount int      `json:"review_count"`
	Rating      *float64 `json:"rating,omitempty"`
	PriceLevel  *int     `json:"price_level,omitempty"`
	Address     string   `json:"address,omitempty"`
	Website     string   `json:"website,omitempty"`
	Hours       []string `json:"hours,omitempty"`
	PhotoRefs   []string `json:"photo_refs,omitempty"`
}

type StatsEvent struct {
	ActiveSessions int       `json:"active_sessions"`
	Selections     int       `json:"selections"`
	Exhaustions    int       `json:"exhaustions"`
	Timestamp      time.Time `json:"timestamp"`
}
