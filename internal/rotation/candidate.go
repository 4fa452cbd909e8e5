package rotation

import "github.com/MikeSquared-Agency/Duel/internal/geo"

// Candidate is one rankable place. Candidates are treated as immutable once
// handed to Engine.Load.
type Candidate struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Location   *geo.Point `json:"location,omitempty"`
	Popularity int        `json:"popularity"`
	Rating     *float64   `json:"rating,omitempty"`
	PriceTier  *int       `json:"price_tier,omitempty"`
	Details    Details    `json:"details"`
}

// Details is display metadata carried through the engine untouched.
type Details struct {
	Address   string   `json:"address,omitempty"`
	Website   string   `json:"website,omitempty"`
	Hours     []string `json:"hours,omitempty"`
	PhotoRefs []string `json:"photo_refs,omitempty"`
}

// Valid reports whether the candidate carries the fields the engine relies on.
func (c Candidate) Valid() bool {
	return c.ID != "" && c.Location != nil
}

// Filter is the active eligibility constraint. A nil MaxPriceTier disables
// price filtering.
type Filter struct {
	MaxPriceTier *int `json:"max_price_tier"`
}

// Passes reports whether c satisfies the filter. Candidates without a price
// tier always pass.
func (f Filter) Passes(c *Candidate) bool {
	if f.MaxPriceTier == nil || c.PriceTier == nil {
		return true
	}
	return *c.PriceTier <= *f.MaxPriceTier
}

// Slot is one of the two visible display positions.
type Slot struct {
	Candidate *Candidate `json:"candidate"`
	Active    bool       `json:"active"`
}

// Empty reports whether the slot holds no candidate.
func (s Slot) Empty() bool {
	return s.Candidate == nil
}
