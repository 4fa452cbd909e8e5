// Package rotation hands out pairs of never-before-seen candidates from a
// popularity-ranked pool and swaps the unchosen one on every selection.
//
// An Engine is not safe for concurrent use; callers serialize access.
package rotation

import (
	"fmt"
	"sort"
)

// SlotCount is the number of concurrently visible slots.
const SlotCount = 2

// Engine owns the pool, the filter, the shown history and the two slots for
// one session.
type Engine struct {
	pool   []*Candidate
	filter Filter
	shown  map[string]struct{}
	slots  [SlotCount]Slot
	epoch  int
}

// NewEngine returns an engine with an empty pool and no filter.
func NewEngine() *Engine {
	return &Engine{shown: make(map[string]struct{})}
}

// Load replaces the pool with candidates stably sorted by popularity
// descending, clears the shown history and empties both slots. Candidates
// without an ID or location, and repeats of an ID already seen in the input,
// are dropped; the number dropped is returned. Slots are not populated.
func (e *Engine) Load(candidates []Candidate) int {
	pool := make([]*Candidate, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	dropped := 0
	for i := range candidates {
		c := candidates[i]
		if !c.Valid() {
			dropped++
			continue
		}
		if _, dup := seen[c.ID]; dup {
			dropped++
			continue
		}
		if c.Popularity < 0 {
			c.Popularity = 0
		}
		seen[c.ID] = struct{}{}
		pool = append(pool, &c)
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Popularity > pool[j].Popularity
	})

	e.pool = pool
	e.shown = make(map[string]struct{})
	e.slots = [SlotCount]Slot{}
	return dropped
}

// SetFilter replaces the filter and starts a new epoch: every candidate
// becomes eligible again. The slots keep their contents and active flag.
func (e *Engine) SetFilter(maxPriceTier *int) {
	var f Filter
	if maxPriceTier != nil {
		v := *maxPriceTier
		f.MaxPriceTier = &v
	}
	e.filter = f
	e.shown = make(map[string]struct{})
	e.epoch++
}

// NextEligible returns the highest-ranked candidate that passes the filter and
// has not been shown this epoch, marking it shown. It returns nil once the
// eligible set is exhausted.
func (e *Engine) NextEligible() *Candidate {
	for _, c := range e.pool {
		if _, ok := e.shown[c.ID]; ok {
			continue
		}
		if !e.filter.Passes(c) {
			continue
		}
		e.shown[c.ID] = struct{}{}
		return c
	}
	return nil
}

// Refill fills slot 0 and then slot 1 from NextEligible and clears both
// active flags. Slots that cannot be filled are left empty.
func (e *Engine) Refill() [SlotCount]*Candidate {
	var out [SlotCount]*Candidate
	for i := range e.slots {
		out[i] = e.NextEligible()
		e.slots[i] = Slot{Candidate: out[i]}
	}
	return out
}

// Select marks slot as the chosen one and replaces the other slot with the
// next eligible candidate, which is returned. Both visible candidates count
// as shown, so the displaced one is never offered again this epoch. When
// nothing is left the other slot is emptied and nil is returned. Selecting an
// empty slot is a no-op returning nil.
//
// Select panics if slot is not 0 or 1.
func (e *Engine) Select(slot int) *Candidate {
	if slot < 0 || slot >= SlotCount {
		panic(fmt.Sprintf("rotation: invalid slot index %d", slot))
	}
	if e.slots[slot].Empty() {
		return nil
	}

	other := 1 - slot
	// Slots survive SetFilter, so their candidates may be missing from a
	// freshly cleared history.
	for _, s := range e.slots {
		if !s.Empty() {
			e.shown[s.Candidate.ID] = struct{}{}
		}
	}
	e.slots[slot].Active = true
	next := e.NextEligible()
	e.slots[other] = Slot{Candidate: next}
	return next
}

// Slots returns a copy of the current slots.
func (e *Engine) Slots() [SlotCount]Slot {
	return e.slots
}

// Filter returns the active filter.
func (e *Engine) Filter() Filter {
	return e.filter
}

// Epoch counts filter changes since the engine was created.
func (e *Engine) Epoch() int {
	return e.epoch
}

// PoolSize is the number of candidates accepted by the last Load.
func (e *Engine) PoolSize() int {
	return len(e.pool)
}

// Remaining counts candidates that NextEligible could still return this epoch.
func (e *Engine) Remaining() int {
	n := 0
	for _, c := range e.pool {
		if _, ok := e.shown[c.ID]; ok {
			continue
		}
		if e.filter.Passes(c) {
			n++
		}
	}
	return n
}

// ValidSlot reports whether i addresses one of the two slots.
func ValidSlot(i int) bool {
	return i >= 0 && i < SlotCount
}
