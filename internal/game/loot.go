package game

import (
	"errors"
	"fmt"
)

// ErrEmptyCatalog is returned when a draw has no eligible cards anywhere.
var ErrEmptyCatalog = errors.New("no eligible cards in catalog")

// LootTable maps a uniform [0,1) draw to a rarity band by cumulative
// thresholds: the first band whose cumulative upper bound exceeds the draw
// wins. The same primitive backs shop offers, battle bonus cards and the
// prize wheel.
type LootTable struct {
	bands []RarityWeight
	total float64
}

// NewLootTable builds a table from ordered (rarity, weight) bands.
func NewLootTable(bands []RarityWeight) (*LootTable, error) {
	if len(bands) == 0 {
		return nil, errors.New("loot table needs at least one band")
	}
	var total float64
	for _, b := range bands {
		if b.Weight <= 0 {
			return nil, fmt.Errorf("loot table: non-positive weight for %s", b.Rarity)
		}
		total += b.Weight
	}
	return &LootTable{bands: bands, total: total}, nil
}

// PickRarity draws one rarity band.
func (t *LootTable) PickRarity(rng RandomSource) Rarity {
	u := rng.Float64() * t.total
	var cum float64
	for _, b := range t.bands {
		cum += b.Weight
		if u < cum {
			return b.Rarity
		}
	}
	// Only reachable through float rounding on the last band.
	return t.bands[len(t.bands)-1].Rarity
}

// bandIndex returns the position of a rarity in the table, or -1.
func (t *LootTable) bandIndex(r Rarity) int {
	for i, b := range t.bands {
		if b.Rarity == r {
			return i
		}
	}
	return -1
}

// DrawCard picks a rarity band, then uniformly one catalog card of that
// rarity. A band with zero eligible cards falls back to the nearest
// populated band in the table (earlier bands first on ties) rather than
// faulting; only a fully empty catalog is an error.
func (t *LootTable) DrawCard(cfg *Config, rng RandomSource) (Card, error) {
	rarity := t.PickRarity(rng)
	pool := cfg.CardsOfRarity(rarity)
	if len(pool) == 0 {
		pool = t.fallbackPool(cfg, rarity)
	}
	if len(pool) == 0 {
		// None of the table's bands have cards; last resort is the whole
		// catalog so a misconfigured table degrades instead of crashing.
		pool = cfg.Catalog
	}
	if len(pool) == 0 {
		return Card{}, ErrEmptyCatalog
	}
	return pool[intn(rng, len(pool))], nil
}

// fallbackPool searches outward from the empty band for the nearest band
// with eligible cards.
func (t *LootTable) fallbackPool(cfg *Config, from Rarity) []Card {
	start := t.bandIndex(from)
	if start < 0 {
		start = 0
	}
	for dist := 1; dist < len(t.bands); dist++ {
		for _, i := range []int{start - dist, start + dist} {
			if i < 0 || i >= len(t.bands) {
				continue
			}
			if pool := cfg.CardsOfRarity(t.bands[i].Rarity); len(pool) > 0 {
				return pool
			}
		}
	}
	return nil
}
