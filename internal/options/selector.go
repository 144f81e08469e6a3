package options

import "math"

// Filter holds the hard gates a contract must pass before ranking.
type Filter struct {
	DTEMin          int     `yaml:"dte_min"`
	DTEMax          int     `yaml:"dte_max"`
	DeltaMin        float64 `yaml:"delta_min"`
	DeltaMax        float64 `yaml:"delta_max"`
	MinOpenInterest int     `yaml:"min_open_interest"`
}

// Selector picks the single best contract from a chain snapshot.
type Selector struct {
	filter Filter
}

// NewSelector creates a Selector with the given hard filter.
func NewSelector(filter Filter) *Selector {
	return &Selector{filter: filter}
}

// Filter returns the hard gates, so the chain fetch can pre-narrow on
// expiration instead of paging the whole chain.
func (s *Selector) Filter() Filter {
	return s.filter
}

// Select returns the best candidate of the requested type, or false when
// nothing in the chain passes the hard gates. An empty result is a normal
// outcome that suppresses the trade, not an error.
//
// Gates: DTE inside [DTEMin, DTEMax], |delta| inside [DeltaMin, DeltaMax],
// open interest at or above the floor, and a positive quoted premium.
// Ranking among survivors: delta magnitude closest to the midpoint of the
// delta range, then higher liquidity, then DTE closest to the midpoint of
// the DTE range.
func (s *Selector) Select(optType Type, chain []Contract) (Contract, bool) {
	deltaMid := (s.filter.DeltaMin + s.filter.DeltaMax) / 2
	dteMid := float64(s.filter.DTEMin+s.filter.DTEMax) / 2

	var best Contract
	found := false
	for _, c := range chain {
		if !s.passes(optType, c) {
			continue
		}
		if !found || s.better(c, best, deltaMid, dteMid) {
			best = c
			found = true
		}
	}
	return best, found
}

func (s *Selector) passes(optType Type, c Contract) bool {
	if c.Type != optType {
		return false
	}
	if c.DTE < s.filter.DTEMin || c.DTE > s.filter.DTEMax {
		return false
	}
	d := math.Abs(c.Delta)
	if d < s.filter.DeltaMin || d > s.filter.DeltaMax {
		return false
	}
	if c.OpenInterest < int64(s.filter.MinOpenInterest) {
		return false
	}
	return c.Premium() > 0
}

// better reports whether a should outrank b.
func (s *Selector) better(a, b Contract, deltaMid, dteMid float64) bool {
	da := math.Abs(math.Abs(a.Delta) - deltaMid)
	db := math.Abs(math.Abs(b.Delta) - deltaMid)
	if da != db {
		return da < db
	}
	if a.Liquidity() != b.Liquidity() {
		return a.Liquidity() > b.Liquidity()
	}
	return math.Abs(float64(a.DTE)-dteMid) < math.Abs(float64(b.DTE)-dteMid)
}
