package simulator

import (
	"time"

	"github.com/shopspring/decimal"
)

// State is an immutable snapshot of the builder at one time step. It is
// produced fresh on every advance and does not reflect writes made after its
// emission; read the next step's state to observe them.
type State struct {
	times  []time.Time
	days   int
	assets []string
	prices map[string]decimal.Decimal
	units  map[string]decimal.Decimal
	aum    decimal.Decimal
	profit decimal.Decimal
}

// Times returns the timestamps seen so far, ending at the current step.
func (s *State) Times() []time.Time {
	return append([]time.Time(nil), s.times...)
}

// Time returns the timestamp of the current step.
func (s *State) Time() time.Time {
	return s.times[len(s.times)-1]
}

// Days returns the number of calendar days since the previous step, zero at
// the first step.
func (s *State) Days() int {
	return s.days
}

// Assets returns the tickers tradable at the current step, i.e. those with a
// defined price right now.
func (s *State) Assets() []string {
	return append([]string(nil), s.assets...)
}

// Tradable reports whether the asset has a defined price at the current step.
func (s *State) Tradable(asset string) bool {
	_, ok := s.prices[asset]
	return ok
}

// Prices returns the current prices of the tradable assets.
func (s *State) Prices() map[string]decimal.Decimal {
	return copyVector(s.prices)
}

// Price returns the current price of one asset.
func (s *State) Price(asset string) (decimal.Decimal, bool) {
	p, ok := s.prices[asset]
	return p, ok
}

// Units returns the unit holdings committed so far, keyed by asset.
func (s *State) Units() map[string]decimal.Decimal {
	return copyVector(s.units)
}

// Unit returns the committed unit count for one asset; flat assets report
// ok=false.
func (s *State) Unit(asset string) (decimal.Decimal, bool) {
	u, ok := s.units[asset]
	return u, ok
}

// AUM returns the aggregate capital under management at the current step.
func (s *State) AUM() decimal.Decimal {
	return s.aum
}

// NAV returns the net asset value, which the builder keeps equal to the AUM
// by accruing mark-to-market profit on every advance.
func (s *State) NAV() decimal.Decimal {
	return s.aum
}

// Profit returns the mark-to-market profit accrued between the previous and
// the current step.
func (s *State) Profit() decimal.Decimal {
	return s.profit
}

// Value returns the mark-to-market value of all holdings, priced now.
// Holdings without a current price contribute nothing.
func (s *State) Value() decimal.Decimal {
	total := decimal.Zero
	for a, u := range s.units {
		if p, ok := s.prices[a]; ok {
			total = total.Add(u.Mul(p))
		}
	}
	return total
}

// Cash returns the uninvested capital: NAV minus the value of holdings.
func (s *State) Cash() decimal.Decimal {
	return s.aum.Sub(s.Value())
}

// CashPositions returns the mark-to-market value per held, priced asset.
func (s *State) CashPositions() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.units))
	for a, u := range s.units {
		if p, ok := s.prices[a]; ok {
			out[a] = u.Mul(p)
		}
	}
	return out
}

// GMV returns the gross market value: the sum of absolute position values.
func (s *State) GMV() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s.CashPositions() {
		total = total.Add(v.Abs())
	}
	return total
}

// Weights returns the fraction of NAV held in each priced asset. The map is
// empty when the NAV is zero.
func (s *State) Weights() map[string]decimal.Decimal {
	if s.aum.IsZero() {
		return map[string]decimal.Decimal{}
	}
	out := make(map[string]decimal.Decimal, len(s.units))
	for a, v := range s.CashPositions() {
		out[a] = v.Div(s.aum)
	}
	return out
}

// Leverage returns the sum of absolute weights.
func (s *State) Leverage() decimal.Decimal {
	total := decimal.Zero
	for _, w := range s.Weights() {
		total = total.Add(w.Abs())
	}
	return total
}

func copyVector(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
