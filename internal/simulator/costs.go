package simulator

import "github.com/shopspring/decimal"

// CostModel prices the friction of moving from one position vector to the
// next. Implementations must return a non-negative amount, which the ledger
// deducts from cash once per step transition.
type CostModel interface {
	// Cost receives the unit holdings before and after the transition and
	// the prices at both steps. Assets missing from a map are flat or
	// unpriced at that step.
	Cost(prevUnits, units, prevPrices, prices map[string]decimal.Decimal) decimal.Decimal
}

// ZeroCost is the default model: trading is free.
type ZeroCost struct{}

func (ZeroCost) Cost(_, _, _, _ map[string]decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// LinearCost charges factor * |traded notional| + bias * |traded units|,
// summed over assets. Trades are valued at the current step's price; an
// asset with no current price cannot be traded and contributes nothing.
type LinearCost struct {
	Factor decimal.Decimal
	Bias   decimal.Decimal
}

func (m LinearCost) Cost(prevUnits, units, prevPrices, prices map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for a, price := range prices {
		delta := units[a].Sub(prevUnits[a])
		if delta.IsZero() {
			continue
		}
		total = total.Add(m.Factor.Mul(delta.Mul(price).Abs()))
		total = total.Add(m.Bias.Mul(delta.Abs()))
	}
	return total
}
