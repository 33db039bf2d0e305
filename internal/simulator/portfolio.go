package simulator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio is the frozen, analyzable record of a finished (or truncated)
// backtest. It owns deep copies of the price and position tables and derives
// everything else — equity, cash, NAV, weights — as pure functions of
// (prices, units, initial AUM, cost model). It is immutable after
// construction and safe for concurrent readers.
type Portfolio struct {
	prices     *Frame
	units      *Frame
	initialAUM decimal.Decimal
	cost       CostModel

	equity  *Frame
	weights *Frame
	cash    []decimal.Decimal
	nav     []decimal.Decimal
	costs   []decimal.Decimal
}

// NewPortfolio freezes the given tables into a portfolio. The units table
// may cover a subset of the price table's timestamps and assets, but every
// defined unit cell needs a defined price (ErrDomain otherwise). The price
// table itself must satisfy the builder's construction invariants
// (ErrConfiguration otherwise). A nil cost model means free trading.
func NewPortfolio(prices, units *Frame, initialAUM decimal.Decimal, cost CostModel) (*Portfolio, error) {
	if prices == nil || units == nil {
		return nil, fmt.Errorf("portfolio: nil table: %w", ErrConfiguration)
	}
	if !initialAUM.IsPositive() {
		return nil, fmt.Errorf("portfolio: initial AUM %s must be positive: %w", initialAUM, ErrConfiguration)
	}
	if err := prices.checkContiguous(); err != nil {
		return nil, err
	}
	if err := prices.checkPositive(); err != nil {
		return nil, err
	}
	if cost == nil {
		cost = ZeroCost{}
	}

	aligned, err := alignUnits(prices, units)
	if err != nil {
		return nil, err
	}

	p := &Portfolio{
		prices:     prices.clone(),
		units:      aligned,
		initialAUM: initialAUM,
		cost:       cost,
	}
	if err := p.derive(); err != nil {
		return nil, err
	}
	return p, nil
}

// alignUnits reindexes the units table onto the price table's axis and
// columns, rejecting rows, columns or cells the price table cannot back.
func alignUnits(prices, units *Frame) (*Frame, error) {
	aligned, err := NewFrame(prices.times, prices.assets)
	if err != nil {
		return nil, err
	}
	for _, a := range units.Assets() {
		if !prices.HasAsset(a) {
			return nil, fmt.Errorf("portfolio: units reference unknown asset %q: %w", a, ErrDomain)
		}
	}
	for i, t := range units.Times() {
		row, ok := prices.IndexOf(t)
		if !ok {
			return nil, fmt.Errorf("portfolio: units reference timestamp %s absent from prices: %w",
				t.Format(time.RFC3339), ErrDomain)
		}
		for a, u := range units.Row(i) {
			if _, priced := prices.At(row, a); !priced {
				return nil, fmt.Errorf("portfolio: units held for %q at %s where no price is defined: %w",
					a, t.Format(time.RFC3339), ErrDomain)
			}
			if err := aligned.Set(row, a, u); err != nil {
				return nil, err
			}
		}
	}
	return aligned, nil
}

// derive computes equity, the sequential cash balance, NAV and weights. The
// cash walk is inherently ordered: each balance depends on the previous one
// and on the previous position vector.
func (p *Portfolio) derive() error {
	n := p.prices.Len()

	equity, _ := NewFrame(p.prices.times, p.prices.assets)
	weights, _ := NewFrame(p.prices.times, p.prices.assets)
	p.cash = make([]decimal.Decimal, n)
	p.nav = make([]decimal.Decimal, n)
	p.costs = make([]decimal.Decimal, n)

	balance := p.initialAUM
	prevUnits := map[string]decimal.Decimal{}
	prevPrices := map[string]decimal.Decimal{}

	for i := 0; i < n; i++ {
		curPrices := p.prices.Row(i)
		curUnits := p.units.Row(i)

		traded := decimal.Zero
		for a, price := range curPrices {
			if delta := curUnits[a].Sub(prevUnits[a]); !delta.IsZero() {
				traded = traded.Add(delta.Mul(price))
			}
		}
		fee := p.cost.Cost(prevUnits, curUnits, prevPrices, curPrices)
		if fee.IsNegative() {
			return fmt.Errorf("portfolio: cost model returned negative cost %s: %w", fee, ErrConfiguration)
		}
		p.costs[i] = fee
		balance = balance.Sub(traded).Sub(fee)
		p.cash[i] = balance

		nav := balance
		for a, u := range curUnits {
			value := u.Mul(curPrices[a])
			equity.Set(i, a, value)
			nav = nav.Add(value)
		}
		p.nav[i] = nav

		if !nav.IsZero() {
			for a := range curUnits {
				v, _ := equity.At(i, a)
				weights.Set(i, a, v.Div(nav))
			}
		}

		prevUnits = curUnits
		prevPrices = curPrices
	}

	p.equity = equity
	p.weights = weights
	return nil
}

// Len returns the number of time steps covered.
func (p *Portfolio) Len() int {
	return p.prices.Len()
}

// Times returns the covered time axis.
func (p *Portfolio) Times() []time.Time {
	return p.prices.Times()
}

// Assets returns the asset universe.
func (p *Portfolio) Assets() []string {
	return p.prices.Assets()
}

// InitialAUM returns the starting capital.
func (p *Portfolio) InitialAUM() decimal.Decimal {
	return p.initialAUM
}

// NAV returns the net asset value series: cash plus the mark-to-market value
// of all priced holdings at each step.
func (p *Portfolio) NAV() Series {
	return newSeries("NAV", p.prices.Times(), append([]decimal.Decimal(nil), p.nav...))
}

// Cash returns the running cash balance series.
func (p *Portfolio) Cash() Series {
	return newSeries("Cash", p.prices.Times(), append([]decimal.Decimal(nil), p.cash...))
}

// Costs returns the trading cost charged at each step transition.
func (p *Portfolio) Costs() Series {
	return newSeries("Costs", p.prices.Times(), append([]decimal.Decimal(nil), p.costs...))
}

// Equity returns the per-asset mark-to-market value table, undefined where
// the asset is unpriced or unheld.
func (p *Portfolio) Equity() *Frame {
	return p.equity.clone()
}

// Weights returns equity as a fraction of NAV, undefined where equity is
// undefined or the NAV is zero.
func (p *Portfolio) Weights() *Frame {
	return p.weights.clone()
}

// Prices returns a copy of the frozen price table.
func (p *Portfolio) Prices() *Frame {
	return p.prices.clone()
}

// Units returns a copy of the frozen position table.
func (p *Portfolio) Units() *Frame {
	return p.units.clone()
}

// PositionAt returns the unit holdings at one timestamp of the time axis.
func (p *Portfolio) PositionAt(t time.Time) (map[string]decimal.Decimal, error) {
	i, ok := p.prices.IndexOf(t)
	if !ok {
		return nil, fmt.Errorf("portfolio: timestamp %s not covered: %w", t.Format(time.RFC3339), ErrDomain)
	}
	return p.units.Row(i), nil
}

// Returns returns the per-asset price returns table, defined wherever an
// asset is priced at two consecutive steps.
func (p *Portfolio) Returns() *Frame {
	out, _ := NewFrame(p.prices.times, p.prices.assets)
	for i := 1; i < p.prices.Len(); i++ {
		for _, a := range p.prices.assets {
			cur, okCur := p.prices.At(i, a)
			prev, okPrev := p.prices.At(i-1, a)
			if okCur && okPrev {
				out.Set(i, a, cur.Sub(prev).Div(prev))
			}
		}
	}
	return out
}

// Profit returns the NAV increment at each step; the first observation is
// measured against the initial AUM, so step-zero costs show up there.
func (p *Portfolio) Profit() Series {
	vals := make([]decimal.Decimal, len(p.nav))
	prev := p.initialAUM
	for i, nav := range p.nav {
		vals[i] = nav.Sub(prev)
		prev = nav
	}
	return newSeries("Profit", p.prices.Times(), vals)
}

// Highwater returns the running maximum of NAV.
func (p *Portfolio) Highwater() Series {
	vals := make([]decimal.Decimal, len(p.nav))
	high := p.nav[0]
	for i, nav := range p.nav {
		if nav.GreaterThan(high) {
			high = nav
		}
		vals[i] = high
	}
	return newSeries("Highwater", p.prices.Times(), vals)
}

// Drawdown returns 1 - NAV/highwater: the fractional decline from the best
// NAV seen so far.
func (p *Portfolio) Drawdown() Series {
	high := p.Highwater()
	vals := make([]decimal.Decimal, len(p.nav))
	for i, nav := range p.nav {
		if h := high.ValueAt(i); !h.IsZero() {
			vals[i] = decimal.NewFromInt(1).Sub(nav.Div(h))
		}
	}
	return newSeries("Drawdown", p.prices.Times(), vals)
}

// TradesUnits returns the change in unit holdings at each step, defined
// wherever the asset is priced. Unheld means flat, so the first row equals
// the opening position.
func (p *Portfolio) TradesUnits() *Frame {
	out, _ := NewFrame(p.prices.times, p.prices.assets)
	prev := map[string]decimal.Decimal{}
	for i := 0; i < p.prices.Len(); i++ {
		cur := p.units.Row(i)
		for a := range p.prices.Row(i) {
			out.Set(i, a, cur[a].Sub(prev[a]))
		}
		prev = cur
	}
	return out
}

// TradesCurrency returns the trades valued at the current step's price.
// Positive entries are buys (cash outflows).
func (p *Portfolio) TradesCurrency() *Frame {
	trades := p.TradesUnits()
	for i := 0; i < trades.Len(); i++ {
		for a, delta := range trades.Row(i) {
			price, _ := p.prices.At(i, a)
			trades.Set(i, a, delta.Mul(price))
		}
	}
	return trades
}

// Turnover returns the absolute traded notional per asset and step.
func (p *Portfolio) Turnover() *Frame {
	trades := p.TradesCurrency()
	for i := 0; i < trades.Len(); i++ {
		for a, v := range trades.Row(i) {
			trades.Set(i, a, v.Abs())
		}
	}
	return trades
}
