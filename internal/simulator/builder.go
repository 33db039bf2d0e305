package simulator

import (
	"fmt"
	"iter"
	"time"

	"github.com/shopspring/decimal"
)

// Builder assembles a position table one time step at a time on top of a
// price frame, and freezes the result into a Portfolio.
//
// The protocol is a strict handshake: Advance emits one immutable State per
// timestamp of the price frame, in order; between advances the caller may
// write the current step's target position through SetUnits, SetWeights or
// SetCashAmounts. The sequence is finite and not restartable. Stopping early
// is allowed: Build then produces a portfolio truncated to the visited
// prefix of the time axis.
//
// A Builder is single-owner and not safe for concurrent use. It borrows the
// price frame read-only for its whole lifetime.
type Builder struct {
	prices     *Frame
	units      *Frame
	initialAUM decimal.Decimal
	cost       CostModel

	// live accounting, updated on every advance
	aum      decimal.Decimal
	profit   decimal.Decimal
	position map[string]decimal.Decimal

	idx     int
	started bool
	done    bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithCostModel attaches a trading-cost model, consulted by the built
// portfolio's cash reconstruction. Defaults to ZeroCost.
func WithCostModel(m CostModel) Option {
	return func(b *Builder) { b.cost = m }
}

// New validates the price frame and returns a builder holding initialAUM in
// cash. It fails with ErrConfiguration when the frame has interior gaps or
// non-positive prices, or when initialAUM is not positive.
func New(prices *Frame, initialAUM decimal.Decimal, opts ...Option) (*Builder, error) {
	if prices == nil {
		return nil, fmt.Errorf("builder: nil price frame: %w", ErrConfiguration)
	}
	if !initialAUM.IsPositive() {
		return nil, fmt.Errorf("builder: initial AUM %s must be positive: %w", initialAUM, ErrConfiguration)
	}
	if err := prices.checkContiguous(); err != nil {
		return nil, err
	}
	if err := prices.checkPositive(); err != nil {
		return nil, err
	}

	units, err := NewFrame(prices.times, prices.assets)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		prices:     prices,
		units:      units,
		initialAUM: initialAUM,
		cost:       ZeroCost{},
		aum:        initialAUM,
		position:   map[string]decimal.Decimal{},
		idx:        -1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Advance commits the pending step and emits the state of the next one.
// It returns (nil, nil) exactly once, when the time axis is exhausted.
// Advancing again after that fails with ErrUsage: the position table built
// during the first pass is final.
func (b *Builder) Advance() (*State, error) {
	if b.done {
		return nil, fmt.Errorf("builder: iteration exhausted, not restartable: %w", ErrUsage)
	}

	if !b.started {
		b.started = true
		b.idx = 0
		b.profit = decimal.Zero
		return b.snapshot(), nil
	}

	b.commitRow(b.idx)
	prevPrices := b.prices.Row(b.idx)

	if b.idx+1 == b.prices.Len() {
		b.done = true
		return nil, nil
	}
	b.idx++

	// Accrue mark-to-market profit into AUM. A holding that loses its price
	// drops out of the after-sum: its value is gone, not converted to cash.
	curPrices := b.prices.Row(b.idx)
	before, after := decimal.Zero, decimal.Zero
	for a, u := range b.position {
		if p, ok := prevPrices[a]; ok {
			before = before.Add(u.Mul(p))
		}
		if p, ok := curPrices[a]; ok {
			after = after.Add(u.Mul(p))
		}
	}
	b.profit = after.Sub(before)
	b.aum = b.aum.Add(b.profit)

	return b.snapshot(), nil
}

// Steps wraps the Advance/write handshake as a single-use sequence. It fails
// with ErrUsage when iteration has already started.
func (b *Builder) Steps() (iter.Seq2[time.Time, *State], error) {
	if b.started {
		return nil, fmt.Errorf("builder: iteration already started: %w", ErrUsage)
	}
	seq := func(yield func(time.Time, *State) bool) {
		for {
			st, err := b.Advance()
			if err != nil || st == nil {
				return
			}
			if !yield(st.Time(), st) {
				return
			}
		}
	}
	return seq, nil
}

// SetUnits writes target unit counts for the current step. Assets without a
// price at the current step are rejected with ErrDomain before anything is
// written. Assets not named keep their carried-forward holdings.
func (b *Builder) SetUnits(units map[string]decimal.Decimal) error {
	if err := b.writable(); err != nil {
		return err
	}
	if err := b.checkTradable(units); err != nil {
		return err
	}
	for a, u := range units {
		if err := b.units.Set(b.idx, a, u); err != nil {
			return err
		}
		b.position[a] = u
	}
	return nil
}

// SetWeights writes target positions as fractions of the current AUM,
// converting to units at the current prices. Weights need not sum to one:
// leverage and a cash residual are both allowed.
func (b *Builder) SetWeights(weights map[string]decimal.Decimal) error {
	if err := b.writable(); err != nil {
		return err
	}
	if err := b.checkTradable(weights); err != nil {
		return err
	}
	units := make(map[string]decimal.Decimal, len(weights))
	for a, w := range weights {
		price, _ := b.prices.At(b.idx, a)
		units[a] = b.aum.Mul(w).Div(price)
	}
	return b.SetUnits(units)
}

// SetCashAmounts writes target positions as currency notionals, converting
// to units at the current prices.
func (b *Builder) SetCashAmounts(amounts map[string]decimal.Decimal) error {
	if err := b.writable(); err != nil {
		return err
	}
	if err := b.checkTradable(amounts); err != nil {
		return err
	}
	units := make(map[string]decimal.Decimal, len(amounts))
	for a, notional := range amounts {
		price, _ := b.prices.At(b.idx, a)
		units[a] = notional.Div(price)
	}
	return b.SetUnits(units)
}

// SetAUM overrides the capital used by weight conversions from the current
// step on. It does not alter prior steps.
func (b *Builder) SetAUM(aum decimal.Decimal) error {
	if err := b.writable(); err != nil {
		return err
	}
	b.aum = aum
	return nil
}

// Build freezes the visited prefix of the price and position tables into an
// immutable Portfolio. It fails with ErrUsage before the first advance.
// Calling it twice without further writes yields equal portfolios.
func (b *Builder) Build() (*Portfolio, error) {
	if !b.started {
		return nil, fmt.Errorf("builder: build before iteration: %w", ErrUsage)
	}
	b.commitRow(b.idx)
	n := b.idx + 1
	return NewPortfolio(b.prices.truncate(n), b.units.truncate(n), b.initialAUM, b.cost)
}

// Units returns a copy of the position table written so far.
func (b *Builder) Units() *Frame {
	return b.units.clone()
}

// InitialAUM returns the capital the builder started with.
func (b *Builder) InitialAUM() decimal.Decimal {
	return b.initialAUM
}

// commitRow finalizes row i: tradable assets without an explicit value
// inherit the previous step's holdings, and the live position becomes the
// committed row. Idempotent.
func (b *Builder) commitRow(i int) {
	for a := range b.prices.Row(i) {
		if _, set := b.units.At(i, a); set {
			continue
		}
		if u, held := b.position[a]; held {
			b.units.Set(i, a, u)
		}
	}
	b.position = b.units.Row(i)
}

func (b *Builder) writable() error {
	if !b.started {
		return fmt.Errorf("builder: no current step before the first advance: %w", ErrUsage)
	}
	if b.done {
		return fmt.Errorf("builder: iteration exhausted: %w", ErrUsage)
	}
	return nil
}

func (b *Builder) checkTradable(values map[string]decimal.Decimal) error {
	for a := range values {
		if _, ok := b.prices.At(b.idx, a); !ok {
			return fmt.Errorf("builder: asset %q not tradable at %s: %w",
				a, b.prices.TimeAt(b.idx).Format(time.RFC3339), ErrDomain)
		}
	}
	return nil
}

func (b *Builder) snapshot() *State {
	prices := b.prices.Row(b.idx)
	assets := make([]string, 0, len(prices))
	for _, a := range b.prices.assets {
		if _, ok := prices[a]; ok {
			assets = append(assets, a)
		}
	}

	days := 0
	if b.idx > 0 {
		days = int(b.prices.TimeAt(b.idx).Sub(b.prices.TimeAt(b.idx-1)).Hours() / 24)
	}

	return &State{
		times:  append([]time.Time(nil), b.prices.times[:b.idx+1]...),
		days:   days,
		assets: assets,
		prices: prices,
		units:  copyVector(b.position),
		aum:    b.aum,
		profit: b.profit,
	}
}
