package simulator

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Frame is a table of decimal values indexed by timestamp (rows) and asset
// ticker (columns). Cells with Valid=false carry no data; a price frame uses
// them to mark the span before an asset lists and after it delists.
//
// A Frame is not safe for concurrent use.
type Frame struct {
	times  []time.Time
	assets []string
	cols   map[string][]decimal.NullDecimal
}

// NewFrame creates an empty frame over the given time axis and asset columns.
// The time axis must be non-empty and strictly increasing, and tickers must
// be unique.
func NewFrame(times []time.Time, assets []string) (*Frame, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("frame: empty time axis: %w", ErrConfiguration)
	}
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return nil, fmt.Errorf("frame: time axis not strictly increasing at %s: %w",
				times[i].Format(time.RFC3339), ErrConfiguration)
		}
	}

	cols := make(map[string][]decimal.NullDecimal, len(assets))
	for _, a := range assets {
		if _, ok := cols[a]; ok {
			return nil, fmt.Errorf("frame: duplicate asset %q: %w", a, ErrConfiguration)
		}
		cols[a] = make([]decimal.NullDecimal, len(times))
	}

	f := &Frame{
		times:  append([]time.Time(nil), times...),
		assets: append([]string(nil), assets...),
		cols:   cols,
	}
	return f, nil
}

// Len returns the number of rows (timestamps).
func (f *Frame) Len() int {
	return len(f.times)
}

// Times returns a copy of the time axis.
func (f *Frame) Times() []time.Time {
	return append([]time.Time(nil), f.times...)
}

// TimeAt returns the timestamp of row i.
func (f *Frame) TimeAt(i int) time.Time {
	return f.times[i]
}

// Assets returns a copy of the column tickers in declaration order.
func (f *Frame) Assets() []string {
	return append([]string(nil), f.assets...)
}

// HasAsset reports whether the frame has a column for the given ticker.
func (f *Frame) HasAsset(asset string) bool {
	_, ok := f.cols[asset]
	return ok
}

// IndexOf returns the row index of the given timestamp.
func (f *Frame) IndexOf(t time.Time) (int, bool) {
	i := sort.Search(len(f.times), func(i int) bool { return !f.times[i].Before(t) })
	if i < len(f.times) && f.times[i].Equal(t) {
		return i, true
	}
	return 0, false
}

// Set writes a value into row i of the given asset column.
func (f *Frame) Set(i int, asset string, v decimal.Decimal) error {
	col, ok := f.cols[asset]
	if !ok {
		return fmt.Errorf("frame: unknown asset %q: %w", asset, ErrDomain)
	}
	if i < 0 || i >= len(f.times) {
		return fmt.Errorf("frame: row %d out of range: %w", i, ErrDomain)
	}
	col[i] = decimal.NullDecimal{Decimal: v, Valid: true}
	return nil
}

// At returns the value at row i for the given asset. The second return is
// false when the cell holds no data or the asset is unknown.
func (f *Frame) At(i int, asset string) (decimal.Decimal, bool) {
	col, ok := f.cols[asset]
	if !ok || i < 0 || i >= len(f.times) {
		return decimal.Decimal{}, false
	}
	cell := col[i]
	return cell.Decimal, cell.Valid
}

// Row returns the defined cells of row i, keyed by asset.
func (f *Frame) Row(i int) map[string]decimal.Decimal {
	row := make(map[string]decimal.Decimal)
	for _, a := range f.assets {
		if cell := f.cols[a][i]; cell.Valid {
			row[a] = cell.Decimal
		}
	}
	return row
}

// validRange returns the first and last row index holding data for the
// asset. ok is false when the column is entirely empty.
func (f *Frame) validRange(asset string) (first, last int, ok bool) {
	col, exists := f.cols[asset]
	if !exists {
		return 0, 0, false
	}
	first, last = -1, -1
	for i, cell := range col {
		if cell.Valid {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return first, last, first >= 0
}

// checkContiguous verifies that no column has an interior gap: data may be
// missing before listing and after delisting, never in between.
func (f *Frame) checkContiguous() error {
	for _, a := range f.assets {
		first, last, ok := f.validRange(a)
		if !ok {
			continue
		}
		for i := first; i <= last; i++ {
			if !f.cols[a][i].Valid {
				return fmt.Errorf("frame: asset %q has a gap at %s: %w",
					a, f.times[i].Format(time.RFC3339), ErrConfiguration)
			}
		}
	}
	return nil
}

// checkPositive verifies that every defined cell is strictly positive.
func (f *Frame) checkPositive() error {
	for _, a := range f.assets {
		for i, cell := range f.cols[a] {
			if cell.Valid && !cell.Decimal.IsPositive() {
				return fmt.Errorf("frame: asset %q has non-positive value %s at %s: %w",
					a, cell.Decimal, f.times[i].Format(time.RFC3339), ErrConfiguration)
			}
		}
	}
	return nil
}

// truncate returns a deep copy of the first n rows.
func (f *Frame) truncate(n int) *Frame {
	out := &Frame{
		times:  append([]time.Time(nil), f.times[:n]...),
		assets: append([]string(nil), f.assets...),
		cols:   make(map[string][]decimal.NullDecimal, len(f.assets)),
	}
	for _, a := range f.assets {
		out.cols[a] = append([]decimal.NullDecimal(nil), f.cols[a][:n]...)
	}
	return out
}

func (f *Frame) clone() *Frame {
	return f.truncate(len(f.times))
}

// Series is a named time-indexed vector of decimals, always fully defined.
type Series struct {
	name  string
	times []time.Time
	vals  []decimal.Decimal
}

func newSeries(name string, times []time.Time, vals []decimal.Decimal) Series {
	return Series{name: name, times: times, vals: vals}
}

// Name returns the series name, e.g. "NAV".
func (s Series) Name() string {
	return s.name
}

// Len returns the number of observations.
func (s Series) Len() int {
	return len(s.vals)
}

// TimeAt returns the timestamp of observation i.
func (s Series) TimeAt(i int) time.Time {
	return s.times[i]
}

// ValueAt returns the value of observation i.
func (s Series) ValueAt(i int) decimal.Decimal {
	return s.vals[i]
}

// Times returns a copy of the series time axis.
func (s Series) Times() []time.Time {
	return append([]time.Time(nil), s.times...)
}

// Values returns a copy of the series values.
func (s Series) Values() []decimal.Decimal {
	return append([]decimal.Decimal(nil), s.vals...)
}
