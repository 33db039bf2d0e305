package simulator

import (
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func days(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = day(i)
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// mkFrame builds a frame from per-asset cell strings, "" meaning no data.
func mkFrame(t *testing.T, times []time.Time, cols map[string][]string) *Frame {
	t.Helper()
	assets := make([]string, 0, len(cols))
	for a := range cols {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	f, err := NewFrame(times, assets)
	if err != nil {
		t.Fatalf("NewFrame() error = %v", err)
	}
	for a, cells := range cols {
		for i, cell := range cells {
			if cell == "" {
				continue
			}
			if err := f.Set(i, a, dec(cell)); err != nil {
				t.Fatalf("Set(%d, %s) error = %v", i, a, err)
			}
		}
	}
	return f
}

// drain runs the builder to exhaustion, applying fn (if non-nil) at every step.
func drain(t *testing.T, b *Builder, fn func(st *State)) {
	t.Helper()
	for {
		st, err := b.Advance()
		if err != nil {
			t.Fatalf("Advance() error = %v", err)
		}
		if st == nil {
			return
		}
		if fn != nil {
			fn(st)
		}
	}
}

func wantUnit(t *testing.T, f *Frame, i int, asset, want string) {
	t.Helper()
	got, ok := f.At(i, asset)
	if want == "" {
		if ok {
			t.Fatalf("At(%d, %s) = %s, want no data", i, asset, got)
		}
		return
	}
	if !ok {
		t.Fatalf("At(%d, %s) = no data, want %s", i, asset, want)
	}
	if !got.Equal(dec(want)) {
		t.Fatalf("At(%d, %s) = %s, want %s", i, asset, got, want)
	}
}

func wantValue(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s = %s, want %s", name, got, want)
	}
}
