package equalweight

import (
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"portsim/internal/engine"
	"portsim/internal/simulator"
)

func day(i int) time.Time {
	return time.Date(2024, time.January, 1+i, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mkFrame(t *testing.T, n int, cols map[string][]string) *simulator.Frame {
	t.Helper()
	times := make([]time.Time, n)
	for i := range times {
		times[i] = day(i)
	}
	assets := make([]string, 0, len(cols))
	for a := range cols {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	f, err := simulator.NewFrame(times, assets)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	for a, vals := range cols {
		for i, v := range vals {
			if v == "" {
				continue
			}
			if err := f.Set(i, a, dec(v)); err != nil {
				t.Fatalf("Set(%d, %s): %v", i, a, err)
			}
		}
	}
	return f
}

func TestRebalanceSplitsEvenly(t *testing.T) {
	prices := mkFrame(t, 2, map[string][]string{
		"AAA": {"100", "100"},
		"BBB": {"", "50"},
	})
	b, err := simulator.New(prices, dec("1000"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	strat := New()

	// Step 0: only AAA is listed, so it takes the full weight.
	state, err := b.Advance()
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	target, err := strat.Rebalance(state)
	if err != nil {
		t.Fatalf("Rebalance: %v", err)
	}
	if target.Kind != engine.TargetWeights {
		t.Fatalf("target kind = %v, want TargetWeights", target.Kind)
	}
	if !target.Values["AAA"].Equal(dec("1")) {
		t.Errorf("weight AAA = %s, want 1", target.Values["AAA"])
	}
	if _, ok := target.Values["BBB"]; ok {
		t.Error("unlisted asset must not receive a weight")
	}

	// Step 1: both are listed.
	state, err = b.Advance()
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	target, err = strat.Rebalance(state)
	if err != nil {
		t.Fatalf("Rebalance: %v", err)
	}
	for _, a := range []string{"AAA", "BBB"} {
		if !target.Values[a].Equal(dec("0.5")) {
			t.Errorf("weight %s = %s, want 0.5", a, target.Values[a])
		}
	}
}

func TestFullRun(t *testing.T) {
	prices := mkFrame(t, 3, map[string][]string{
		"AAA": {"100", "100", "100"},
		"BBB": {"200", "200", "200"},
	})
	cfg := engine.NewRunConfig(dec("2000"), simulator.ZeroCost{}, false)

	portfolio, err := engine.NewEngine(prices, New(), cfg, zerolog.Nop()).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Flat prices: every step holds 10 of AAA and 5 of BBB, fully invested.
	units := portfolio.Units()
	for i := 0; i < 3; i++ {
		if got, _ := units.At(i, "AAA"); !got.Equal(dec("10")) {
			t.Errorf("units AAA[%d] = %s, want 10", i, got)
		}
		if got, _ := units.At(i, "BBB"); !got.Equal(dec("5")) {
			t.Errorf("units BBB[%d] = %s, want 5", i, got)
		}
	}
	cash := portfolio.Cash()
	for i := 0; i < 3; i++ {
		if !cash.ValueAt(i).IsZero() {
			t.Errorf("cash[%d] = %s, want 0", i, cash.ValueAt(i))
		}
	}
}
