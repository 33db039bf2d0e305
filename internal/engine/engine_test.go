package engine

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

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
	assets := make([]string, 0, len(cols))
	for i := range times {
		times[i] = day(i)
	}
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

// fakeStrategy replays a fixed schedule of targets, one per step.
type fakeStrategy struct {
	name    string
	targets []Target
	errs    []error
	calls   int
}

func (s *fakeStrategy) Name() string {
	return s.name
}

func (s *fakeStrategy) Rebalance(state *simulator.State) (Target, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return Target{}, s.errs[i]
	}
	if i < len(s.targets) {
		return s.targets[i], nil
	}
	return Hold(), nil
}

func TestEngineRun(t *testing.T) {
	prices := mkFrame(t, 3, map[string][]string{
		"AAA": {"100", "110", "120"},
		"BBB": {"50", "40", "60"},
	})
	strat := &fakeStrategy{
		name: "halves",
		targets: []Target{
			Weights(map[string]decimal.Decimal{"AAA": dec("0.5"), "BBB": dec("0.5")}),
		},
	}
	cfg := NewRunConfig(dec("1000"), simulator.ZeroCost{}, false)
	eng := NewEngine(prices, strat, cfg, zerolog.Nop())

	portfolio, err := eng.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strat.calls != 3 {
		t.Fatalf("strategy called %d times, want 3", strat.calls)
	}

	// 5 units AAA and 10 units BBB, held to the end.
	nav := portfolio.NAV()
	wantNAV := []string{"1000", "950", "1200"}
	for i, want := range wantNAV {
		if got := nav.ValueAt(i); !got.Equal(dec(want)) {
			t.Errorf("NAV[%d] = %s, want %s", i, got, want)
		}
	}
	pos, err := portfolio.PositionAt(day(2))
	if err != nil {
		t.Fatalf("PositionAt: %v", err)
	}
	if !pos["AAA"].Equal(dec("5")) || !pos["BBB"].Equal(dec("10")) {
		t.Errorf("final position = %v, want AAA=5 BBB=10", pos)
	}
}

func TestEngineHoldKeepsPosition(t *testing.T) {
	prices := mkFrame(t, 3, map[string][]string{
		"AAA": {"100", "100", "100"},
	})
	strat := &fakeStrategy{
		name: "buy once",
		targets: []Target{
			Units(map[string]decimal.Decimal{"AAA": dec("4")}),
			Hold(),
			Hold(),
		},
	}
	cfg := NewRunConfig(dec("1000"), simulator.ZeroCost{}, false)

	portfolio, err := NewEngine(prices, strat, cfg, zerolog.Nop()).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	units := portfolio.Units()
	for i := 0; i < 3; i++ {
		got, ok := units.At(i, "AAA")
		if !ok || !got.Equal(dec("4")) {
			t.Errorf("units[%d] = %s (ok=%v), want 4", i, got, ok)
		}
	}
}

func TestEngineStrategyError(t *testing.T) {
	prices := mkFrame(t, 2, map[string][]string{
		"AAA": {"100", "110"},
	})
	boom := errors.New("no signal")
	strat := &fakeStrategy{
		name: "broken",
		errs: []error{nil, boom},
	}
	cfg := NewRunConfig(dec("1000"), simulator.ZeroCost{}, false)

	_, err := NewEngine(prices, strat, cfg, zerolog.Nop()).Run()
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want wrapped %v", err, boom)
	}
}

func TestEngineRejectsUntradableTarget(t *testing.T) {
	prices := mkFrame(t, 2, map[string][]string{
		"AAA": {"100", "110"},
		"BBB": {"", "50"},
	})
	strat := &fakeStrategy{
		name: "eager",
		targets: []Target{
			Units(map[string]decimal.Decimal{"BBB": dec("1")}),
		},
	}
	cfg := NewRunConfig(dec("1000"), simulator.ZeroCost{}, false)

	_, err := NewEngine(prices, strat, cfg, zerolog.Nop()).Run()
	if !errors.Is(err, simulator.ErrDomain) {
		t.Fatalf("Run error = %v, want %v", err, simulator.ErrDomain)
	}
}

func TestApplyTargetUnknownKind(t *testing.T) {
	prices := mkFrame(t, 1, map[string][]string{"AAA": {"100"}})
	b, err := simulator.New(prices, dec("1000"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := b.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := applyTarget(b, Target{Kind: TargetKind(42)}); err == nil {
		t.Fatal("expected error for unknown target kind")
	}
}

func TestTargetConstructors(t *testing.T) {
	vals := map[string]decimal.Decimal{"AAA": dec("1")}
	tests := []struct {
		name   string
		target Target
		kind   TargetKind
	}{
		{"hold", Hold(), TargetHold},
		{"units", Units(vals), TargetUnits},
		{"weights", Weights(vals), TargetWeights},
		{"cash", CashAmounts(vals), TargetCashAmounts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.target.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", tt.target.Kind, tt.kind)
			}
		})
	}
}
