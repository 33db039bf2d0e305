package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"portsim/internal/simulator"
)

const secondsPerYear = 365.25 * 24 * 3600

type Report struct {
	// Meta / period info
	StartDate      time.Time
	EndDate        time.Time
	TotalPeriod    time.Duration
	Steps          int
	PeriodsPerYear float64

	// Absolute performance
	InitialAUM  decimal.Decimal
	FinalNAV    decimal.Decimal
	NetProfit   decimal.Decimal
	TotalReturn decimal.Decimal
	CAGR        decimal.Decimal

	// Risk metrics
	AnnualVolatility decimal.Decimal
	SharpeRatio      decimal.Decimal
	SortinoRatio     decimal.Decimal

	// Drawdown metrics
	MaxDrawdown         decimal.Decimal
	MaxDrawdownDuration time.Duration

	// Costs
	TotalCosts decimal.Decimal
}

// Generate computes summary statistics over a frozen portfolio. The risk-free
// rate is annual; it is de-annualized to the ledger's own frequency before
// excess returns are taken.
func Generate(p *simulator.Portfolio, annualRiskFree decimal.Decimal) (*Report, error) {
	if p == nil || p.Len() == 0 {
		return nil, fmt.Errorf("generate report: empty portfolio")
	}

	times := p.Times()
	nav := p.NAV()
	final := nav.ValueAt(nav.Len() - 1)

	r := &Report{
		StartDate:  times[0],
		EndDate:    times[len(times)-1],
		Steps:      p.Len(),
		InitialAUM: p.InitialAUM(),
		FinalNAV:   final,
		NetProfit:  final.Sub(p.InitialAUM()),
	}
	r.TotalPeriod = r.EndDate.Sub(r.StartDate)
	r.PeriodsPerYear = periodsPerYear(times)
	r.TotalReturn = final.Div(p.InitialAUM()).Sub(decimal.NewFromInt(1))
	r.CAGR = calcCAGR(p.InitialAUM(), final, r.TotalPeriod)

	returns := navReturns(nav)
	rf := periodicRiskFree(annualRiskFree, r.PeriodsPerYear)
	r.AnnualVolatility = calcVolatility(returns, r.PeriodsPerYear)
	r.SharpeRatio = calcSharpe(returns, rf, r.PeriodsPerYear)
	r.SortinoRatio = calcSortino(returns, rf, r.PeriodsPerYear)

	r.MaxDrawdown, r.MaxDrawdownDuration = calcDrawdown(p)

	costs := p.Costs()
	total := decimal.Zero
	for i := 0; i < costs.Len(); i++ {
		total = total.Add(costs.ValueAt(i))
	}
	r.TotalCosts = total

	return r, nil
}

// Print writes the report as a fixed-width text block.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "===== Backtest Report =====")
	fmt.Fprintf(w, "Start Date:            %s\n", r.StartDate.Format("2006-01-02"))
	fmt.Fprintf(w, "End Date:              %s\n", r.EndDate.Format("2006-01-02"))
	fmt.Fprintf(w, "Total Period:          %d days\n", r.TotalPeriod/(24*time.Hour))
	fmt.Fprintf(w, "Steps:                 %d (%.1f per year)\n", r.Steps, r.PeriodsPerYear)

	fmt.Fprintln(w, "\n-- Absolute Performance --")
	fmt.Fprintf(w, "Initial AUM:           %s\n", r.InitialAUM)
	fmt.Fprintf(w, "Final NAV:             %s\n", r.FinalNAV)
	fmt.Fprintf(w, "Net Profit:            %s\n", r.NetProfit)
	fmt.Fprintf(w, "Total Return:          %s%%\n", r.TotalReturn.Mul(decimal.NewFromInt(100)).StringFixed(2))
	fmt.Fprintf(w, "CAGR:                  %s%%\n", r.CAGR.Mul(decimal.NewFromInt(100)).StringFixed(2))

	fmt.Fprintln(w, "\n-- Risk Metrics --")
	fmt.Fprintf(w, "Annual Volatility:     %s%%\n", r.AnnualVolatility.Mul(decimal.NewFromInt(100)).StringFixed(2))
	fmt.Fprintf(w, "Sharpe Ratio:          %s\n", r.SharpeRatio.StringFixed(2))
	fmt.Fprintf(w, "Sortino Ratio:         %s\n", r.SortinoRatio.StringFixed(2))

	fmt.Fprintln(w, "\n-- Drawdown Metrics --")
	fmt.Fprintf(w, "Max Drawdown:          %s%%\n", r.MaxDrawdown.Mul(decimal.NewFromInt(100)).StringFixed(2))
	fmt.Fprintf(w, "Max Drawdown Length:   %v\n", r.MaxDrawdownDuration)

	fmt.Fprintln(w, "\n-- Costs --")
	fmt.Fprintf(w, "Total Costs:           %s\n", r.TotalCosts)

	fmt.Fprintln(w, "===========================")
}

// periodsPerYear infers the observation frequency from the mean spacing of
// the time axis. A single observation counts as annual.
func periodsPerYear(times []time.Time) float64 {
	if len(times) < 2 {
		return 1
	}
	span := times[len(times)-1].Sub(times[0]).Seconds()
	mean := span / float64(len(times)-1)
	if mean <= 0 {
		return 1
	}
	return secondsPerYear / mean
}

func navReturns(nav simulator.Series) []float64 {
	if nav.Len() < 2 {
		return nil
	}
	out := make([]float64, 0, nav.Len()-1)
	prev := nav.ValueAt(0)
	for i := 1; i < nav.Len(); i++ {
		cur := nav.ValueAt(i)
		if prev.IsZero() {
			prev = cur
			continue
		}
		out = append(out, cur.Div(prev).InexactFloat64()-1.0)
		prev = cur
	}
	return out
}

// periodicRiskFree de-annualizes an annual rate geometrically:
// rf = (1 + annual)^(1/periods) - 1.
func periodicRiskFree(annual decimal.Decimal, periodsPerYear float64) float64 {
	if periodsPerYear <= 0 {
		return 0
	}
	return math.Pow(1.0+annual.InexactFloat64(), 1.0/periodsPerYear) - 1.0
}

func calcCAGR(initial, final decimal.Decimal, period time.Duration) decimal.Decimal {
	if !initial.GreaterThan(decimal.Zero) || !final.GreaterThan(decimal.Zero) || period <= 0 {
		return decimal.Zero
	}
	years := period.Seconds() / secondsPerYear
	if years <= 0 {
		return decimal.Zero
	}
	ratio := final.Div(initial).InexactFloat64()
	return decimal.NewFromFloat(math.Pow(ratio, 1.0/years) - 1.0)
}

func calcVolatility(returns []float64, periodsPerYear float64) decimal.Decimal {
	if len(returns) < 2 {
		return decimal.Zero
	}
	std := stat.StdDev(returns, nil)
	return decimal.NewFromFloat(std * math.Sqrt(periodsPerYear))
}

func calcSharpe(returns []float64, rf, periodsPerYear float64) decimal.Decimal {
	if len(returns) < 2 {
		return decimal.Zero
	}
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - rf
	}
	std := stat.StdDev(excess, nil)
	if std == 0 {
		return decimal.Zero
	}
	sharpe := stat.Mean(excess, nil) / std * math.Sqrt(periodsPerYear)
	return decimal.NewFromFloat(sharpe)
}

// calcSortino penalizes only downside deviation. Periods at or above the
// risk-free rate contribute zero to the denominator but still count in n.
func calcSortino(returns []float64, rf, periodsPerYear float64) decimal.Decimal {
	if len(returns) < 2 {
		return decimal.Zero
	}
	var meanExcess, downsideSum float64
	for _, r := range returns {
		excess := r - rf
		meanExcess += excess
		if excess < 0 {
			downsideSum += excess * excess
		}
	}
	meanExcess /= float64(len(returns))
	downside := math.Sqrt(downsideSum / float64(len(returns)))
	if downside == 0 {
		return decimal.Zero
	}
	sortino := meanExcess / downside * math.Sqrt(periodsPerYear)
	return decimal.NewFromFloat(sortino)
}

func calcDrawdown(p *simulator.Portfolio) (decimal.Decimal, time.Duration) {
	nav := p.NAV()
	times := p.Times()

	peak := nav.ValueAt(0)
	peakTime := times[0]
	maxDD := decimal.Zero
	var maxDuration time.Duration

	for i := 0; i < nav.Len(); i++ {
		v := nav.ValueAt(i)
		if v.GreaterThan(peak) {
			peak = v
			peakTime = times[i]
			continue
		}
		if !peak.GreaterThan(decimal.Zero) {
			continue
		}
		dd := decimal.NewFromInt(1).Sub(v.Div(peak))
		if dd.GreaterThan(maxDD) {
			maxDD = dd
		}
		if d := times[i].Sub(peakTime); d > maxDuration {
			maxDuration = d
		}
	}
	return maxDD, maxDuration
}
