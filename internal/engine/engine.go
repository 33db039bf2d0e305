package engine

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"portsim/internal/simulator"
)

// Engine drives one strategy through the builder's step protocol and
// freezes the result. One engine runs one backtest.
type Engine struct {
	prices *simulator.Frame
	strat  strategy
	config *RunConfig
	log    zerolog.Logger
}

func NewEngine(prices *simulator.Frame, strat strategy, config *RunConfig, log zerolog.Logger) *Engine {
	return &Engine{
		prices: prices,
		strat:  strat,
		config: config,
		log:    log.With().Str("component", "engine").Logger(),
	}
}

// Run walks the whole time axis, asking the strategy for a target at every
// step, and returns the frozen portfolio.
func (e *Engine) Run() (*simulator.Portfolio, error) {
	builder, err := simulator.New(e.prices, e.config.initialAUM, simulator.WithCostModel(e.config.costModel))
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("strategy", e.strat.Name()).
		Int("steps", e.prices.Len()).
		Int("assets", len(e.prices.Assets())).
		Stringer("aum", e.config.initialAUM).
		Msg("starting backtest")

	var bar *progressbar.ProgressBar
	if e.config.progress {
		bar = initProgressBar(e.prices.Len())
	}

	for {
		state, err := builder.Advance()
		if err != nil {
			return nil, err
		}
		if state == nil {
			break
		}

		target, err := e.strat.Rebalance(state)
		if err != nil {
			return nil, fmt.Errorf("strategy %s at %s: %w", e.strat.Name(), state.Time(), err)
		}
		if err := applyTarget(builder, target); err != nil {
			return nil, fmt.Errorf("apply target at %s: %w", state.Time(), err)
		}

		e.log.Debug().
			Time("step", state.Time()).
			Stringer("nav", state.NAV()).
			Int("tradable", len(state.Assets())).
			Msg("step committed")

		if bar != nil {
			bar.Add(1)
		}
	}

	portfolio, err := builder.Build()
	if err != nil {
		return nil, err
	}

	nav := portfolio.NAV()
	e.log.Info().
		Stringer("finalNAV", nav.ValueAt(nav.Len()-1)).
		Msg("backtest finished")
	return portfolio, nil
}

func applyTarget(builder *simulator.Builder, target Target) error {
	switch target.Kind {
	case TargetHold:
		return nil
	case TargetUnits:
		return builder.SetUnits(target.Values)
	case TargetWeights:
		return builder.SetWeights(target.Values)
	case TargetCashAmounts:
		return builder.SetCashAmounts(target.Values)
	default:
		return fmt.Errorf("unknown target kind %d", target.Kind)
	}
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
