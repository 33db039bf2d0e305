package equalweight

import (
	"github.com/shopspring/decimal"

	"portsim/internal/engine"
	"portsim/internal/simulator"
)

// Strategy allocates the same fraction of AUM to every tradable asset at
// every step. Assets drop out of the allocation while they are unlisted and
// re-enter when prices resume.
type Strategy struct{}

func New() *Strategy {
	return &Strategy{}
}

func (s *Strategy) Name() string {
	return "equal-weight"
}

func (s *Strategy) Rebalance(state *simulator.State) (engine.Target, error) {
	tradable := state.Assets()
	if len(tradable) == 0 {
		return engine.Hold(), nil
	}

	weight := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(tradable))))
	weights := make(map[string]decimal.Decimal, len(tradable))
	for _, a := range tradable {
		weights[a] = weight
	}
	return engine.Weights(weights), nil
}
