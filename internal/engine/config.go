package engine

import (
	"github.com/shopspring/decimal"

	"portsim/internal/simulator"
)

type RunConfig struct {
	initialAUM decimal.Decimal
	costModel  simulator.CostModel
	progress   bool
}

func NewRunConfig(initialAUM decimal.Decimal, costModel simulator.CostModel, progress bool) *RunConfig {
	return &RunConfig{
		initialAUM: initialAUM,
		costModel:  costModel,
		progress:   progress,
	}
}
