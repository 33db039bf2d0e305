package engine

import (
	"github.com/shopspring/decimal"

	"portsim/internal/simulator"
)

// TargetKind selects which unit convention a strategy's target is
// expressed in. All three converge on the same unit storage in the builder.
type TargetKind int

const (
	// TargetHold leaves the step untouched: holdings carry forward.
	TargetHold TargetKind = iota
	TargetUnits
	TargetWeights
	TargetCashAmounts
)

// Target is a strategy's desired position for the current step.
type Target struct {
	Kind   TargetKind
	Values map[string]decimal.Decimal
}

// Hold returns the do-nothing target.
func Hold() Target {
	return Target{Kind: TargetHold}
}

// Weights returns a target expressed as fractions of current AUM.
func Weights(values map[string]decimal.Decimal) Target {
	return Target{Kind: TargetWeights, Values: values}
}

// Units returns a target expressed as unit counts.
func Units(values map[string]decimal.Decimal) Target {
	return Target{Kind: TargetUnits, Values: values}
}

// CashAmounts returns a target expressed as currency notionals.
func CashAmounts(values map[string]decimal.Decimal) Target {
	return Target{Kind: TargetCashAmounts, Values: values}
}

type strategy interface {
	Name() string
	Rebalance(state *simulator.State) (Target, error)
}
