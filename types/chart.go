package types

// ChartKind is the closed set of charts the reporting layer can render from
// a finished backtest.
type ChartKind string

const (
	ChartNAV      ChartKind = "NAV"
	ChartDrawdown ChartKind = "DRAWDOWN"
)
