package types

import "time"

// Interval is the bar size a price series is bucketed to. The accounting
// core only needs one row per rebalancing step, so the repository serves
// daily and coarser buckets.
type Interval string

const (
	Day   Interval = "D"
	Week  Interval = "W"
	Month Interval = "M"
)

var IntervalToTime = map[Interval]time.Duration{
	Day:  time.Hour * 24,
	Week: time.Hour * 24 * 7,
}

var ConvertInterval = map[string]Interval{
	"D": Day,
	"W": Week,
	"M": Month,
}
