package models

import "time"

type Side string

const (
	PositionSideLong  Side = "long"
	PositionSideShort Side = "short"
)

// Direction is +1 for long and -1 for short.
func (s Side) Direction() float64 {
	if s == PositionSideShort {
		return -1
	}
	return 1
}

// Position is the single open position of a run. StopPrice and TargetPrice
// are fixed at entry; StopPrice may only move in the position's favour when
// trailing is enabled.
type Position struct {
	Side          Side
	EntryPrice    float64
	EntryTime     time.Time
	EntryBarIndex int
	Quantity      float64

	StopPrice     float64 // NaN when stop-loss is disabled
	TargetPrice   float64 // NaN when take-profit is disabled
	TrailDistance float64 // 0 when trailing is disabled
	Extreme       float64 // highest high (long) or lowest low (short) since entry
	Trailed       bool
}
