package strategy

import (
	"fmt"

	"github.com/vsharma2491/ALGO/internal/models"
	"github.com/vsharma2491/ALGO/internal/services/indicators"
)

// Strategy turns a bar series into per-bar entry and exit flags.
type Strategy interface {
	Name() string
	ComputeSignals(bars []models.Bar) (*SignalSet, error)
}

const (
	NameMACrossover   = "ma_crossover"
	NameMACDCrossover = "macd_crossover"
	NameEMAATR        = "ema_atr"
)

// SignalSet holds one flag per bar. The distance series are optional
// absolute price offsets for stop, target and trailing stop; a nil slice or
// NaN entry means the engine's percentage rules apply.
type SignalSet struct {
	LongEntry  []bool
	ShortEntry []bool
	LongExit   []bool
	ShortExit  []bool

	StopDistance   []float64
	TargetDistance []float64
	TrailDistance  []float64
}

func newSignalSet(n int) *SignalSet {
	return &SignalSet{
		LongEntry:  make([]bool, n),
		ShortEntry: make([]bool, n),
		LongExit:   make([]bool, n),
		ShortExit:  make([]bool, n),
	}
}

func (s *SignalSet) Len() int {
	return len(s.LongEntry)
}

// Params configures every strategy variant; fields a variant does not use
// are ignored.
type Params struct {
	Name               string  `yaml:"name" json:"name"`
	FastPeriod         int     `yaml:"fast_period" json:"fast_period"`
	SlowPeriod         int     `yaml:"slow_period" json:"slow_period"`
	SignalPeriod       int     `yaml:"signal_period" json:"signal_period"`
	MAType             string  `yaml:"ma_type" json:"ma_type"`
	TrendFilterEnabled bool    `yaml:"trend_filter_enabled" json:"trend_filter_enabled"`
	TrendFilterPeriod  int     `yaml:"trend_filter_period" json:"trend_filter_period"`
	ATRPeriod          int     `yaml:"atr_period" json:"atr_period"`
	ATRStopMult        float64 `yaml:"atr_stop_mult" json:"atr_stop_mult"`
	ATRTargetMult      float64 `yaml:"atr_target_mult" json:"atr_target_mult"`
	ATRTrailMult       float64 `yaml:"atr_trail_mult" json:"atr_trail_mult"`
}

func DefaultParams() Params {
	return Params{
		Name:               NameMACrossover,
		FastPeriod:         12,
		SlowPeriod:         26,
		SignalPeriod:       9,
		MAType:             string(indicators.MAExponential),
		TrendFilterEnabled: true,
		TrendFilterPeriod:  200,
		ATRPeriod:          14,
		ATRStopMult:        2.0,
		ATRTargetMult:      3.0,
		ATRTrailMult:       1.5,
	}
}

// ParamError names the offending field.
type ParamError struct {
	Field  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (p Params) Validate() error {
	switch p.Name {
	case NameMACrossover, NameMACDCrossover, NameEMAATR:
	default:
		return &ParamError{Field: "name", Reason: fmt.Sprintf("unknown strategy %q", p.Name)}
	}

	if p.FastPeriod < 1 || p.SlowPeriod < 1 {
		return &ParamError{Field: "fast_period", Reason: fmt.Sprintf("periods must be positive, got %d/%d", p.FastPeriod, p.SlowPeriod)}
	}
	if p.FastPeriod >= p.SlowPeriod {
		return &ParamError{Field: "slow_period", Reason: fmt.Sprintf("slow period %d must exceed fast period %d", p.SlowPeriod, p.FastPeriod)}
	}
	if p.Name == NameMACrossover || p.MAType != "" {
		if _, err := indicators.ParseMAKind(p.MAType); err != nil {
			return &ParamError{Field: "ma_type", Reason: err.Error()}
		}
	}
	if p.Name == NameMACDCrossover && p.SignalPeriod < 1 {
		return &ParamError{Field: "signal_period", Reason: fmt.Sprintf("must be positive, got %d", p.SignalPeriod)}
	}
	if p.TrendFilterEnabled && p.TrendFilterPeriod < 1 {
		return &ParamError{Field: "trend_filter_period", Reason: fmt.Sprintf("must be positive when the trend filter is enabled, got %d", p.TrendFilterPeriod)}
	}
	if p.Name == NameEMAATR {
		if p.ATRPeriod < 1 {
			return &ParamError{Field: "atr_period", Reason: fmt.Sprintf("must be positive, got %d", p.ATRPeriod)}
		}
		if p.ATRStopMult < 0 || p.ATRTargetMult < 0 || p.ATRTrailMult < 0 {
			return &ParamError{Field: "atr_stop_mult", Reason: "atr multipliers must not be negative"}
		}
	}
	return nil
}
