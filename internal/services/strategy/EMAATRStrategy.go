package strategy

import (
	"fmt"
	"math"

	"github.com/vsharma2491/ALGO/internal/models"
	"github.com/vsharma2491/ALGO/internal/services/indicators"
)

// EMAATRStrategy is an EMA crossover whose stop, target and trailing stop
// are multiples of ATR at the entry bar.
type EMAATRStrategy struct {
	params Params
	ema    *indicators.EMAService
	atr    *indicators.ATRService
}

func NewEMAATRStrategy(p Params) *EMAATRStrategy {
	return &EMAATRStrategy{
		params: p,
		ema:    indicators.NewEMAService(),
		atr:    indicators.NewATRService(),
	}
}

func (s *EMAATRStrategy) Name() string {
	return NameEMAATR
}

func (s *EMAATRStrategy) ComputeSignals(bars []models.Bar) (*SignalSet, error) {
	closes := models.Closes(bars)

	fast, err := s.ema.Calculate(closes, s.params.FastPeriod)
	if err != nil {
		return nil, fmt.Errorf("fast ema: %w", err)
	}
	slow, err := s.ema.Calculate(closes, s.params.SlowPeriod)
	if err != nil {
		return nil, fmt.Errorf("slow ema: %w", err)
	}
	atr, err := s.atr.Calculate(bars, s.params.ATRPeriod)
	if err != nil {
		return nil, fmt.Errorf("atr: %w", err)
	}

	var trend []float64
	if s.params.TrendFilterEnabled {
		trend, err = s.ema.Calculate(closes, s.params.TrendFilterPeriod)
		if err != nil {
			return nil, fmt.Errorf("trend ema: %w", err)
		}
	}

	set := crossoverSignals(fast, slow, closes, trend)
	set.StopDistance = scale(atr, s.params.ATRStopMult)
	set.TargetDistance = scale(atr, s.params.ATRTargetMult)
	set.TrailDistance = scale(atr, s.params.ATRTrailMult)
	return set, nil
}

// scale returns nil for a zero multiplier so the engine falls back to its
// percentage rule.
func scale(series []float64, mult float64) []float64 {
	if mult == 0 {
		return nil
	}
	out := make([]float64, len(series))
	for i, v := range series {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = v * mult
	}
	return out
}
