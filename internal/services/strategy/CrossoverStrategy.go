package strategy

import (
	"fmt"

	"github.com/vsharma2491/ALGO/internal/models"
	"github.com/vsharma2491/ALGO/internal/services/indicators"
)

// CrossoverStrategy trades fast/slow moving average crossings with an
// optional long-period trend filter of the same kind.
type CrossoverStrategy struct {
	params Params
	kind   indicators.MAKind
}

func NewCrossoverStrategy(p Params, kind indicators.MAKind) *CrossoverStrategy {
	return &CrossoverStrategy{params: p, kind: kind}
}

func (s *CrossoverStrategy) Name() string {
	return NameMACrossover
}

func (s *CrossoverStrategy) ComputeSignals(bars []models.Bar) (*SignalSet, error) {
	closes := models.Closes(bars)

	fast, err := indicators.MovingAverage(closes, s.params.FastPeriod, s.kind)
	if err != nil {
		return nil, fmt.Errorf("fast %s: %w", s.kind, err)
	}
	slow, err := indicators.MovingAverage(closes, s.params.SlowPeriod, s.kind)
	if err != nil {
		return nil, fmt.Errorf("slow %s: %w", s.kind, err)
	}

	var trend []float64
	if s.params.TrendFilterEnabled {
		trend, err = indicators.MovingAverage(closes, s.params.TrendFilterPeriod, s.kind)
		if err != nil {
			return nil, fmt.Errorf("trend %s: %w", s.kind, err)
		}
	}

	return crossoverSignals(fast, slow, closes, trend), nil
}
