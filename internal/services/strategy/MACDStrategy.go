package strategy

import (
	"fmt"

	"github.com/vsharma2491/ALGO/internal/models"
	"github.com/vsharma2491/ALGO/internal/services/indicators"
)

// MACDStrategy trades MACD line / signal line crossings, filtered by an EMA
// trend when enabled.
type MACDStrategy struct {
	params Params
	macd   *indicators.MACDService
	ema    *indicators.EMAService
}

func NewMACDStrategy(p Params) *MACDStrategy {
	return &MACDStrategy{
		params: p,
		macd:   indicators.NewMACDService(),
		ema:    indicators.NewEMAService(),
	}
}

func (s *MACDStrategy) Name() string {
	return NameMACDCrossover
}

func (s *MACDStrategy) ComputeSignals(bars []models.Bar) (*SignalSet, error) {
	closes := models.Closes(bars)

	res, err := s.macd.Calculate(closes, s.params.FastPeriod, s.params.SlowPeriod, s.params.SignalPeriod)
	if err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}

	var trend []float64
	if s.params.TrendFilterEnabled {
		trend, err = s.ema.Calculate(closes, s.params.TrendFilterPeriod)
		if err != nil {
			return nil, fmt.Errorf("trend ema: %w", err)
		}
	}

	return crossoverSignals(res.MACD, res.Signal, closes, trend), nil
}
