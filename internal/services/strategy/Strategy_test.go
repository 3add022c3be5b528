package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsharma2491/ALGO/internal/models"
)

func barsFromCloses(closes ...float64) []models.Bar {
	t0 := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{Time: t0.Add(time.Duration(i) * time.Minute), Open: c, High: c + 0.5, Low: c - 0.5, Close: c}
	}
	return bars
}

func flags(b []bool) []int {
	var idx []int
	for i, v := range b {
		if v {
			idx = append(idx, i)
		}
	}
	return idx
}

func TestCrossoverSignals(t *testing.T) {
	fast := []float64{1, 1, 2, 2}
	slow := []float64{2, 2, 1, 1}
	closes := []float64{10, 10, 10, 10}

	t.Run("no filter", func(t *testing.T) {
		set := crossoverSignals(fast, slow, closes, nil)
		assert.Equal(t, []int{2}, flags(set.LongEntry))
		assert.Equal(t, []int{2}, flags(set.ShortExit))
		assert.Empty(t, flags(set.ShortEntry))
		assert.Empty(t, flags(set.LongExit))
	})

	t.Run("trend filter blocks entry but not exit", func(t *testing.T) {
		trend := []float64{20, 20, 20, 20}
		set := crossoverSignals(fast, slow, closes, trend)
		assert.Empty(t, flags(set.LongEntry))
		assert.Equal(t, []int{2}, flags(set.ShortExit))
	})

	t.Run("undefined trend blocks entry", func(t *testing.T) {
		trend := []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()}
		set := crossoverSignals(fast, slow, closes, trend)
		assert.Empty(t, flags(set.LongEntry))
	})

	t.Run("bearish cross with filter", func(t *testing.T) {
		set := crossoverSignals(slow, fast, closes, []float64{5, 5, 5, 5})
		assert.Empty(t, flags(set.ShortEntry), "close above trend")
		set = crossoverSignals(slow, fast, closes, []float64{50, 50, 50, 50})
		assert.Equal(t, []int{2}, flags(set.ShortEntry))
		assert.Equal(t, []int{2}, flags(set.LongExit))
	})
}

func TestCrossoverStrategy(t *testing.T) {
	p := DefaultParams()
	p.FastPeriod, p.SlowPeriod = 1, 2
	p.MAType = "sma"
	p.TrendFilterEnabled = false

	s, err := New(p)
	require.NoError(t, err)
	assert.Equal(t, NameMACrossover, s.Name())

	set, err := s.ComputeSignals(barsFromCloses(3, 2, 1, 2, 3, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, 7, set.Len())
	assert.Equal(t, []int{3}, flags(set.LongEntry))
	assert.Equal(t, []int{5}, flags(set.ShortEntry))
	assert.Equal(t, []int{5}, flags(set.LongExit))
	assert.Equal(t, []int{3}, flags(set.ShortExit))
	assert.Nil(t, set.StopDistance)
}

func TestFlatSeriesHasNoSignals(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	bars := barsFromCloses(closes...)

	for _, name := range Names() {
		p := DefaultParams()
		p.Name = name
		p.FastPeriod, p.SlowPeriod, p.SignalPeriod, p.TrendFilterPeriod = 3, 8, 4, 20
		s, err := New(p)
		require.NoError(t, err)

		set, err := s.ComputeSignals(bars)
		require.NoError(t, err, name)
		assert.Empty(t, flags(set.LongEntry), name)
		assert.Empty(t, flags(set.ShortEntry), name)
	}
}

func TestEMAATRDistances(t *testing.T) {
	p := DefaultParams()
	p.Name = NameEMAATR
	p.FastPeriod, p.SlowPeriod, p.ATRPeriod = 2, 4, 2
	p.ATRTrailMult = 0
	p.TrendFilterEnabled = false

	s, err := New(p)
	require.NoError(t, err)
	set, err := s.ComputeSignals(barsFromCloses(10, 10, 10, 10))
	require.NoError(t, err)

	require.Len(t, set.StopDistance, 4)
	assert.True(t, math.IsNaN(set.StopDistance[0]))
	assert.InDelta(t, 2.0, set.StopDistance[1], 1e-9) // true range 1 x 2.0
	assert.InDelta(t, 3.0, set.TargetDistance[3], 1e-9)
	assert.Nil(t, set.TrailDistance)
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(p *Params)
		field string
	}{
		{"unknown strategy", func(p *Params) { p.Name = "grid" }, "name"},
		{"zero period", func(p *Params) { p.FastPeriod = 0 }, "fast_period"},
		{"fast not below slow", func(p *Params) { p.FastPeriod = 30 }, "slow_period"},
		{"unknown ma kind", func(p *Params) { p.MAType = "WMA" }, "ma_type"},
		{"missing ma kind", func(p *Params) { p.MAType = "" }, "ma_type"},
		{"trend period", func(p *Params) { p.TrendFilterPeriod = 0 }, "trend_filter_period"},
		{"macd signal", func(p *Params) { p.Name = NameMACDCrossover; p.SignalPeriod = 0 }, "signal_period"},
		{"atr period", func(p *Params) { p.Name = NameEMAATR; p.ATRPeriod = 0 }, "atr_period"},
		{"atr mult", func(p *Params) { p.Name = NameEMAATR; p.ATRStopMult = -1 }, "atr_stop_mult"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.edit(&p)

			_, err := New(p)
			var perr *ParamError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.field, perr.Field)
		})
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, DefaultParams().Validate())
	})

	t.Run("trend period ignored when disabled", func(t *testing.T) {
		p := DefaultParams()
		p.TrendFilterEnabled = false
		p.TrendFilterPeriod = 0
		assert.NoError(t, p.Validate())
	})
}
