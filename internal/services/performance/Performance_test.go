package performance

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsharma2491/ALGO/internal/models"
)

const capital = 100000.0

func ledger(t0 time.Time, nets []float64, bars []int) ([]models.ClosedTrade, []models.EquityPoint) {
	trades := make([]models.ClosedTrade, len(nets))
	curve := []models.EquityPoint{{Timestamp: t0, Equity: capital}}
	equity := capital
	for i, n := range nets {
		exit := t0.Add(time.Duration(i+1) * time.Hour)
		trades[i] = models.ClosedTrade{
			Side:       models.PositionSideLong,
			ExitTime:   exit,
			Quantity:   10,
			GrossPnL:   n + 1,
			Commission: 1,
			NetPnL:     n,
			Return:     n / capital,
			ExitReason: models.ExitReasonSignal,
			BarsHeld:   bars[i],
		}
		equity += n
		curve = append(curve, models.EquityPoint{Timestamp: exit, Equity: equity})
	}
	return trades, curve
}

func TestCompute(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)
	trades, curve := ledger(t0, []float64{100, -50, -30, 200}, []int{2, 3, 1, 4})

	m := Compute(trades, curve, capital, 252)

	assert.Equal(t, 4, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 2, m.LosingTrades)
	assert.InDelta(t, 0.5, m.WinRate, 1e-12)
	assert.InDelta(t, 100220, m.FinalEquity, 1e-9)
	assert.InDelta(t, 0.0022, m.TotalReturn, 1e-12)
	assert.InDelta(t, 220, m.NetPnL, 1e-9)
	assert.InDelta(t, 224, m.GrossPnL, 1e-9)
	assert.InDelta(t, 4, m.TotalCommission, 1e-9)
	assert.InDelta(t, 3.75, m.ProfitFactor, 1e-12)
	assert.Equal(t, 2, m.MaxConsecutiveLosses)
	assert.InDelta(t, 2.5, m.AvgBarsHeld, 1e-12)
	assert.InDelta(t, 3, m.AvgBarsHeldWinners, 1e-12)
	assert.InDelta(t, 2, m.AvgBarsHeldLosers, 1e-12)
	assert.InDelta(t, 150, m.AvgWin, 1e-12)
	assert.InDelta(t, -40, m.AvgLoss, 1e-12)
	assert.InDelta(t, 3.75, m.WinLossRatio, 1e-12)
	assert.Equal(t, 200.0, m.LargestWin)
	assert.Equal(t, -50.0, m.LargestLoss)
	assert.InDelta(t, -80.0/100100.0, m.MaxDrawdown, 1e-12)
	assert.InDelta(t, 0.0022, m.MaxRunup, 1e-12)
	assert.Equal(t, 40.0, m.TotalQuantity)
	assert.Equal(t, 4, m.ExitReasons[models.ExitReasonSignal])

	returns := []float64{0.001, -0.0005, -0.0003, 0.002}
	mean := 0.00055
	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	std := math.Sqrt(variance / 4)
	assert.InDelta(t, mean/std*math.Sqrt(252), m.SharpeRatio, 1e-9)
}

func TestComputeEdgeCases(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)

	t.Run("no trades", func(t *testing.T) {
		m := Compute(nil, []models.EquityPoint{{Timestamp: t0, Equity: capital}}, capital, 252)
		assert.Equal(t, 0, m.TotalTrades)
		assert.Equal(t, 0.0, m.TotalReturn)
		assert.Equal(t, 0.0, m.WinRate)
		assert.Equal(t, 0.0, m.SharpeRatio)
		assert.Equal(t, 0.0, m.MaxDrawdown)
		assert.True(t, math.IsNaN(m.ProfitFactor))
	})

	t.Run("single trade has zero sharpe", func(t *testing.T) {
		trades, curve := ledger(t0, []float64{500}, []int{3})
		m := Compute(trades, curve, capital, 252)
		assert.Equal(t, 0.0, m.SharpeRatio)
		assert.Equal(t, 1.0, m.WinRate)
	})

	t.Run("identical returns have zero sharpe", func(t *testing.T) {
		trades, curve := ledger(t0, []float64{10, 10, 10}, []int{1, 1, 1})
		assert.Equal(t, 0.0, Compute(trades, curve, capital, 252).SharpeRatio)
	})

	t.Run("no losers leaves profit factor undefined", func(t *testing.T) {
		trades, curve := ledger(t0, []float64{10, 20}, []int{1, 1})
		m := Compute(trades, curve, capital, 252)
		assert.True(t, math.IsNaN(m.ProfitFactor))
		assert.True(t, math.IsNaN(m.WinLossRatio))
		assert.Equal(t, 0, m.MaxConsecutiveLosses)
	})

	t.Run("break-even trade counts as a loss but not in profit factor", func(t *testing.T) {
		trades, curve := ledger(t0, []float64{10, 0, 0}, []int{1, 1, 1})
		m := Compute(trades, curve, capital, 252)
		assert.Equal(t, 2, m.LosingTrades)
		assert.Equal(t, 2, m.MaxConsecutiveLosses)
		assert.True(t, math.IsNaN(m.ProfitFactor))
	})
}

func TestMonthlyReturns(t *testing.T) {
	jan := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 5, 10, 0, 0, 0, time.UTC)
	curve := []models.EquityPoint{
		{Timestamp: jan, Equity: capital},
		{Timestamp: jan.Add(time.Hour), Equity: 101000},
		{Timestamp: feb, Equity: 99990},
	}

	got := monthlyReturns(curve, capital)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01", got[0].Month)
	assert.InDelta(t, 0.01, got[0].Return, 1e-12)
	assert.Equal(t, "2024-02", got[1].Month)
	assert.InDelta(t, 99990.0/101000.0-1, got[1].Return, 1e-12)
}

func TestMetricsJSON(t *testing.T) {
	m := Compute(nil, nil, capital, 252)
	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded["profit_factor"])
	assert.Contains(t, decoded, "profit_factor")
	assert.Equal(t, capital, decoded["final_equity"])
}
