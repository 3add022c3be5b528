package backtest

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsharma2491/ALGO/internal/services/performance"
)

func quietSweep(workers int) *SweepRunner {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewSweepRunner(NewEngine(log), workers, log)
}

func TestGrid_Expand(t *testing.T) {
	base := waveConfig()
	g := Grid{
		FastPeriods:  []int{3, 5},
		SlowPeriods:  []int{8, 13},
		StopLossPcts: []float64{0.01, 0.02, 0.03},
	}

	configs := g.Expand(base)

	require.Len(t, configs, 12)
	assert.Equal(t, 3, configs[0].Strategy.FastPeriod)
	assert.Equal(t, 8, configs[0].Strategy.SlowPeriod)
	assert.Equal(t, 0.01, configs[0].StopLossPct)
	assert.Equal(t, 0.03, configs[2].StopLossPct)
	assert.Equal(t, 5, configs[11].Strategy.FastPeriod)
	assert.Equal(t, 13, configs[11].Strategy.SlowPeriod)
	for _, c := range configs {
		assert.Equal(t, base.Strategy.SignalPeriod, c.Strategy.SignalPeriod)
		assert.Equal(t, base.TakeProfitPct, c.TakeProfitPct)
	}

	assert.Len(t, Grid{}.Expand(base), 1)
}

func TestSweepRunner_IsolatesFailures(t *testing.T) {
	bars := waveBars(200)
	configs := Grid{FastPeriods: []int{3, 8, 5}, SlowPeriods: []int{8}}.Expand(waveConfig())

	results, err := quietSweep(2).Run(context.Background(), bars, configs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, configs[i], r.Config)
	}

	require.NoError(t, results[0].Err)
	require.NoError(t, results[2].Err)
	var cerr *ConfigError
	assert.True(t, errors.As(results[1].Err, &cerr))
	assert.Nil(t, results[1].Result)

	// each run matches a standalone run
	solo, err := quietEngine().Run(bars, configs[2])
	require.NoError(t, err)
	assert.Equal(t, solo.Trades, results[2].Result.Trades)
}

func TestSweepRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	configs := Grid{FastPeriods: []int{2, 3, 4}}.Expand(waveConfig())
	results, err := quietSweep(1).Run(ctx, waveBars(50), configs)

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

// cancelledLate reports cancellation but never closes Done, so the sweep
// schedules every config before it sees the error.
type cancelledLate struct {
	context.Context
}

func (cancelledLate) Err() error { return context.Canceled }

func TestSweepRunner_CancelledAfterScheduling(t *testing.T) {
	configs := Grid{FastPeriods: []int{2, 3}}.Expand(waveConfig())
	results, err := quietSweep(2).Run(cancelledLate{context.Background()}, waveBars(120), configs)

	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.NoError(t, r.Err)
		assert.NotNil(t, r.Result)
	}
}

func metricResult(sharpe, ret float64) SweepResult {
	return SweepResult{Result: &Result{Metrics: performance.Metrics{
		SharpeRatio:  sharpe,
		TotalReturn:  ret,
		ProfitFactor: math.NaN(),
	}}}
}

func TestRank(t *testing.T) {
	results := []SweepResult{
		metricResult(1, 0.30),
		{Err: errors.New("boom")},
		metricResult(math.NaN(), 0.10),
		metricResult(3, -0.05),
		metricResult(1, 0.20),
	}
	for i := range results {
		results[i].Index = i
	}

	order := func(rs []SweepResult) []int {
		idx := make([]int, len(rs))
		for i, r := range rs {
			idx[i] = r.Index
		}
		return idx
	}

	assert.Equal(t, []int{3, 0, 4, 1, 2}, order(Rank(results, RankBySharpe)))
	assert.Equal(t, []int{0, 4, 2, 3, 1}, order(Rank(results, RankByTotalReturn)))
	// input order is untouched
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order(results))
}

func TestParseRankMetric(t *testing.T) {
	tests := map[string]RankMetric{
		"sharpe":        RankBySharpe,
		"Sharpe Ratio":  RankBySharpe,
		"total_return":  RankByTotalReturn,
		"Max Drawdown":  RankByMaxDrawdown,
		"profit_factor": RankByProfitFactor,
	}
	for in, want := range tests {
		got, err := ParseRankMetric(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseRankMetric("sortino")
	assert.Error(t, err)
}
