package backtest

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsharma2491/ALGO/internal/models"
)

func TestResult_ToRun(t *testing.T) {
	cfg := waveConfig()
	bars := waveBars(300)
	result, err := quietEngine().Run(bars, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, result.Trades)

	run, err := result.ToRun("0b1f", "NIFTY", "1m", cfg)
	require.NoError(t, err)

	assert.Equal(t, "0b1f", run.ID)
	assert.Equal(t, result.Strategy, run.Strategy)
	assert.Equal(t, 300, run.BarCount)
	assert.Equal(t, result.Metrics.TotalTrades, run.TotalTrades)
	assert.InDelta(t, result.Metrics.FinalEquity, run.FinalEquity.InexactFloat64(), 1e-6)
	assert.Equal(t, bars[0].Time, run.StartTime)
	assert.Equal(t, bars[299].Time, run.EndTime)

	require.Len(t, run.Trades, len(result.Trades))
	assert.Equal(t, 1, run.Trades[0].Seq)
	assert.Equal(t, "0b1f", run.Trades[0].RunID)

	var stored Config
	require.NoError(t, json.Unmarshal([]byte(run.Params), &stored))
	assert.Equal(t, cfg, stored)
}

func TestResult_ToRun_UndefinedRatios(t *testing.T) {
	result := &Result{Strategy: "ma_crossover"}
	result.Metrics.SharpeRatio = math.NaN()
	result.Metrics.ProfitFactor = math.NaN()

	run, err := result.ToRun("id", "BTCUSDT", "5m", NewConfig())
	require.NoError(t, err)

	assert.Nil(t, run.ProfitFactor)
	assert.Zero(t, run.SharpeRatio)
	assert.Empty(t, run.Trades)
	assert.Equal(t, models.BacktestRun{}.StartTime, run.StartTime)
}

func TestResult_ToRun_NoTradesSpansAllBars(t *testing.T) {
	bars := flatBars(day1, 100, 100, 100, 100, 100)
	result, err := quietEngine().Run(bars, waveConfig())
	require.NoError(t, err)
	require.Empty(t, result.Trades)

	run, err := result.ToRun("id", "NIFTY", "1m", waveConfig())
	require.NoError(t, err)

	assert.Equal(t, bars[0].Time, run.StartTime)
	assert.Equal(t, bars[4].Time, run.EndTime)
}
