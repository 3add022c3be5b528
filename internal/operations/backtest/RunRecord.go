package backtest

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/vsharma2491/ALGO/internal/models"
)

// ToRun converts a finished run into its stored form. config is recorded as
// JSON in Params.
func (r *Result) ToRun(id, symbol, timeFrame string, config Config) (*models.BacktestRun, error) {
	params, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("encoding run config: %w", err)
	}

	m := r.Metrics
	run := &models.BacktestRun{
		ID:                   id,
		Symbol:               symbol,
		TimeFrame:            timeFrame,
		Strategy:             r.Strategy,
		Params:               string(params),
		BarCount:             r.BarCount,
		StartTime:            r.StartTime,
		EndTime:              r.EndTime,
		InitialCapital:       decimal.NewFromFloat(m.InitialCapital),
		FinalEquity:          decimal.NewFromFloat(m.FinalEquity).Round(8),
		NetPnL:               decimal.NewFromFloat(m.NetPnL).Round(8),
		TotalTrades:          m.TotalTrades,
		WinRate:              finite(m.WinRate),
		TotalReturn:          finite(m.TotalReturn),
		SharpeRatio:          finite(m.SharpeRatio),
		MaxDrawdown:          finite(m.MaxDrawdown),
		MaxConsecutiveLosses: m.MaxConsecutiveLosses,
		Trades:               make([]models.TradeRecord, len(r.Trades)),
	}
	if !math.IsNaN(m.ProfitFactor) && !math.IsInf(m.ProfitFactor, 0) {
		pf := m.ProfitFactor
		run.ProfitFactor = &pf
	}
	for i, t := range r.Trades {
		run.Trades[i] = models.NewTradeRecord(id, i+1, t)
	}
	return run, nil
}

// NaN and Inf are stored as zero.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
