package handlers

import (
	"encoding/json"

	"github.com/vsharma2491/ALGO/internal/models"
	"github.com/vsharma2491/ALGO/internal/operations/backtest"
	"github.com/vsharma2491/ALGO/internal/services/performance"
	"github.com/vsharma2491/ALGO/internal/services/strategy"
)

// MaxSweepConfigs bounds the grid a single sweep request may expand to.
const MaxSweepConfigs = 2000

// BacktestRequest carries the bars inline. Config is applied over the
// engine defaults, so a partial object is fine.
type BacktestRequest struct {
	Symbol    string          `json:"symbol"`
	TimeFrame string          `json:"timeframe"`
	Bars      []models.Bar    `json:"bars" binding:"required"`
	Config    json.RawMessage `json:"config"`
	Save      bool            `json:"save"`
}

type BacktestResponse struct {
	ID     string           `json:"id,omitempty"`
	Result *backtest.Result `json:"result"`
}

type SweepRequest struct {
	Bars   []models.Bar    `json:"bars" binding:"required"`
	Config json.RawMessage `json:"config"`
	Grid   backtest.Grid   `json:"grid"`
	Metric string          `json:"metric"`
	Top    int             `json:"top"` // 0 returns every result
}

type SweepResponse struct {
	Metric  backtest.RankMetric `json:"metric"`
	Total   int                 `json:"total"`
	Results []SweepEntry        `json:"results"`
}

type SweepEntry struct {
	Rank    int                  `json:"rank"`
	Config  backtest.Config      `json:"config"`
	Metrics *performance.Metrics `json:"metrics,omitempty"`
	Error   string               `json:"error,omitempty"`
}

type StrategyInfo struct {
	Name     string          `json:"name"`
	Defaults strategy.Params `json:"defaults"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodeConfig overlays raw onto the default engine config.
func decodeConfig(raw json.RawMessage) (backtest.Config, error) {
	cfg := backtest.NewConfig()
	if len(raw) == 0 || string(raw) == "null" {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
