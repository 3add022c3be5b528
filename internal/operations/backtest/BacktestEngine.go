package backtest

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vsharma2491/ALGO/internal/models"
	"github.com/vsharma2491/ALGO/internal/services/performance"
	"github.com/vsharma2491/ALGO/internal/services/strategy"
)

// Engine runs backtests. It holds no per-run state, so one Engine may serve
// concurrent Run calls.
type Engine struct {
	log logrus.FieldLogger
}

func NewEngine(log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{log: log}
}

// Run evaluates config against bars. Configuration problems are returned as
// *ConfigError before any bar is processed; fewer than two bars yields an
// empty ledger.
func (e *Engine) Run(bars []models.Bar, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	sess, err := config.session()
	if err != nil {
		return nil, err
	}

	strat, err := strategy.New(config.Strategy)
	if err != nil {
		return nil, &ConfigError{Field: "strategy", Reason: err.Error()}
	}

	result := &Result{
		Strategy: strat.Name(),
		BarCount: len(bars),
		Trades:   make([]models.ClosedTrade, 0),
	}
	if len(bars) > 0 {
		result.StartTime = bars[0].Time
		result.EndTime = bars[len(bars)-1].Time
	}

	if len(bars) < 2 {
		if len(bars) == 1 {
			result.EquityCurve = []models.EquityPoint{{Timestamp: bars[0].Time, Equity: config.InitialCapital}}
		}
		result.Metrics = performance.Compute(nil, result.EquityCurve, config.InitialCapital, config.AnnualizationFactor)
		return result, nil
	}

	signals, err := strat.ComputeSignals(bars)
	if err != nil {
		return nil, fmt.Errorf("computing %s signals: %w", strat.Name(), err)
	}
	if signals.Len() != len(bars) {
		return nil, fmt.Errorf("%s produced %d signals for %d bars", strat.Name(), signals.Len(), len(bars))
	}

	log := e.log.WithFields(logrus.Fields{"strategy": strat.Name(), "bars": len(bars)})
	log.Debug("backtest started")

	sim := newSimulator(config, sess, bars, signals, log)
	result.Trades, result.EquityCurve = sim.Run()
	result.Metrics = performance.Compute(result.Trades, result.EquityCurve, config.InitialCapital, config.AnnualizationFactor)

	log.WithFields(logrus.Fields{
		"trades":       result.Metrics.TotalTrades,
		"final_equity": result.Metrics.FinalEquity,
	}).Debug("backtest finished")

	return result, nil
}
