package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vsharma2491/ALGO/internal/operations/backtest"
	"github.com/vsharma2491/ALGO/internal/services/strategy"
)

const dateLayout = "2006-01-02"

// RunFile is the YAML description of a backtest or sweep. Keys left out of
// the file keep their defaults.
type RunFile struct {
	Strategy     strategy.Params     `yaml:"strategy"`
	Risk         RiskSection         `yaml:"risk"`
	Trade        TradeSection        `yaml:"trade"`
	Session      SessionSection      `yaml:"session"`
	Backtest     BacktestSection     `yaml:"backtest"`
	Optimization OptimizationSection `yaml:"optimization"`
}

type RiskSection struct {
	EnableStopLoss   bool    `yaml:"enable_stop_loss"`
	StopLossPct      float64 `yaml:"stop_loss_pct"`
	EnableTakeProfit bool    `yaml:"enable_take_profit"`
	TakeProfitPct    float64 `yaml:"take_profit_pct"`
	TrailingStopPct  float64 `yaml:"trailing_stop_pct"`
	MaxTradesPerDay  int     `yaml:"max_trades_per_day"`
	CooldownBars     int     `yaml:"cooldown_bars"`
	MaxDailyLossPct  float64 `yaml:"max_daily_loss_pct"`
}

type TradeSection struct {
	InitialCapital  float64 `yaml:"initial_capital"`
	PositionSizePct float64 `yaml:"position_size_pct"`
	LotSize         float64 `yaml:"lot_size"`
	CompoundCapital bool    `yaml:"compound_capital"`
	CommissionPct   float64 `yaml:"commission_pct"`
	SlippageAbs     float64 `yaml:"slippage_abs"`
	ExitFill        string  `yaml:"exit_fill"`
}

type SessionSection struct {
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
	EODExit string `yaml:"eod_exit"`
}

type BacktestSection struct {
	Symbol              string  `yaml:"symbol"`
	Interval            string  `yaml:"interval"`
	DataFile            string  `yaml:"data_file"`
	From                string  `yaml:"from"` // YYYY-MM-DD, inclusive
	To                  string  `yaml:"to"`   // YYYY-MM-DD, inclusive
	AnnualizationFactor float64 `yaml:"annualization_factor"`
}

type OptimizationSection struct {
	FastPeriods    []int     `yaml:"fast_period"`
	SlowPeriods    []int     `yaml:"slow_period"`
	SignalPeriods  []int     `yaml:"signal_period"`
	StopLossPcts   []float64 `yaml:"stop_loss_pct"`
	TakeProfitPcts []float64 `yaml:"take_profit_pct"`
	Metric         string    `yaml:"metric"`
}

// DefaultRunFile mirrors backtest.NewConfig.
func DefaultRunFile() *RunFile {
	c := backtest.NewConfig()
	return &RunFile{
		Strategy: c.Strategy,
		Risk: RiskSection{
			EnableStopLoss:   c.EnableStopLoss,
			StopLossPct:      c.StopLossPct,
			EnableTakeProfit: c.EnableTakeProfit,
			TakeProfitPct:    c.TakeProfitPct,
			TrailingStopPct:  c.TrailingStopPct,
			MaxTradesPerDay:  c.MaxTradesPerDay,
			CooldownBars:     c.CooldownBars,
			MaxDailyLossPct:  c.MaxDailyLossPct,
		},
		Trade: TradeSection{
			InitialCapital:  c.InitialCapital,
			PositionSizePct: c.PositionSizePct,
			LotSize:         c.LotSize,
			CompoundCapital: c.CompoundCapital,
			CommissionPct:   c.CommissionPct,
			SlippageAbs:     c.SlippageAbs,
			ExitFill:        string(c.ExitFill),
		},
		Session: SessionSection{
			Start:   c.SessionStart,
			End:     c.SessionEnd,
			EODExit: c.EODExitTime,
		},
		Backtest: BacktestSection{
			Interval:            "1m",
			AnnualizationFactor: c.AnnualizationFactor,
		},
		Optimization: OptimizationSection{
			Metric: string(backtest.RankBySharpe),
		},
	}
}

func LoadRunFile(path string) (*RunFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}
	return ParseRunFile(raw)
}

// ParseRunFile decodes YAML over the defaults.
func ParseRunFile(raw []byte) (*RunFile, error) {
	rf := DefaultRunFile()
	if err := yaml.Unmarshal(raw, rf); err != nil {
		return nil, fmt.Errorf("parsing run file: %w", err)
	}
	return rf, nil
}

// EngineConfig flattens the file into a validated engine config.
func (rf *RunFile) EngineConfig() (backtest.Config, error) {
	c := backtest.Config{
		Strategy:            rf.Strategy,
		EnableStopLoss:      rf.Risk.EnableStopLoss,
		StopLossPct:         rf.Risk.StopLossPct,
		EnableTakeProfit:    rf.Risk.EnableTakeProfit,
		TakeProfitPct:       rf.Risk.TakeProfitPct,
		TrailingStopPct:     rf.Risk.TrailingStopPct,
		InitialCapital:      rf.Trade.InitialCapital,
		PositionSizePct:     rf.Trade.PositionSizePct,
		LotSize:             rf.Trade.LotSize,
		CompoundCapital:     rf.Trade.CompoundCapital,
		CommissionPct:       rf.Trade.CommissionPct,
		SlippageAbs:         rf.Trade.SlippageAbs,
		MaxTradesPerDay:     rf.Risk.MaxTradesPerDay,
		CooldownBars:        rf.Risk.CooldownBars,
		MaxDailyLossPct:     rf.Risk.MaxDailyLossPct,
		SessionStart:        rf.Session.Start,
		SessionEnd:          rf.Session.End,
		EODExitTime:         rf.Session.EODExit,
		ExitFill:            backtest.ExitFill(rf.Trade.ExitFill),
		AnnualizationFactor: rf.Backtest.AnnualizationFactor,
	}
	if err := c.Validate(); err != nil {
		return backtest.Config{}, err
	}
	return c, nil
}

func (rf *RunFile) Grid() backtest.Grid {
	o := rf.Optimization
	return backtest.Grid{
		FastPeriods:    o.FastPeriods,
		SlowPeriods:    o.SlowPeriods,
		SignalPeriods:  o.SignalPeriods,
		StopLossPcts:   o.StopLossPcts,
		TakeProfitPcts: o.TakeProfitPcts,
	}
}

// DateRange parses from/to. A zero time leaves that side open; to covers the
// whole day.
func (b BacktestSection) DateRange() (from, to time.Time, err error) {
	if b.From != "" {
		if from, err = time.Parse(dateLayout, b.From); err != nil {
			return from, to, fmt.Errorf("backtest.from: %w", err)
		}
	}
	if b.To != "" {
		if to, err = time.Parse(dateLayout, b.To); err != nil {
			return from, to, fmt.Errorf("backtest.to: %w", err)
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, fmt.Errorf("backtest.to %s is before backtest.from %s", b.To, b.From)
	}
	return from, to, nil
}
