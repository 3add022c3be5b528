package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/vsharma2491/ALGO/internal/models"
	"github.com/vsharma2491/ALGO/internal/services/performance"
	"github.com/vsharma2491/ALGO/internal/services/strategy"
)

// ExitFill selects the raw price a stop or target exit fills at before
// slippage.
type ExitFill string

const (
	ExitFillClose   ExitFill = "close"
	ExitFillTrigger ExitFill = "trigger"
)

// Defaults taken from the intraday index setup the engine was tuned on.
const (
	DefaultInitialCapital      = 100000.0
	DefaultCommissionPct       = 0.0001
	DefaultSlippageAbs         = 0.05
	DefaultStopLossPct         = 0.02
	DefaultTakeProfitPct       = 0.04
	DefaultMaxTradesPerDay     = 15
	DefaultCooldownBars        = 1
	DefaultMaxDailyLossPct     = 0.02
	DefaultAnnualizationFactor = 252 * 390
)

// Config is the immutable parameter set of one run.
type Config struct {
	Strategy strategy.Params `json:"strategy"`

	EnableStopLoss   bool    `json:"enable_stop_loss"`
	StopLossPct      float64 `json:"stop_loss_pct"`
	EnableTakeProfit bool    `json:"enable_take_profit"`
	TakeProfitPct    float64 `json:"take_profit_pct"`
	TrailingStopPct  float64 `json:"trailing_stop_pct"` // 0 disables

	InitialCapital  float64 `json:"initial_capital"`
	PositionSizePct float64 `json:"position_size_pct"`
	LotSize         float64 `json:"lot_size"`
	CompoundCapital bool    `json:"compound_capital"`
	CommissionPct   float64 `json:"commission_pct"`
	SlippageAbs     float64 `json:"slippage_abs"`

	MaxTradesPerDay int     `json:"max_trades_per_day"` // 0 = unlimited
	CooldownBars    int     `json:"cooldown_bars"`
	MaxDailyLossPct float64 `json:"max_daily_loss_pct"` // 0 disables

	// Clock times as HH:MM or HH:MM:SS in the bars' own location. Empty
	// strings leave the bound open.
	SessionStart string `json:"session_start"`
	SessionEnd   string `json:"session_end"`
	EODExitTime  string `json:"eod_exit_time"`

	ExitFill            ExitFill `json:"exit_fill"`
	AnnualizationFactor float64  `json:"annualization_factor"`
}

// NewConfig creates default config
func NewConfig() Config {
	return Config{
		Strategy:            strategy.DefaultParams(),
		EnableStopLoss:      true,
		StopLossPct:         DefaultStopLossPct,
		EnableTakeProfit:    true,
		TakeProfitPct:       DefaultTakeProfitPct,
		InitialCapital:      DefaultInitialCapital,
		PositionSizePct:     1.0,
		LotSize:             1,
		CommissionPct:       DefaultCommissionPct,
		SlippageAbs:         DefaultSlippageAbs,
		MaxTradesPerDay:     DefaultMaxTradesPerDay,
		CooldownBars:        DefaultCooldownBars,
		MaxDailyLossPct:     DefaultMaxDailyLossPct,
		SessionStart:        "09:15",
		SessionEnd:          "15:30",
		EODExitTime:         "15:29",
		ExitFill:            ExitFillClose,
		AnnualizationFactor: DefaultAnnualizationFactor,
	}
}

// ConfigError is returned before any bar is processed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

func configErr(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (c Config) Validate() error {
	if err := c.Strategy.Validate(); err != nil {
		var perr *strategy.ParamError
		if errors.As(err, &perr) {
			return &ConfigError{Field: "strategy." + perr.Field, Reason: perr.Reason}
		}
		return &ConfigError{Field: "strategy", Reason: err.Error()}
	}

	switch {
	case c.EnableStopLoss && (c.StopLossPct <= 0 || c.StopLossPct >= 1):
		return configErr("stop_loss_pct", "must be in (0,1), got %g", c.StopLossPct)
	case c.EnableTakeProfit && c.TakeProfitPct <= 0:
		return configErr("take_profit_pct", "must be positive, got %g", c.TakeProfitPct)
	case c.TrailingStopPct < 0 || c.TrailingStopPct >= 1:
		return configErr("trailing_stop_pct", "must be in [0,1), got %g", c.TrailingStopPct)
	case c.InitialCapital <= 0:
		return configErr("initial_capital", "must be positive, got %g", c.InitialCapital)
	case c.PositionSizePct <= 0:
		return configErr("position_size_pct", "must be positive, got %g", c.PositionSizePct)
	case c.LotSize <= 0:
		return configErr("lot_size", "must be positive, got %g", c.LotSize)
	case c.CommissionPct < 0:
		return configErr("commission_pct", "must not be negative, got %g", c.CommissionPct)
	case c.SlippageAbs < 0:
		return configErr("slippage_abs", "must not be negative, got %g", c.SlippageAbs)
	case c.MaxTradesPerDay < 0:
		return configErr("max_trades_per_day", "must not be negative, got %d", c.MaxTradesPerDay)
	case c.CooldownBars < 0:
		return configErr("cooldown_bars", "must not be negative, got %d", c.CooldownBars)
	case c.MaxDailyLossPct < 0:
		return configErr("max_daily_loss_pct", "must not be negative, got %g", c.MaxDailyLossPct)
	case c.AnnualizationFactor <= 0:
		return configErr("annualization_factor", "must be positive, got %g", c.AnnualizationFactor)
	}

	switch c.ExitFill {
	case "", ExitFillClose, ExitFillTrigger:
	default:
		return configErr("exit_fill", "unknown fill model %q", c.ExitFill)
	}

	_, err := c.session()
	return err
}

// Result is everything one run produces.
type Result struct {
	Strategy    string               `json:"strategy"`
	BarCount    int                  `json:"bar_count"`
	StartTime   time.Time            `json:"start_time"` // first bar; zero without bars
	EndTime     time.Time            `json:"end_time"`   // last bar
	Trades      []models.ClosedTrade `json:"trades"`
	EquityCurve []models.EquityPoint `json:"equity_curve"`
	Metrics     performance.Metrics  `json:"metrics"`
}

// session holds the parsed clock bounds in seconds since midnight; -1 is unset.
type session struct {
	start, end, eod int
}

func (c Config) session() (session, error) {
	var s session
	var err error
	if s.start, err = parseClock(c.SessionStart); err != nil {
		return s, configErr("session_start", "%v", err)
	}
	if s.end, err = parseClock(c.SessionEnd); err != nil {
		return s, configErr("session_end", "%v", err)
	}
	if s.eod, err = parseClock(c.EODExitTime); err != nil {
		return s, configErr("eod_exit_time", "%v", err)
	}
	if s.start >= 0 && s.end >= 0 && s.start > s.end {
		return s, configErr("session_end", "%s is before session start %s", c.SessionEnd, c.SessionStart)
	}
	return s, nil
}

func (s session) contains(clock int) bool {
	if s.start >= 0 && clock < s.start {
		return false
	}
	if s.end >= 0 && clock > s.end {
		return false
	}
	return true
}

func (s session) pastCutoff(clock int) bool {
	return s.eod >= 0 && clock >= s.eod
}

func parseClock(v string) (int, error) {
	if v == "" {
		return -1, nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Hour()*3600 + t.Minute()*60 + t.Second(), nil
		}
	}
	return -1, fmt.Errorf("invalid clock time %q, want HH:MM", v)
}

func clockOf(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
