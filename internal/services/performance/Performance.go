package performance

import (
	"encoding/json"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/vsharma2491/ALGO/internal/models"
)

// Metrics summarises a ledger and its equity curve. ProfitFactor and
// WinLossRatio are NaN when undefined and encode as null.
type Metrics struct {
	TotalTrades   int `json:"total_trades"`
	WinningTrades int `json:"winning_trades"`
	LosingTrades  int `json:"losing_trades"`

	InitialCapital  float64 `json:"initial_capital"`
	FinalEquity     float64 `json:"final_equity"`
	NetPnL          float64 `json:"net_pnl"`
	GrossPnL        float64 `json:"gross_pnl"`
	TotalCommission float64 `json:"total_commission"`
	TotalReturn     float64 `json:"total_return"`

	WinRate      float64 `json:"win_rate"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	MaxRunup     float64 `json:"max_runup"`
	ProfitFactor float64 `json:"profit_factor"`

	AvgPnL       float64 `json:"avg_pnl"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	WinLossRatio float64 `json:"win_loss_ratio"`
	LargestWin   float64 `json:"largest_win"`
	LargestLoss  float64 `json:"largest_loss"`

	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	AvgBarsHeld          float64 `json:"avg_bars_held"`
	AvgBarsHeldWinners   float64 `json:"avg_bars_held_winners"`
	AvgBarsHeldLosers    float64 `json:"avg_bars_held_losers"`
	TotalQuantity        float64 `json:"total_quantity"`

	ExitReasons    map[models.ExitReason]int `json:"exit_reasons"`
	MonthlyReturns []MonthlyReturn           `json:"monthly_returns"`
}

type MonthlyReturn struct {
	Month  string  `json:"month" csv:"month"` // YYYY-MM
	Equity float64 `json:"equity" csv:"equity"`
	Return float64 `json:"return" csv:"return"`
}

func (m Metrics) MarshalJSON() ([]byte, error) {
	type alias Metrics
	return json.Marshal(struct {
		alias
		ProfitFactor *float64 `json:"profit_factor"`
		WinLossRatio *float64 `json:"win_loss_ratio"`
	}{
		alias:        alias(m),
		ProfitFactor: Nullable(m.ProfitFactor),
		WinLossRatio: Nullable(m.WinLossRatio),
	})
}

// Nullable maps NaN and infinities to nil.
func Nullable(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Compute derives the metrics. annualization scales the per-trade Sharpe
// ratio, e.g. 252*390 for one-minute equity bars.
func Compute(trades []models.ClosedTrade, curve []models.EquityPoint, initialCapital, annualization float64) Metrics {
	m := Metrics{
		TotalTrades:    len(trades),
		InitialCapital: initialCapital,
		FinalEquity:    initialCapital,
		ProfitFactor:   math.NaN(),
		WinLossRatio:   math.NaN(),
		ExitReasons:    make(map[models.ExitReason]int),
	}

	var (
		grossWin, grossLoss float64
		sumWin, sumLoss     float64
		winBars, lossBars   int
		totalBars, streak   int
	)
	returns := make([]float64, 0, len(trades))

	for _, t := range trades {
		m.FinalEquity += t.NetPnL
		m.NetPnL += t.NetPnL
		m.GrossPnL += t.GrossPnL
		m.TotalCommission += t.Commission
		m.TotalQuantity += t.Quantity
		m.ExitReasons[t.ExitReason]++
		returns = append(returns, t.Return)
		totalBars += t.BarsHeld

		if t.NetPnL > 0 {
			m.WinningTrades++
			sumWin += t.NetPnL
			grossWin += t.NetPnL
			winBars += t.BarsHeld
			m.LargestWin = math.Max(m.LargestWin, t.NetPnL)
			streak = 0
			continue
		}

		m.LosingTrades++
		sumLoss += t.NetPnL
		grossLoss += -t.NetPnL
		lossBars += t.BarsHeld
		m.LargestLoss = math.Min(m.LargestLoss, t.NetPnL)
		streak++
		if streak > m.MaxConsecutiveLosses {
			m.MaxConsecutiveLosses = streak
		}
	}

	if initialCapital > 0 {
		m.TotalReturn = m.FinalEquity/initialCapital - 1
	}
	m.MaxDrawdown, m.MaxRunup = excursions(curve)
	m.MonthlyReturns = monthlyReturns(curve, initialCapital)

	if m.TotalTrades == 0 {
		return m
	}

	n := float64(m.TotalTrades)
	m.WinRate = float64(m.WinningTrades) / n
	m.AvgPnL = m.NetPnL / n
	m.AvgBarsHeld = float64(totalBars) / n
	if m.WinningTrades > 0 {
		m.AvgWin = sumWin / float64(m.WinningTrades)
		m.AvgBarsHeldWinners = float64(winBars) / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = sumLoss / float64(m.LosingTrades)
		m.AvgBarsHeldLosers = float64(lossBars) / float64(m.LosingTrades)
	}
	if m.AvgLoss != 0 {
		m.WinLossRatio = math.Abs(m.AvgWin / m.AvgLoss)
	}
	if grossLoss > 0 {
		m.ProfitFactor = grossWin / grossLoss
	}
	m.SharpeRatio = sharpe(returns, annualization)

	return m
}

// sharpe is 0 with fewer than two returns or no dispersion.
func sharpe(returns []float64, annualization float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, err := stats.Mean(returns)
	if err != nil {
		return 0
	}
	std, err := stats.StandardDeviationPopulation(returns)
	if err != nil || std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(annualization)
}

// excursions returns the deepest drawdown from a running peak (<= 0) and the
// largest runup from a running trough (>= 0), both as fractions.
func excursions(curve []models.EquityPoint) (drawdown, runup float64) {
	if len(curve) == 0 {
		return 0, 0
	}
	peak, trough := curve[0].Equity, curve[0].Equity
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if p.Equity < trough {
			trough = p.Equity
		}
		if peak > 0 {
			drawdown = math.Min(drawdown, (p.Equity-peak)/peak)
		}
		if trough > 0 {
			runup = math.Max(runup, (p.Equity-trough)/trough)
		}
	}
	return drawdown, runup
}

func monthlyReturns(curve []models.EquityPoint, initialCapital float64) []MonthlyReturn {
	var out []MonthlyReturn
	for _, p := range curve {
		month := p.Timestamp.Format("2006-01")
		if n := len(out); n > 0 && out[n-1].Month == month {
			out[n-1].Equity = p.Equity
			continue
		}
		out = append(out, MonthlyReturn{Month: month, Equity: p.Equity})
	}

	prev := initialCapital
	for i := range out {
		if prev != 0 {
			out[i].Return = out[i].Equity/prev - 1
		}
		prev = out[i].Equity
	}
	return out
}
