package reporting

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"

	"github.com/vsharma2491/ALGO/internal/models"
	"github.com/vsharma2491/ALGO/internal/operations/backtest"
	"github.com/vsharma2491/ALGO/internal/services/performance"
)

const timeLayout = "2006-01-02 15:04:05"

// PrintSummary renders the headline metrics, the exit reason counts and the
// monthly returns.
func PrintSummary(w io.Writer, m performance.Metrics) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	rows := [][]string{
		{"Initial Capital", money(m.InitialCapital)},
		{"Final Equity", money(m.FinalEquity)},
		{"Net PnL", money(m.NetPnL)},
		{"Total Commission", money(m.TotalCommission)},
		{"Total Return", pct(m.TotalReturn)},
		{"Total Trades", strconv.Itoa(m.TotalTrades)},
		{"Win Rate", pct(m.WinRate)},
		{"Sharpe Ratio", num(m.SharpeRatio)},
		{"Max Drawdown", pct(m.MaxDrawdown)},
		{"Max Runup", pct(m.MaxRunup)},
		{"Profit Factor", num(m.ProfitFactor)},
		{"Avg Win / Avg Loss", num(m.WinLossRatio)},
		{"Largest Win", money(m.LargestWin)},
		{"Largest Loss", money(m.LargestLoss)},
		{"Max Consecutive Losses", strconv.Itoa(m.MaxConsecutiveLosses)},
		{"Avg Bars Held", num(m.AvgBarsHeld)},
	}
	table.AppendBulk(rows)
	table.Render()

	if len(m.ExitReasons) > 0 {
		reasons := make([]string, 0, len(m.ExitReasons))
		for r := range m.ExitReasons {
			reasons = append(reasons, string(r))
		}
		sort.Strings(reasons)

		exits := tablewriter.NewWriter(w)
		exits.SetHeader([]string{"Exit Reason", "Trades"})
		for _, r := range reasons {
			exits.Append([]string{r, strconv.Itoa(m.ExitReasons[models.ExitReason(r)])})
		}
		exits.Render()
	}

	if len(m.MonthlyReturns) > 0 {
		monthly := tablewriter.NewWriter(w)
		monthly.SetHeader([]string{"Month", "Equity", "Return"})
		for _, mr := range m.MonthlyReturns {
			monthly.Append([]string{mr.Month, money(mr.Equity), pct(mr.Return)})
		}
		monthly.Render()
	}
}

// PrintLedger renders one row per closed trade.
func PrintLedger(w io.Writer, trades []models.ClosedTrade) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Side", "Entry Time", "Entry", "Exit Time", "Exit", "Qty", "Net PnL", "Reason", "Bars"})

	for i, t := range trades {
		table.Append([]string{
			strconv.Itoa(i + 1),
			string(t.Side),
			t.EntryTime.Format(timeLayout),
			num(t.EntryPrice),
			t.ExitTime.Format(timeLayout),
			num(t.ExitPrice),
			strconv.FormatFloat(t.Quantity, 'f', -1, 64),
			money(t.NetPnL),
			string(t.ExitReason),
			strconv.Itoa(t.BarsHeld),
		})
	}
	table.Render()
}

// PrintSweep renders ranked results; top <= 0 prints all of them.
func PrintSweep(w io.Writer, ranked []backtest.SweepResult, top int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Fast", "Slow", "Signal", "SL", "TP", "Trades", "Return", "Sharpe", "Max DD", "PF", "Error"})

	for i, r := range ranked {
		if top > 0 && i >= top {
			break
		}
		p := r.Config.Strategy
		row := []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(p.FastPeriod),
			strconv.Itoa(p.SlowPeriod),
			strconv.Itoa(p.SignalPeriod),
			pct(r.Config.StopLossPct),
			pct(r.Config.TakeProfitPct),
		}
		if r.Err != nil || r.Result == nil {
			row = append(row, "-", "-", "-", "-", "-", errText(r.Err))
		} else {
			m := r.Result.Metrics
			row = append(row, strconv.Itoa(m.TotalTrades), pct(m.TotalReturn), num(m.SharpeRatio), pct(m.MaxDrawdown), num(m.ProfitFactor), "")
		}
		table.Append(row)
	}
	table.Render()
}

// PrintRuns renders stored run summaries.
func PrintRuns(w io.Writer, runs []models.BacktestRun) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Created", "Symbol", "Strategy", "Bars", "Trades", "Return", "Sharpe", "Max DD"})

	for _, r := range runs {
		table.Append([]string{
			r.ID,
			r.CreatedAt.Format(timeLayout),
			r.Symbol,
			r.Strategy,
			strconv.Itoa(r.BarCount),
			strconv.Itoa(r.TotalTrades),
			pct(r.TotalReturn),
			num(r.SharpeRatio),
			pct(r.MaxDrawdown),
		})
	}
	table.Render()
}

type ledgerRow struct {
	Side       string  `csv:"side"`
	EntryTime  string  `csv:"entry_time"`
	EntryPrice float64 `csv:"entry_price"`
	ExitTime   string  `csv:"exit_time"`
	ExitPrice  float64 `csv:"exit_price"`
	Quantity   float64 `csv:"quantity"`
	GrossPnL   float64 `csv:"gross_pnl"`
	Commission float64 `csv:"commission"`
	NetPnL     float64 `csv:"net_pnl"`
	Return     float64 `csv:"return"`
	ExitReason string  `csv:"exit_reason"`
	BarsHeld   int     `csv:"bars_held"`
}

type equityRow struct {
	Timestamp string  `csv:"timestamp"`
	Equity    float64 `csv:"equity"`
}

// WriteLedgerCSV writes the ledger with a header row.
func WriteLedgerCSV(w io.Writer, trades []models.ClosedTrade) error {
	rows := make([]ledgerRow, len(trades))
	for i, t := range trades {
		rows[i] = ledgerRow{
			Side:       string(t.Side),
			EntryTime:  t.EntryTime.Format(time.RFC3339),
			EntryPrice: t.EntryPrice,
			ExitTime:   t.ExitTime.Format(time.RFC3339),
			ExitPrice:  t.ExitPrice,
			Quantity:   t.Quantity,
			GrossPnL:   t.GrossPnL,
			Commission: t.Commission,
			NetPnL:     t.NetPnL,
			Return:     t.Return,
			ExitReason: string(t.ExitReason),
			BarsHeld:   t.BarsHeld,
		}
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("writing ledger csv: %w", err)
	}
	return nil
}

func WriteEquityCSV(w io.Writer, curve []models.EquityPoint) error {
	rows := make([]equityRow, len(curve))
	for i, p := range curve {
		rows[i] = equityRow{Timestamp: p.Timestamp.Format(time.RFC3339), Equity: p.Equity}
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("writing equity csv: %w", err)
	}
	return nil
}

func WriteMonthlyCSV(w io.Writer, months []performance.MonthlyReturn) error {
	if err := gocsv.Marshal(&months, w); err != nil {
		return fmt.Errorf("writing monthly csv: %w", err)
	}
	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func errText(err error) string {
	if err == nil {
		return "no result"
	}
	return err.Error()
}
