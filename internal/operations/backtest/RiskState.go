package backtest

import "time"

// RiskState carries the per-day counters and the cooldown anchor of a single
// run. It is never shared between runs.
type RiskState struct {
	day           time.Time
	tradesToday   int
	pnlToday      float64
	lastExitIndex int
}

func newRiskState(cooldownBars int) *RiskState {
	return &RiskState{lastExitIndex: -cooldownBars}
}

// rollDay resets the daily counters when t falls on a new calendar day.
func (r *RiskState) rollDay(t time.Time) {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	if day.Equal(r.day) {
		return
	}
	r.day = day
	r.tradesToday = 0
	r.pnlToday = 0
}

// canEnter applies cooldown, the daily trade cap and the daily loss cap.
func (r *RiskState) canEnter(i int, cfg Config) bool {
	if i-r.lastExitIndex < cfg.CooldownBars {
		return false
	}
	if cfg.MaxTradesPerDay > 0 && r.tradesToday >= cfg.MaxTradesPerDay {
		return false
	}
	if cfg.MaxDailyLossPct > 0 && r.pnlToday <= -cfg.MaxDailyLossPct*cfg.InitialCapital {
		return false
	}
	return true
}

func (r *RiskState) recordExit(i int, netPnL float64) {
	r.tradesToday++
	r.pnlToday += netPnL
	r.lastExitIndex = i
}
