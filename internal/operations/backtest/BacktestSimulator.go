package backtest

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vsharma2491/ALGO/internal/models"
	"github.com/vsharma2491/ALGO/internal/services/strategy"
)

// Simulator walks one bar series. Each run builds its own Simulator; nothing
// in it is shared.
type Simulator struct {
	config  Config
	session session
	bars    []models.Bar
	signals *strategy.SignalSet
	log     logrus.FieldLogger

	// State tracking
	position *models.Position
	risk     *RiskState
	equity   float64

	// Results collection
	trades      []models.ClosedTrade
	equityCurve []models.EquityPoint
}

func newSimulator(config Config, sess session, bars []models.Bar, signals *strategy.SignalSet, log logrus.FieldLogger) *Simulator {
	return &Simulator{
		config:      config,
		session:     sess,
		bars:        bars,
		signals:     signals,
		log:         log,
		risk:        newRiskState(config.CooldownBars),
		equity:      config.InitialCapital,
		trades:      make([]models.ClosedTrade, 0),
		equityCurve: []models.EquityPoint{{Timestamp: bars[0].Time, Equity: config.InitialCapital}},
	}
}

// Run processes every bar in order and closes any position left at the end.
func (s *Simulator) Run() ([]models.ClosedTrade, []models.EquityPoint) {
	for i, bar := range s.bars {
		s.ProcessBar(i, bar)
	}

	if s.position != nil {
		last := len(s.bars) - 1
		s.closePosition(last, s.bars[last], models.ExitReasonEndOfData)
	}
	return s.trades, s.equityCurve
}

// ProcessBar applies, in order: day roll, session gate, exits, entries.
func (s *Simulator) ProcessBar(i int, bar models.Bar) {
	s.risk.rollDay(bar.Time)

	clock := clockOf(bar.Time)
	inSession := s.session.contains(clock)

	if s.position != nil {
		if reason, ok := s.checkExit(i, bar, clock, inSession); ok {
			s.closePosition(i, bar, reason)
		} else if inSession {
			s.trail(bar)
		}
	}

	if s.position == nil && inSession && !s.session.pastCutoff(clock) {
		s.tryEntry(i, bar)
	}
}

// checkExit returns the first matching exit in priority order: stop, target,
// end of day, opposite signal. Outside the session only the end-of-day close
// is considered.
func (s *Simulator) checkExit(i int, bar models.Bar, clock int, inSession bool) (models.ExitReason, bool) {
	pos := s.position
	eodDue := s.session.eod >= 0 && (clock >= s.session.eod || !sameDay(pos.EntryTime, bar.Time))

	if !inSession {
		if eodDue {
			return models.ExitReasonEndOfDay, true
		}
		return "", false
	}

	long := pos.Side == models.PositionSideLong

	if !math.IsNaN(pos.StopPrice) {
		if (long && bar.Low <= pos.StopPrice) || (!long && bar.High >= pos.StopPrice) {
			if pos.Trailed {
				return models.ExitReasonTrailingStop, true
			}
			return models.ExitReasonStopLoss, true
		}
	}

	if !math.IsNaN(pos.TargetPrice) {
		if (long && bar.High >= pos.TargetPrice) || (!long && bar.Low <= pos.TargetPrice) {
			return models.ExitReasonTakeProfit, true
		}
	}

	if eodDue {
		return models.ExitReasonEndOfDay, true
	}

	if (long && s.signals.LongExit[i]) || (!long && s.signals.ShortExit[i]) {
		return models.ExitReasonSignal, true
	}

	return "", false
}

func (s *Simulator) tryEntry(i int, bar models.Bar) {
	if !s.risk.canEnter(i, s.config) {
		return
	}

	var side models.Side
	switch {
	case s.signals.LongEntry[i]:
		side = models.PositionSideLong
	case s.signals.ShortEntry[i]:
		side = models.PositionSideShort
	default:
		return
	}

	quantity := s.calculatePositionSize(bar.Close)
	if quantity < s.config.LotSize {
		s.log.WithFields(logrus.Fields{"bar": i, "price": bar.Close}).Debug("entry skipped: insufficient capital")
		return
	}

	s.openPosition(i, bar, side, quantity)
}

// calculatePositionSize truncates to whole lots.
func (s *Simulator) calculatePositionSize(price float64) float64 {
	if price <= 0 {
		return 0
	}
	capital := s.config.InitialCapital
	if s.config.CompoundCapital {
		capital = s.equity
	}
	capital *= s.config.PositionSizePct
	if capital <= 0 {
		return 0
	}
	lots := math.Floor(capital / (price * s.config.LotSize))
	return lots * s.config.LotSize
}

func (s *Simulator) openPosition(i int, bar models.Bar, side models.Side, quantity float64) {
	entry := bar.Close
	dir := side.Direction()

	pos := &models.Position{
		Side:          side,
		EntryPrice:    entry,
		EntryTime:     bar.Time,
		EntryBarIndex: i,
		Quantity:      quantity,
		StopPrice:     math.NaN(),
		TargetPrice:   math.NaN(),
		Extreme:       entry,
	}

	if s.config.EnableStopLoss {
		if d, ok := distanceAt(s.signals.StopDistance, i); ok {
			pos.StopPrice = entry - dir*d
		} else {
			pos.StopPrice = entry * (1 - dir*s.config.StopLossPct)
		}
	}
	if s.config.EnableTakeProfit {
		if d, ok := distanceAt(s.signals.TargetDistance, i); ok {
			pos.TargetPrice = entry + dir*d
		} else {
			pos.TargetPrice = entry * (1 + dir*s.config.TakeProfitPct)
		}
	}
	if d, ok := distanceAt(s.signals.TrailDistance, i); ok {
		pos.TrailDistance = d
	}

	s.position = pos

	s.log.WithFields(logrus.Fields{
		"bar":      i,
		"side":     side,
		"price":    entry,
		"quantity": quantity,
		"stop":     pos.StopPrice,
		"target":   pos.TargetPrice,
	}).Debug("position opened")
}

// trail moves the stop toward price after a bar that did not exit.
func (s *Simulator) trail(bar models.Bar) {
	pos := s.position
	long := pos.Side == models.PositionSideLong

	if long {
		pos.Extreme = math.Max(pos.Extreme, bar.High)
	} else {
		pos.Extreme = math.Min(pos.Extreme, bar.Low)
	}

	dist := pos.TrailDistance
	if dist == 0 && s.config.TrailingStopPct > 0 {
		dist = pos.Extreme * s.config.TrailingStopPct
	}
	if dist == 0 {
		return
	}

	candidate := pos.Extreme - pos.Side.Direction()*dist
	improves := math.IsNaN(pos.StopPrice) ||
		(long && candidate > pos.StopPrice) ||
		(!long && candidate < pos.StopPrice)
	if improves {
		pos.StopPrice = candidate
		pos.Trailed = true
	}
}

func (s *Simulator) closePosition(i int, bar models.Bar, reason models.ExitReason) {
	pos := s.position
	dir := pos.Side.Direction()

	fill := s.determineFillPrice(pos, bar, reason)
	exitPrice := fill - dir*s.config.SlippageAbs
	commission := s.config.CommissionPct * pos.EntryPrice * pos.Quantity
	netPnL := (exitPrice-pos.EntryPrice)*pos.Quantity*dir - commission

	trade := models.ClosedTrade{
		Side:          pos.Side,
		EntryPrice:    pos.EntryPrice,
		EntryTime:     pos.EntryTime,
		EntryBarIndex: pos.EntryBarIndex,
		ExitPrice:     exitPrice,
		ExitTime:      bar.Time,
		ExitBarIndex:  i,
		Quantity:      pos.Quantity,
		GrossPnL:      (fill - pos.EntryPrice) * pos.Quantity * dir,
		Commission:    commission,
		NetPnL:        netPnL,
		Return:        netPnL / s.config.InitialCapital,
		ExitReason:    reason,
		BarsHeld:      i - pos.EntryBarIndex,
	}

	s.equity += netPnL
	s.trades = append(s.trades, trade)
	s.equityCurve = append(s.equityCurve, models.EquityPoint{Timestamp: bar.Time, Equity: s.equity})
	s.risk.recordExit(i, netPnL)
	s.position = nil

	s.log.WithFields(logrus.Fields{
		"bar":    i,
		"side":   trade.Side,
		"reason": reason,
		"price":  exitPrice,
		"pnl":    netPnL,
		"equity": s.equity,
	}).Debug("position closed")
}

// determineFillPrice is the bar close unless trigger fills are configured for
// a stop or target exit. A bar opening beyond the level fills at the open.
func (s *Simulator) determineFillPrice(pos *models.Position, bar models.Bar, reason models.ExitReason) float64 {
	if s.config.ExitFill != ExitFillTrigger {
		return bar.Close
	}

	long := pos.Side == models.PositionSideLong
	switch reason {
	case models.ExitReasonStopLoss, models.ExitReasonTrailingStop:
		if long {
			return math.Min(pos.StopPrice, bar.Open)
		}
		return math.Max(pos.StopPrice, bar.Open)
	case models.ExitReasonTakeProfit:
		if long {
			return math.Max(pos.TargetPrice, bar.Open)
		}
		return math.Min(pos.TargetPrice, bar.Open)
	}
	return bar.Close
}

func distanceAt(series []float64, i int) (float64, bool) {
	if i >= len(series) {
		return 0, false
	}
	d := series[i]
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0, false
	}
	return d, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
