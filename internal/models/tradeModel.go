package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExitReason string

const (
	ExitReasonStopLoss     ExitReason = "StopLoss"
	ExitReasonTrailingStop ExitReason = "TrailingStop"
	ExitReasonTakeProfit   ExitReason = "TakeProfit"
	ExitReasonEndOfDay     ExitReason = "EndOfDay"
	ExitReasonSignal       ExitReason = "ExitSignal"
	ExitReasonEndOfData    ExitReason = "EndOfData"
)

// ClosedTrade is one completed round trip. Ledgers are append-only and
// ordered by exit time.
type ClosedTrade struct {
	Side          Side       `json:"side"`
	EntryPrice    float64    `json:"entry_price"`
	EntryTime     time.Time  `json:"entry_time"`
	EntryBarIndex int        `json:"entry_bar_index"`
	ExitPrice     float64    `json:"exit_price"`
	ExitTime      time.Time  `json:"exit_time"`
	ExitBarIndex  int        `json:"exit_bar_index"`
	Quantity      float64    `json:"quantity"`
	GrossPnL      float64    `json:"gross_pnl"`
	Commission    float64    `json:"commission"`
	NetPnL        float64    `json:"net_pnl"`
	Return        float64    `json:"return"` // net pnl over initial capital
	ExitReason    ExitReason `json:"exit_reason"`
	BarsHeld      int        `json:"bars_held"`
}

// EquityPoint records realized equity after a trade closes.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}

// TradeRecord is the persisted form of a ClosedTrade.
type TradeRecord struct {
	ID         uint            `gorm:"primaryKey"`
	RunID      string          `gorm:"type:uuid;index;not null"`
	Seq        int             `gorm:"not null"`
	Side       string          `gorm:"not null"`
	EntryTime  time.Time       `gorm:"not null"`
	ExitTime   time.Time       `gorm:"index;not null"`
	EntryPrice decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	ExitPrice  decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	GrossPnL   decimal.Decimal `gorm:"type:decimal(20,8)"`
	Commission decimal.Decimal `gorm:"type:decimal(20,8)"`
	NetPnL     decimal.Decimal `gorm:"type:decimal(20,8)"`
	ExitReason string          `gorm:"not null"`
	BarsHeld   int

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (TradeRecord) TableName() string {
	return "backtest_trades"
}

// NewTradeRecord converts a ledger entry for storage under runID.
func NewTradeRecord(runID string, seq int, t ClosedTrade) TradeRecord {
	return TradeRecord{
		RunID:      runID,
		Seq:        seq,
		Side:       string(t.Side),
		EntryTime:  t.EntryTime,
		ExitTime:   t.ExitTime,
		EntryPrice: decimal.NewFromFloat(t.EntryPrice),
		ExitPrice:  decimal.NewFromFloat(t.ExitPrice),
		Quantity:   decimal.NewFromFloat(t.Quantity),
		GrossPnL:   decimal.NewFromFloat(t.GrossPnL).Round(8),
		Commission: decimal.NewFromFloat(t.Commission).Round(8),
		NetPnL:     decimal.NewFromFloat(t.NetPnL).Round(8),
		ExitReason: string(t.ExitReason),
		BarsHeld:   t.BarsHeld,
	}
}
