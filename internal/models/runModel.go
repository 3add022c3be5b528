package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BacktestRun is the stored summary of one engine run.
type BacktestRun struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Symbol    string `gorm:"index"`
	TimeFrame string
	Strategy  string `gorm:"index;not null"`
	Params    string `gorm:"type:text"` // run config as JSON

	BarCount  int
	StartTime time.Time
	EndTime   time.Time

	InitialCapital decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	FinalEquity    decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	NetPnL         decimal.Decimal `gorm:"type:decimal(20,8)"`

	TotalTrades          int
	WinRate              float64
	TotalReturn          float64
	SharpeRatio          float64
	MaxDrawdown          float64
	ProfitFactor         *float64 // nil when undefined
	MaxConsecutiveLosses int

	Trades []TradeRecord `gorm:"foreignKey:RunID;references:ID"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (BacktestRun) TableName() string {
	return "backtest_runs"
}
