package models

import (
	"time"
)

// Price is a persisted candle. ToBar turns it into the engine's Bar.
type Price struct {
	ID         uint      `gorm:"primaryKey"`
	Symbol     string    `gorm:"uniqueIndex:idx_price_candle;not null"`
	TimeFrame  string    `gorm:"uniqueIndex:idx_price_candle;not null"`
	OpenTime   time.Time `gorm:"uniqueIndex:idx_price_candle;index;not null"`
	CloseTime  time.Time `gorm:"index"`
	Open       float64   `gorm:"type:decimal(20,8)"`
	Close      float64   `gorm:"type:decimal(20,8)"`
	High       float64   `gorm:"type:decimal(20,8)"`
	Low        float64   `gorm:"type:decimal(20,8)"`
	Volume     float64   `gorm:"type:decimal(20,8)"`
	TradeCount int64
}

const (
	PriceTimeFrame1m  = "1m"
	PriceTimeFrame5m  = "5m"
	PriceTimeFrame15m = "15m"
	PriceTimeFrame1h  = "1h"
	PriceTimeFrame4h  = "4h"
	PriceTimeFrame1d  = "1d"
)

// TimeFrameDuration maps a supported time frame to its bar length.
var TimeFrameDuration = map[string]time.Duration{
	PriceTimeFrame1m:  time.Minute,
	PriceTimeFrame5m:  5 * time.Minute,
	PriceTimeFrame15m: 15 * time.Minute,
	PriceTimeFrame1h:  time.Hour,
	PriceTimeFrame4h:  4 * time.Hour,
	PriceTimeFrame1d:  24 * time.Hour,
}

// TableName sets the table name for Price model
func (Price) TableName() string {
	return "prices"
}

func (p Price) ToBar() Bar {
	return Bar{
		Time:   p.OpenTime,
		Open:   p.Open,
		High:   p.High,
		Low:    p.Low,
		Close:  p.Close,
		Volume: p.Volume,
	}
}

// PricesToBars converts rows ordered by open time.
func PricesToBars(prices []Price) []Bar {
	bars := make([]Bar, len(prices))
	for i, p := range prices {
		bars[i] = p.ToBar()
	}
	return bars
}
