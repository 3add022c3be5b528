package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vsharma2491/ALGO/internal/models"
)

const priceBatchSize = 500

type PriceRepository struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewPriceRepository creates a new instance of PriceRepository
func NewPriceRepository(db *gorm.DB, log logrus.FieldLogger) *PriceRepository {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PriceRepository{db: db, log: log}
}

// SaveBatch inserts candles, skipping any already stored for the same
// symbol, time frame and open time. It returns the number of new rows.
func (r *PriceRepository) SaveBatch(ctx context.Context, prices []models.Price) (int64, error) {
	if len(prices) == 0 {
		return 0, nil
	}
	res := upsertPrices(r.db.WithContext(ctx), prices)
	return res.RowsAffected, res.Error
}

// GetBars loads a symbol's candles as engine bars, oldest first.
func (r *PriceRepository) GetBars(ctx context.Context, symbol, timeFrame string, start, end time.Time) ([]models.Bar, error) {
	prices, err := r.GetPricesByTimeFrame(ctx, symbol, timeFrame, start, end)
	if err != nil {
		return nil, err
	}
	return models.PricesToBars(prices), nil
}

// GetPricesByTimeFrame gets price data for a specific symbol and timeframe
func (r *PriceRepository) GetPricesByTimeFrame(ctx context.Context, symbol string, timeFrame string, start, end time.Time) ([]models.Price, error) {
	if symbol == "" || timeFrame == "" {
		return nil, errors.New("invalid symbol or timeframe")
	}

	var prices []models.Price
	err := pricesInRange(r.db.WithContext(ctx), symbol, timeFrame, start, end).Find(&prices).Error

	r.log.WithFields(logrus.Fields{
		"symbol": symbol,
		"count":  len(prices),
		"from":   start.Format("2006-01-02 15:04:05"),
		"to":     end.Format("2006-01-02 15:04:05"),
	}).Debug("loaded prices")

	return prices, err
}

// GetLatestPriceByTimeFrame gets the most recent price for a symbol and timeframe
func (r *PriceRepository) GetLatestPriceByTimeFrame(ctx context.Context, symbol, timeFrame string) (*models.Price, error) {
	if symbol == "" || timeFrame == "" {
		return nil, errors.New("invalid symbol or timeframe")
	}

	var price models.Price
	err := latestPrice(r.db.WithContext(ctx), symbol, timeFrame).First(&price).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &price, nil
}

// Private helper methods

func upsertPrices(tx *gorm.DB, prices []models.Price) *gorm.DB {
	return skipExistingPrices(tx).CreateInBatches(&prices, priceBatchSize)
}

// skipExistingPrices makes inserts ignore candles already stored.
func skipExistingPrices(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "time_frame"}, {Name: "open_time"}},
		DoNothing: true,
	})
}

func pricesInRange(tx *gorm.DB, symbol, timeFrame string, start, end time.Time) *gorm.DB {
	return tx.Where("symbol = ? AND time_frame = ? AND open_time BETWEEN ? AND ?",
		symbol, timeFrame, start, end).
		Order("open_time ASC")
}

func latestPrice(tx *gorm.DB, symbol, timeFrame string) *gorm.DB {
	return tx.Where("symbol = ? AND time_frame = ?", symbol, timeFrame).
		Order("open_time DESC")
}
