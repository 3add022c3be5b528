package price

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vsharma2491/ALGO/internal/models"
)

// PriceStore is the persistence the recorder writes to.
type PriceStore interface {
	SaveBatch(ctx context.Context, prices []models.Price) (int64, error)
	GetLatestPriceByTimeFrame(ctx context.Context, symbol, timeFrame string) (*models.Price, error)
}

type PriceRecorder struct {
	fetcher *PriceFetcher
	store   PriceStore
	log     logrus.FieldLogger
}

func NewPriceRecorder(fetcher *PriceFetcher, store PriceStore, log logrus.FieldLogger) *PriceRecorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PriceRecorder{fetcher: fetcher, store: store, log: log}
}

// Record stores candles for [start, end), resuming after the newest stored
// candle when it falls inside that window. It returns the rows added.
func (r *PriceRecorder) Record(ctx context.Context, symbol, timeframe string, start, end time.Time) (int64, error) {
	latest, err := r.store.GetLatestPriceByTimeFrame(ctx, symbol, timeframe)
	if err != nil {
		return 0, err
	}
	if latest != nil && !latest.OpenTime.Before(start) && latest.OpenTime.Before(end) {
		start = latest.OpenTime.Add(models.TimeFrameDuration[timeframe])
	}
	if !start.Before(end) {
		r.log.WithFields(logrus.Fields{"symbol": symbol, "timeframe": timeframe}).Debug("already up to date")
		return 0, nil
	}

	prices, err := r.fetcher.FetchPrices(ctx, symbol, timeframe, start, end)
	if err != nil {
		return 0, err
	}

	saved, err := r.store.SaveBatch(ctx, prices)
	if err != nil {
		return 0, err
	}

	r.log.WithFields(logrus.Fields{
		"symbol":    symbol,
		"timeframe": timeframe,
		"saved":     saved,
	}).Info("recorded candles")
	return saved, nil
}

// StartRecording keeps every symbol current on each tick of the time frame
// until ctx is cancelled.
func (r *PriceRecorder) StartRecording(ctx context.Context, symbols []string, timeframe string, lookback time.Duration) {
	interval := models.TimeFrameDuration[timeframe]
	if interval == 0 {
		r.log.WithField("timeframe", timeframe).Error("unsupported timeframe")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.WithField("timeframe", timeframe).Info("starting price recording")

	for {
		now := time.Now().UTC()
		for _, symbol := range symbols {
			if _, err := r.Record(ctx, symbol, timeframe, now.Add(-lookback), now); err != nil {
				r.log.WithError(err).WithField("symbol", symbol).Error("error recording prices")
			}
		}

		select {
		case <-ctx.Done():
			r.log.WithField("timeframe", timeframe).Info("stopping price recording")
			return
		case <-ticker.C:
		}
	}
}
