package price

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/sirupsen/logrus"

	"github.com/vsharma2491/ALGO/internal/models"
	"github.com/vsharma2491/ALGO/internal/operations/binance"
)

// KlineSource is the exchange side of the fetcher; *binance.Client
// satisfies it.
type KlineSource interface {
	GetHistoricalKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]*futures.Kline, error)
}

type PriceFetcher struct {
	source KlineSource
	log    logrus.FieldLogger
}

func NewPriceFetcher(source KlineSource, log logrus.FieldLogger) *PriceFetcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PriceFetcher{source: source, log: log}
}

// FetchPrices downloads candles for [start, end). Candles the exchange
// returns malformed are skipped with a warning.
func (f *PriceFetcher) FetchPrices(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]models.Price, error) {
	if _, ok := models.TimeFrameDuration[timeframe]; !ok {
		return nil, fmt.Errorf("unsupported timeframe %q", timeframe)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("empty range %s to %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	klines, err := f.source.GetHistoricalKlines(ctx, symbol, timeframe, start, end)
	if err != nil {
		return nil, err
	}

	prices := make([]models.Price, 0, len(klines))
	for _, k := range klines {
		p, err := binance.KlineToPrice(symbol, timeframe, k)
		if err != nil {
			f.log.WithError(err).WithField("symbol", symbol).Warn("skipping malformed kline")
			continue
		}
		prices = append(prices, p)
	}

	f.log.WithFields(logrus.Fields{
		"symbol":    symbol,
		"timeframe": timeframe,
		"count":     len(prices),
		"from":      start.Format("2006-01-02 15:04:05"),
		"to":        end.Format("2006-01-02 15:04:05"),
	}).Info("fetched candles")

	return prices, nil
}

// FetchBars is FetchPrices shaped for the engine: sorted, deduplicated and
// validated.
func (f *PriceFetcher) FetchBars(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]models.Bar, error) {
	prices, err := f.FetchPrices(ctx, symbol, timeframe, start, end)
	if err != nil {
		return nil, err
	}
	bars := Normalize(models.PricesToBars(prices))
	if err := models.ValidateBars(bars); err != nil {
		return nil, err
	}
	return bars, nil
}
