package binance

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/vsharma2491/ALGO/internal/models"
)

const (
	klineLimit = 500
	maxRetries = 3
	backoff    = 100 * time.Millisecond
)

type Client struct {
	client      *futures.Client
	rateLimiter *rate.Limiter
	log         logrus.FieldLogger
}

// NewClient builds a futures client throttled to rateLimit requests per
// second.
func NewClient(apiKey, secretKey string, rateLimit float64, burst int, timeout time.Duration, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}

	// Create custom HTTP client with timeouts
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	futuresClient := futures.NewClient(apiKey, secretKey)
	futuresClient.HTTPClient = httpClient

	return &Client{
		client:      futuresClient,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), burst),
		log:         log,
	}
}

// GetKlines fetches one page, retrying with exponential backoff.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, startTime, endTime int64) ([]*futures.Kline, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(startTime).
			EndTime(endTime).
			Limit(klineLimit).
			Do(ctx)
		if err == nil {
			return klines, nil
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * backoff
		c.log.WithError(err).WithFields(logrus.Fields{
			"symbol":  symbol,
			"attempt": attempt + 1,
			"wait":    waitTime,
		}).Warn("kline request failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return nil, fmt.Errorf("fetching %s %s klines: %w", symbol, interval, lastErr)
}

// GetHistoricalKlines pages through [start, end) one full page of candles
// at a time.
func (c *Client) GetHistoricalKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]*futures.Kline, error) {
	var allKlines []*futures.Kline

	for _, w := range chunkRange(start, end, interval) {
		klines, err := c.GetKlines(ctx, symbol, interval, w[0], w[1])
		if err != nil {
			return nil, err
		}
		allKlines = append(allKlines, klines...)

		c.log.WithFields(logrus.Fields{
			"symbol":   symbol,
			"interval": interval,
			"count":    len(klines),
			"from":     time.UnixMilli(w[0]).UTC().Format(time.RFC3339),
		}).Debug("fetched klines")
	}

	return allKlines, nil
}

// KlineToPrice converts an exchange candle into a stored price row.
func KlineToPrice(symbol, interval string, k *futures.Kline) (models.Price, error) {
	var (
		p   = models.Price{Symbol: symbol, TimeFrame: interval, TradeCount: k.TradeNum}
		err error
	)
	p.OpenTime = time.UnixMilli(k.OpenTime).UTC()
	p.CloseTime = time.UnixMilli(k.CloseTime).UTC()

	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", k.Open, &p.Open},
		{"high", k.High, &p.High},
		{"low", k.Low, &p.Low},
		{"close", k.Close, &p.Close},
		{"volume", k.Volume, &p.Volume},
	}
	for _, f := range fields {
		if *f.dst, err = strconv.ParseFloat(f.raw, 64); err != nil {
			return models.Price{}, fmt.Errorf("kline %d %s %q: %w", k.OpenTime, f.name, f.raw, err)
		}
	}
	return p, nil
}

// chunkRange splits [start, end) into millisecond windows of at most one
// page of candles.
func chunkRange(start, end time.Time, interval string) [][2]int64 {
	step, ok := models.TimeFrameDuration[interval]
	if !ok {
		step = time.Minute
	}
	chunk := step * klineLimit

	var windows [][2]int64
	for cur := start; cur.Before(end); cur = cur.Add(chunk) {
		stop := cur.Add(chunk)
		if stop.After(end) {
			stop = end
		}
		windows = append(windows, [2]int64{cur.UnixMilli(), stop.UnixMilli() - 1})
	}
	return windows
}
