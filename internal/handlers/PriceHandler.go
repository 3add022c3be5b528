package handlers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vsharma2491/ALGO/internal/operations/price"
)

// PriceHandler drives candle collection for a fixed symbol list: a backfill
// over a range, then optionally live recording.
type PriceHandler struct {
	recorder *price.PriceRecorder
	symbols  []string
	log      logrus.FieldLogger
}

func NewPriceHandler(recorder *price.PriceRecorder, symbols []string, log logrus.FieldLogger) *PriceHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PriceHandler{recorder: recorder, symbols: symbols, log: log}
}

// Backfill records [start, end) for every symbol and returns the rows
// added. A symbol that fails is logged and skipped; the first error is
// returned once all symbols were tried.
func (h *PriceHandler) Backfill(ctx context.Context, timeframe string, start, end time.Time) (int64, error) {
	var total int64
	var firstErr error

	for _, symbol := range h.symbols {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		h.log.WithFields(logrus.Fields{"symbol": symbol, "timeframe": timeframe}).Info("fetching historical data")

		n, err := h.recorder.Record(ctx, symbol, timeframe, start, end)
		if err != nil {
			h.log.WithError(err).WithField("symbol", symbol).Error("error saving historical prices")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		total += n
	}
	return total, firstErr
}

// Follow keeps recording until ctx is cancelled.
func (h *PriceHandler) Follow(ctx context.Context, timeframe string, lookback time.Duration) {
	h.recorder.StartRecording(ctx, h.symbols, timeframe, lookback)
}
