package models

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBars(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)
	bar := func(i int, c float64) Bar {
		return Bar{Time: t0.Add(time.Duration(i) * time.Minute), Open: c, High: c + 1, Low: c - 1, Close: c}
	}

	t.Run("valid series", func(t *testing.T) {
		assert.NoError(t, ValidateBars([]Bar{bar(0, 10), bar(1, 11), bar(2, 12)}))
	})

	t.Run("empty series", func(t *testing.T) {
		err := ValidateBars(nil)
		var dataErr *DataError
		require.True(t, errors.As(err, &dataErr))
		assert.Equal(t, -1, dataErr.Index)
		assert.True(t, IsEmptySeries(fmt.Errorf("loading: %w", err)))
	})

	t.Run("duplicate timestamp", func(t *testing.T) {
		err := ValidateBars([]Bar{bar(0, 10), bar(0, 11)})
		var dataErr *DataError
		require.True(t, errors.As(err, &dataErr))
		assert.Equal(t, 1, dataErr.Index)
		assert.Contains(t, dataErr.Reason, "duplicate")
		assert.False(t, IsEmptySeries(err))
	})

	t.Run("unsorted", func(t *testing.T) {
		err := ValidateBars([]Bar{bar(1, 10), bar(0, 11)})
		assert.ErrorContains(t, err, "not increasing")
	})

	t.Run("high below low", func(t *testing.T) {
		b := bar(0, 10)
		b.High, b.Low = 9, 11
		assert.Error(t, ValidateBars([]Bar{b}))
	})

	t.Run("nan close", func(t *testing.T) {
		b := bar(0, 10)
		b.Close = math.NaN()
		assert.ErrorContains(t, ValidateBars([]Bar{b}), "non-finite")
	})
}

func TestSideDirection(t *testing.T) {
	assert.Equal(t, 1.0, PositionSideLong.Direction())
	assert.Equal(t, -1.0, PositionSideShort.Direction())
}

func TestNewTradeRecord(t *testing.T) {
	ct := ClosedTrade{
		Side:       PositionSideShort,
		EntryPrice: 100.5,
		ExitPrice:  99.25,
		Quantity:   3,
		NetPnL:     3.72,
		ExitReason: ExitReasonTakeProfit,
		BarsHeld:   4,
	}
	rec := NewTradeRecord("run-1", 2, ct)
	assert.Equal(t, "run-1", rec.RunID)
	assert.Equal(t, 2, rec.Seq)
	assert.Equal(t, "short", rec.Side)
	assert.Equal(t, "TakeProfit", rec.ExitReason)
	assert.Equal(t, "100.5", rec.EntryPrice.String())
	assert.Equal(t, "3.72", rec.NetPnL.String())
}
