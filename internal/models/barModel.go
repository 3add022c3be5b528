package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Bar is one OHLCV sample. Series handed to the engine are sorted by Time
// with no duplicates.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

const emptySeriesReason = "series is empty"

// DataError reports an empty, unsorted or malformed bar series.
type DataError struct {
	Index  int
	Reason string
}

func (e *DataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid bar series: %s", e.Reason)
	}
	return fmt.Sprintf("invalid bar series at index %d: %s", e.Index, e.Reason)
}

// IsEmptySeries reports whether err is the DataError for a series with no bars.
func IsEmptySeries(err error) bool {
	var dataErr *DataError
	return errors.As(err, &dataErr) && dataErr.Index < 0 && dataErr.Reason == emptySeriesReason
}

// ValidateBars checks the ordering and field sanity of a series.
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return &DataError{Index: -1, Reason: emptySeriesReason}
	}

	for i, b := range bars {
		if !finite(b.Open) || !finite(b.High) || !finite(b.Low) || !finite(b.Close) || !finite(b.Volume) {
			return &DataError{Index: i, Reason: "non-finite field"}
		}
		if b.High < b.Low {
			return &DataError{Index: i, Reason: fmt.Sprintf("high %.8f below low %.8f", b.High, b.Low)}
		}
		if b.Close < b.Low || b.Close > b.High {
			return &DataError{Index: i, Reason: "close outside high/low range"}
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			if b.Time.Equal(bars[i-1].Time) {
				return &DataError{Index: i, Reason: "duplicate timestamp " + b.Time.Format(time.RFC3339)}
			}
			return &DataError{Index: i, Reason: "timestamps not increasing"}
		}
	}
	return nil
}

// Closes extracts the close column.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
