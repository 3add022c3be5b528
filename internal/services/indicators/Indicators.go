package indicators

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidPeriod    = errors.New("period must be positive")
)

// MAKind selects the moving average used by the crossover strategies.
type MAKind string

const (
	MASimple      MAKind = "SMA"
	MAExponential MAKind = "EMA"
)

func ParseMAKind(s string) (MAKind, error) {
	switch MAKind(strings.ToUpper(strings.TrimSpace(s))) {
	case MASimple:
		return MASimple, nil
	case MAExponential:
		return MAExponential, nil
	}
	return "", fmt.Errorf("unknown moving average kind %q", s)
}

// MovingAverage returns a same-length series; warm-up entries are NaN.
func MovingAverage(series []float64, period int, kind MAKind) ([]float64, error) {
	switch kind {
	case MASimple:
		return NewSMAService().Calculate(series, period)
	case MAExponential:
		return NewEMAService().Calculate(series, period)
	}
	return nil, fmt.Errorf("unknown moving average kind %q", kind)
}

// CrossUp reports a > b at i after a <= b at i-1. Undefined operands never cross.
func CrossUp(a, b []float64, i int) bool {
	if !comparable(a, b, i) {
		return false
	}
	return a[i] > b[i] && a[i-1] <= b[i-1]
}

// CrossDown reports a < b at i after a >= b at i-1.
func CrossDown(a, b []float64, i int) bool {
	if !comparable(a, b, i) {
		return false
	}
	return a[i] < b[i] && a[i-1] >= b[i-1]
}

// Private helper methods

func comparable(a, b []float64, i int) bool {
	if i < 1 || i >= len(a) || i >= len(b) {
		return false
	}
	return defined(a[i]) && defined(b[i]) && defined(a[i-1]) && defined(b[i-1])
}

func defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validate(n, period int) error {
	if n == 0 {
		return ErrInsufficientData
	}
	if period <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPeriod, period)
	}
	return nil
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
