package indicators

import "math"

// EMAService provides Exponential Moving Average calculations
type EMAService struct{}

// NewEMAService creates a new EMA service instance
func NewEMAService() *EMAService {
	return &EMAService{}
}

// Calculate computes EMA for the entire price series. The first defined
// input seeds the average; NaN inputs before it stay NaN in the output and
// later NaN inputs leave the average unchanged.
func (s *EMAService) Calculate(prices []float64, period int) ([]float64, error) {
	if err := validate(len(prices), period); err != nil {
		return nil, err
	}

	ema := nanSeries(len(prices))
	multiplier := s.getMultiplier(period)

	prev := math.NaN()
	for i, p := range prices {
		if !defined(p) {
			continue
		}
		if math.IsNaN(prev) {
			prev = p
		} else {
			prev = s.calculatePoint(p, prev, multiplier)
		}
		ema[i] = prev
	}

	return ema, nil
}

// Private helper methods

func (s *EMAService) getMultiplier(period int) float64 {
	return 2.0 / float64(period+1)
}

func (s *EMAService) calculatePoint(price, prevEMA, multiplier float64) float64 {
	return multiplier*price + (1-multiplier)*prevEMA
}
