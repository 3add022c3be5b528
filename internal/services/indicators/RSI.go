package indicators

import "math"

// RSIService computes Wilder's relative strength index.
type RSIService struct{}

func NewRSIService() *RSIService {
	return &RSIService{}
}

// Calculate returns RSI in [0,100]. The first period entries are NaN; the
// first defined value uses simple averages of the opening window and later
// values use Wilder smoothing.
func (s *RSIService) Calculate(prices []float64, period int) ([]float64, error) {
	if err := validate(len(prices), period); err != nil {
		return nil, err
	}

	rsi := nanSeries(len(prices))
	if len(prices) <= period {
		return rsi, nil
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		gain, loss := s.split(prices[i] - prices[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	rsi[period] = s.value(avgGain, avgLoss)

	n := float64(period)
	for i := period + 1; i < len(prices); i++ {
		gain, loss := s.split(prices[i] - prices[i-1])
		avgGain = (avgGain*(n-1) + gain) / n
		avgLoss = (avgLoss*(n-1) + loss) / n
		rsi[i] = s.value(avgGain, avgLoss)
	}

	return rsi, nil
}

// Private helper methods

func (s *RSIService) split(change float64) (gain, loss float64) {
	if math.IsNaN(change) {
		return 0, 0
	}
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func (s *RSIService) value(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
