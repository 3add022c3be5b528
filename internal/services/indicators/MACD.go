package indicators

import "fmt"

type MACDService struct {
	ema *EMAService
}

type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

func NewMACDService() *MACDService {
	return &MACDService{
		ema: NewEMAService(),
	}
}

// Calculate returns MACD line, signal line, and histogram
// Default periods: fast=12, slow=26, signal=9
func (s *MACDService) Calculate(prices []float64, fastPeriod, slowPeriod, signalPeriod int) (*MACDResult, error) {
	if err := s.ValidatePeriods(fastPeriod, slowPeriod, signalPeriod); err != nil {
		return nil, err
	}

	fastEMA, err := s.ema.Calculate(prices, fastPeriod)
	if err != nil {
		return nil, fmt.Errorf("fast ema: %w", err)
	}
	slowEMA, err := s.ema.Calculate(prices, slowPeriod)
	if err != nil {
		return nil, fmt.Errorf("slow ema: %w", err)
	}

	macdLine := make([]float64, len(prices))
	for i := range prices {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine, err := s.ema.Calculate(macdLine, signalPeriod)
	if err != nil {
		return nil, fmt.Errorf("signal ema: %w", err)
	}

	histogram := make([]float64, len(prices))
	for i := range prices {
		histogram[i] = macdLine[i] - signalLine[i]
	}

	return &MACDResult{
		MACD:      macdLine,
		Signal:    signalLine,
		Histogram: histogram,
	}, nil
}

func (s *MACDService) ValidatePeriods(fastPeriod, slowPeriod, signalPeriod int) error {
	if fastPeriod <= 0 || slowPeriod <= 0 || signalPeriod <= 0 {
		return fmt.Errorf("%w: macd %d/%d/%d", ErrInvalidPeriod, fastPeriod, slowPeriod, signalPeriod)
	}
	if slowPeriod <= fastPeriod {
		return fmt.Errorf("macd slow period %d must exceed fast period %d", slowPeriod, fastPeriod)
	}
	return nil
}
