package indicators

import (
	"math"

	"github.com/vsharma2491/ALGO/internal/models"
)

// ATRService computes average true range as a rolling simple mean.
type ATRService struct {
	sma *SMAService
}

func NewATRService() *ATRService {
	return &ATRService{
		sma: NewSMAService(),
	}
}

func (s *ATRService) Calculate(bars []models.Bar, period int) ([]float64, error) {
	if err := validate(len(bars), period); err != nil {
		return nil, err
	}
	return s.sma.Calculate(s.TrueRange(bars), period)
}

// TrueRange uses high-low for the first bar since it has no previous close.
func (s *ATRService) TrueRange(bars []models.Bar) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		tr[i] = b.High - b.Low
		if i == 0 {
			continue
		}
		prevClose := bars[i-1].Close
		tr[i] = math.Max(tr[i], math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}
	return tr
}
