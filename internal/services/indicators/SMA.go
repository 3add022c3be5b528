package indicators

type SMAService struct{}

func NewSMAService() *SMAService {
	return &SMAService{}
}

// Calculate returns the trailing arithmetic mean. Entries are NaN until a
// full window of defined values exists.
func (s *SMAService) Calculate(prices []float64, period int) ([]float64, error) {
	if err := validate(len(prices), period); err != nil {
		return nil, err
	}

	out := nanSeries(len(prices))
	sum := 0.0
	undefined := 0
	for i, p := range prices {
		if defined(p) {
			sum += p
		} else {
			undefined++
		}
		if i >= period {
			old := prices[i-period]
			if defined(old) {
				sum -= old
			} else {
				undefined--
			}
		}
		if i >= period-1 && undefined == 0 {
			out[i] = sum / float64(period)
		}
	}

	return out, nil
}
