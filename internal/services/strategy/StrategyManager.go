package strategy

import (
	"math"

	"github.com/vsharma2491/ALGO/internal/services/indicators"
)

// New validates params and builds the named strategy.
func New(p Params) (Strategy, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	switch p.Name {
	case NameMACDCrossover:
		return NewMACDStrategy(p), nil
	case NameEMAATR:
		return NewEMAATRStrategy(p), nil
	default:
		kind, _ := indicators.ParseMAKind(p.MAType)
		return NewCrossoverStrategy(p, kind), nil
	}
}

// Names lists the supported strategy variants.
func Names() []string {
	return []string{NameMACrossover, NameMACDCrossover, NameEMAATR}
}

// crossoverSignals fills entry and exit flags from the crossings of fast
// over slow. A nil trend disables the filter; the filter gates entries only.
func crossoverSignals(fast, slow, closes, trend []float64) *SignalSet {
	set := newSignalSet(len(closes))

	for i := 1; i < len(closes); i++ {
		up := indicators.CrossUp(fast, slow, i)
		down := indicators.CrossDown(fast, slow, i)
		if !up && !down {
			continue
		}

		bullish, bearish := true, true
		if trend != nil {
			bullish = !math.IsNaN(trend[i]) && closes[i] > trend[i]
			bearish = !math.IsNaN(trend[i]) && closes[i] < trend[i]
		}

		set.LongEntry[i] = up && bullish
		set.ShortEntry[i] = down && bearish
		set.LongExit[i] = down
		set.ShortExit[i] = up
	}

	return set
}
