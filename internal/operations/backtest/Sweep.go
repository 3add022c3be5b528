package backtest

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vsharma2491/ALGO/internal/models"
)

// Grid lists the values to try per parameter. An empty list keeps the base
// config's value.
type Grid struct {
	FastPeriods    []int     `json:"fast_period"`
	SlowPeriods    []int     `json:"slow_period"`
	SignalPeriods  []int     `json:"signal_period"`
	StopLossPcts   []float64 `json:"stop_loss_pct"`
	TakeProfitPcts []float64 `json:"take_profit_pct"`
}

// Expand returns the cartesian product of the grid over base, fast period
// varying slowest.
func (g Grid) Expand(base Config) []Config {
	fasts := orInt(g.FastPeriods, base.Strategy.FastPeriod)
	slows := orInt(g.SlowPeriods, base.Strategy.SlowPeriod)
	signals := orInt(g.SignalPeriods, base.Strategy.SignalPeriod)
	stops := orFloat(g.StopLossPcts, base.StopLossPct)
	targets := orFloat(g.TakeProfitPcts, base.TakeProfitPct)

	configs := make([]Config, 0, len(fasts)*len(slows)*len(signals)*len(stops)*len(targets))
	for _, fast := range fasts {
		for _, slow := range slows {
			for _, signal := range signals {
				for _, stop := range stops {
					for _, target := range targets {
						c := base
						c.Strategy.FastPeriod = fast
						c.Strategy.SlowPeriod = slow
						c.Strategy.SignalPeriod = signal
						c.StopLossPct = stop
						c.TakeProfitPct = target
						configs = append(configs, c)
					}
				}
			}
		}
	}
	return configs
}

// SweepResult pairs one parameter set with its outcome. Err is set instead
// of Result when that set failed.
type SweepResult struct {
	Index  int
	Config Config
	Result *Result
	Err    error
}

// Label is a compact description of the swept parameters.
func (r SweepResult) Label() string {
	p := r.Config.Strategy
	return fmt.Sprintf("%s fast=%d slow=%d signal=%d sl=%g tp=%g",
		p.Name, p.FastPeriod, p.SlowPeriod, p.SignalPeriod, r.Config.StopLossPct, r.Config.TakeProfitPct)
}

type SweepRunner struct {
	engine  *Engine
	workers int
	log     logrus.FieldLogger
}

// NewSweepRunner bounds parallelism to workers, or GOMAXPROCS when workers < 1.
func NewSweepRunner(engine *Engine, workers int, log logrus.FieldLogger) *SweepRunner {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SweepRunner{engine: engine, workers: workers, log: log}
}

// Run evaluates every config against the shared, read-only bars. A failing
// config never stops the others. Cancelling ctx stops scheduling new
// configs; those left unscheduled carry ctx's error, which is then returned.
// A cancellation that arrives after every config was scheduled is ignored.
func (r *SweepRunner) Run(ctx context.Context, bars []models.Bar, configs []Config) ([]SweepResult, error) {
	results := make([]SweepResult, len(configs))
	for i, c := range configs {
		results[i] = SweepResult{Index: i, Config: c}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	scheduled := 0
	for i := range configs {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			results[i].Result, results[i].Err = r.runOne(bars, configs[i])
			if results[i].Err != nil {
				r.log.WithError(results[i].Err).WithField("params", results[i].Label()).Warn("sweep run failed")
			}
			return nil
		})
		scheduled++
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil && scheduled < len(configs) {
		for i := scheduled; i < len(results); i++ {
			results[i].Err = err
		}
		return results, err
	}

	r.log.WithFields(logrus.Fields{"runs": len(configs), "workers": r.workers}).Info("sweep finished")
	return results, nil
}

func (r *SweepRunner) runOne(bars []models.Bar, config Config) (res *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, fmt.Errorf("backtest panicked: %v", p)
		}
	}()
	return r.engine.Run(bars, config)
}

type RankMetric string

const (
	RankBySharpe       RankMetric = "sharpe"
	RankByTotalReturn  RankMetric = "total_return"
	RankByMaxDrawdown  RankMetric = "max_drawdown"
	RankByProfitFactor RankMetric = "profit_factor"
)

// ParseRankMetric accepts the snake_case names and their spaced titles,
// e.g. "Sharpe Ratio".
func ParseRankMetric(s string) (RankMetric, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	switch key {
	case "sharpe", "sharpe_ratio":
		return RankBySharpe, nil
	case "total_return", "return":
		return RankByTotalReturn, nil
	case "max_drawdown", "drawdown":
		return RankByMaxDrawdown, nil
	case "profit_factor":
		return RankByProfitFactor, nil
	}
	return "", fmt.Errorf("unknown ranking metric %q", s)
}

// Rank orders results best first. Drawdown is negative, so higher is still
// better. Failed runs and undefined values sort last.
func Rank(results []SweepResult, metric RankMetric) []SweepResult {
	ranked := make([]SweepResult, len(results))
	copy(ranked, results)

	score := func(r SweepResult) float64 {
		if r.Err != nil || r.Result == nil {
			return math.Inf(-1)
		}
		m := r.Result.Metrics
		var v float64
		switch metric {
		case RankByTotalReturn:
			v = m.TotalReturn
		case RankByMaxDrawdown:
			v = m.MaxDrawdown
		case RankByProfitFactor:
			v = m.ProfitFactor
		default:
			v = m.SharpeRatio
		}
		if math.IsNaN(v) {
			return math.Inf(-1)
		}
		return v
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return score(ranked[i]) > score(ranked[j])
	})
	return ranked
}

func orInt(values []int, fallback int) []int {
	if len(values) == 0 {
		return []int{fallback}
	}
	return values
}

func orFloat(values []float64, fallback float64) []float64 {
	if len(values) == 0 {
		return []float64{fallback}
	}
	return values
}
