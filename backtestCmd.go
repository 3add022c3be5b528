package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vsharma2491/ALGO/config"
	"github.com/vsharma2491/ALGO/internal/models"
	"github.com/vsharma2491/ALGO/internal/operations/backtest"
	"github.com/vsharma2491/ALGO/internal/operations/price"
	"github.com/vsharma2491/ALGO/internal/reporting"
	"github.com/vsharma2491/ALGO/internal/repositories"
)

var (
	runFilePath string
	dataPath    string
	ledgerPath  string
	equityPath  string
	showTrades  bool
	saveRun     bool

	sweepMetric  string
	sweepWorkers int
	sweepTop     int
)

var backtestCmd = &cobra.Command{
	Use:   "backtest --config run.yaml [--data bars.csv]",
	Short: "Run one backtest and print its metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		rf, err := config.LoadRunFile(runFilePath)
		if err != nil {
			return err
		}
		cfg, err := rf.EngineConfig()
		if err != nil {
			return err
		}
		bars, err := loadBars(cmd.Context(), rf)
		if err != nil {
			return err
		}

		result, err := backtest.NewEngine(appLog).Run(bars, cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s on %d bars\n", result.Strategy, result.BarCount)
		reporting.PrintSummary(out, result.Metrics)
		if showTrades {
			reporting.PrintLedger(out, result.Trades)
		}

		if ledgerPath != "" {
			if err := writeFile(ledgerPath, func(f *os.File) error { return reporting.WriteLedgerCSV(f, result.Trades) }); err != nil {
				return err
			}
		}
		if equityPath != "" {
			if err := writeFile(equityPath, func(f *os.File) error { return reporting.WriteEquityCSV(f, result.EquityCurve) }); err != nil {
				return err
			}
		}

		if saveRun {
			return saveResult(cmd.Context(), rf, cfg, result)
		}
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep --config run.yaml [--data bars.csv]",
	Short: "Run the optimization grid and rank the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		rf, err := config.LoadRunFile(runFilePath)
		if err != nil {
			return err
		}
		base, err := rf.EngineConfig()
		if err != nil {
			return err
		}
		name := rf.Optimization.Metric
		if sweepMetric != "" {
			name = sweepMetric
		}
		metric, err := backtest.ParseRankMetric(name)
		if err != nil {
			return err
		}
		bars, err := loadBars(cmd.Context(), rf)
		if err != nil {
			return err
		}

		workers := appConfig.Sweep.Workers
		if cmd.Flags().Changed("workers") {
			workers = sweepWorkers
		}

		configs := rf.Grid().Expand(base)
		appLog.WithFields(log.Fields{"configs": len(configs), "metric": metric}).Info("starting sweep")

		start := time.Now()
		runner := backtest.NewSweepRunner(backtest.NewEngine(appLog), workers, appLog)
		results, err := runner.Run(cmd.Context(), bars, configs)
		if err != nil {
			return err
		}

		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				appLog.WithError(r.Err).WithField("config", r.Label()).Warn("sweep config failed")
			}
		}
		appLog.WithFields(log.Fields{"failed": failed, "elapsed": time.Since(start).String()}).Info("sweep finished")

		reporting.PrintSweep(cmd.OutOrStdout(), backtest.Rank(results, metric), sweepTop)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{backtestCmd, sweepCmd} {
		c.Flags().StringVarP(&runFilePath, "config", "c", "", "run file (YAML)")
		c.Flags().StringVarP(&dataPath, "data", "d", "", "bar CSV; overrides backtest.data_file")
		_ = c.MarkFlagRequired("config")
	}

	backtestCmd.Flags().StringVar(&ledgerPath, "ledger", "", "write the trade ledger as CSV")
	backtestCmd.Flags().StringVar(&equityPath, "equity", "", "write the equity curve as CSV")
	backtestCmd.Flags().BoolVar(&showTrades, "trades", false, "print every trade")
	backtestCmd.Flags().BoolVar(&saveRun, "save", false, "store the run in the database")

	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "", "ranking metric; overrides optimization.metric")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "parallel runs; overrides SWEEP_WORKERS")
	sweepCmd.Flags().IntVar(&sweepTop, "top", 20, "rows to print, 0 for all")
}

// loadBars reads the configured series. A source with no bars in range
// yields a nil series so the engine reports an empty result.
func loadBars(ctx context.Context, rf *config.RunFile) ([]models.Bar, error) {
	bars, err := readBars(ctx, rf)
	if models.IsEmptySeries(err) {
		appLog.WithError(err).Warn("No bars in range, running on an empty series")
		return nil, nil
	}
	return bars, err
}

// readBars reads the CSV named by --data or the run file, falling back to
// stored candles for backtest.symbol when neither is set.
func readBars(ctx context.Context, rf *config.RunFile) ([]models.Bar, error) {
	from, to, err := rf.Backtest.DateRange()
	if err != nil {
		return nil, err
	}

	path := dataPath
	if path == "" {
		path = rf.Backtest.DataFile
	}
	if path != "" {
		return price.LoadCSV(path, from, to)
	}

	if rf.Backtest.Symbol == "" || !appConfig.Database.Enabled() {
		return nil, errors.New("no bar source: pass --data, set backtest.data_file, or set backtest.symbol with a database configured")
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}

	db, err := openDatabase()
	if err != nil {
		return nil, err
	}
	bars, err := repositories.NewPriceRepository(db, appLog).GetBars(ctx, rf.Backtest.Symbol, rf.Backtest.Interval, from, to)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateBars(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

func saveResult(ctx context.Context, rf *config.RunFile, cfg backtest.Config, result *backtest.Result) error {
	if !appConfig.Database.Enabled() {
		return errors.New("--save needs DB_HOST and DB_NAME")
	}
	db, err := openDatabase()
	if err != nil {
		return err
	}

	run, err := result.ToRun(uuid.NewString(), rf.Backtest.Symbol, rf.Backtest.Interval, cfg)
	if err != nil {
		return err
	}
	if err := repositories.NewRunRepository(db).Create(ctx, run); err != nil {
		return err
	}
	appLog.WithField("id", run.ID).Info("saved backtest run")
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
