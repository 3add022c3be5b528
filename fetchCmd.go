package main

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vsharma2491/ALGO/internal/handlers"
	"github.com/vsharma2491/ALGO/internal/operations/binance"
	"github.com/vsharma2491/ALGO/internal/operations/price"
	"github.com/vsharma2491/ALGO/internal/repositories"
)

var (
	fetchSymbols  []string
	fetchInterval string
	fetchFrom     string
	fetchTo       string
	fetchFollow   bool
	fetchLookback time.Duration
)

var fetchCmd = &cobra.Command{
	Use:   "fetch --interval 1m --from 2024-01-01 [--symbol BTCUSDT]",
	Short: "Download exchange candles into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !appConfig.Database.Enabled() {
			return errors.New("fetch needs DB_HOST and DB_NAME")
		}
		from, err := time.Parse("2006-01-02", fetchFrom)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		to := time.Now().UTC()
		if fetchTo != "" {
			if to, err = time.Parse("2006-01-02", fetchTo); err != nil {
				return fmt.Errorf("--to: %w", err)
			}
		}

		symbols := fetchSymbols
		if len(symbols) == 0 {
			symbols = appConfig.Symbols
		}

		db, err := openDatabase()
		if err != nil {
			return err
		}

		ex := appConfig.Exchange
		client := binance.NewClient(ex.APIKey, ex.SecretKey, ex.RateLimit, ex.Burst, ex.Timeout, appLog)
		recorder := price.NewPriceRecorder(price.NewPriceFetcher(client, appLog), repositories.NewPriceRepository(db, appLog), appLog)
		priceHandler := handlers.NewPriceHandler(recorder, symbols, appLog)

		saved, err := priceHandler.Backfill(cmd.Context(), fetchInterval, from, to)
		appLog.WithFields(log.Fields{"symbols": len(symbols), "saved": saved}).Info("backfill finished")
		if err != nil {
			return err
		}

		if fetchFollow {
			priceHandler.Follow(cmd.Context(), fetchInterval, fetchLookback)
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringSliceVar(&fetchSymbols, "symbol", nil, "symbols to fetch; defaults to TRADING_SYMBOLS")
	fetchCmd.Flags().StringVar(&fetchInterval, "interval", "1m", "kline interval")
	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "first day, YYYY-MM-DD")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "last day (exclusive), YYYY-MM-DD; defaults to now")
	fetchCmd.Flags().BoolVar(&fetchFollow, "follow", false, "keep recording new candles until interrupted")
	fetchCmd.Flags().DurationVar(&fetchLookback, "lookback", time.Hour, "window re-checked on each live tick")
	_ = fetchCmd.MarkFlagRequired("from")
}
