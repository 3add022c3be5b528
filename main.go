package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/vsharma2491/ALGO/config"
	"github.com/vsharma2491/ALGO/internal/logger"
	"github.com/vsharma2491/ALGO/internal/repositories"
)

var (
	appConfig *config.Config
	appLog    *log.Logger
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:          "algo",
	Short:        "Bar-series strategy backtester",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		appConfig = cfg
		appLog = logger.New(cfg.Log.Level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "overrides LOG_LEVEL")
	rootCmd.AddCommand(backtestCmd, sweepCmd, fetchCmd, serveCmd, runsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal(err)
	}
}

// openDatabase connects and migrates; callers check Database.Enabled first.
func openDatabase() (*gorm.DB, error) {
	db, err := repositories.Open(appConfig.Database.DSN(), appLog)
	if err != nil {
		return nil, err
	}
	if err := repositories.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
