package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/vsharma2491/ALGO/internal/handlers"
	"github.com/vsharma2491/ALGO/internal/operations/backtest"
	"github.com/vsharma2491/ALGO/internal/reporting"
	"github.com/vsharma2491/ALGO/internal/repositories"
)

var (
	servePort string
	runsLimit int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the backtest HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		apiCfg := appConfig.API
		if servePort != "" {
			apiCfg.Port = servePort
		}
		if apiCfg.Env == "production" {
			gin.SetMode(gin.ReleaseMode)
		}

		var store handlers.RunStore
		if appConfig.Database.Enabled() {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			store = repositories.NewRunRepository(db)
		} else {
			appLog.Warn("no database configured, runs will not be stored")
		}

		engine := backtest.NewEngine(appLog)
		router := handlers.NewRouter(
			handlers.NewBacktestHandler(engine, appConfig.Sweep.Workers, store, appLog),
			handlers.NewStrategyHandler(),
			appLog,
		)

		corsHandler := cors.New(cors.Options{
			AllowedOrigins: apiCfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		}).Handler(router)

		server := &http.Server{
			Addr:              ":" + apiCfg.Port,
			Handler:           corsHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			appLog.WithField("addr", server.Addr).Info("starting API server")
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-cmd.Context().Done():
		}

		appLog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), apiCfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return err
		}
		appLog.Info("shutdown complete")
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored backtest runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !appConfig.Database.Enabled() {
			return errors.New("runs needs DB_HOST and DB_NAME")
		}
		db, err := openDatabase()
		if err != nil {
			return err
		}
		runs, err := repositories.NewRunRepository(db).List(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		reporting.PrintRuns(cmd.OutOrStdout(), runs)
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "overrides API_PORT")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "rows to list")
}
