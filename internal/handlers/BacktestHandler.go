package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vsharma2491/ALGO/internal/models"
	"github.com/vsharma2491/ALGO/internal/operations/backtest"
)

// RunStore persists finished runs; *repositories.RunRepository satisfies it.
type RunStore interface {
	Create(ctx context.Context, run *models.BacktestRun) error
	FindByID(ctx context.Context, id string) (*models.BacktestRun, error)
	List(ctx context.Context, limit int) ([]models.BacktestRun, error)
}

type BacktestHandler struct {
	engine  *backtest.Engine
	workers int
	store   RunStore // nil when no database is configured
	log     logrus.FieldLogger
}

func NewBacktestHandler(engine *backtest.Engine, workers int, store RunStore, log logrus.FieldLogger) *BacktestHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BacktestHandler{engine: engine, workers: workers, store: store, log: log}
}

// RunBacktest handles POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	cfg, err := decodeConfig(req.Config)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}
	if err := models.ValidateBars(req.Bars); err != nil {
		h.respondError(c, err)
		return
	}
	if req.Save && h.store == nil {
		abortWithError(c, http.StatusServiceUnavailable, "STORAGE_DISABLED", "no database configured")
		return
	}

	result, err := h.engine.Run(req.Bars, cfg)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := BacktestResponse{Result: result}
	if req.Save {
		run, err := result.ToRun(uuid.NewString(), req.Symbol, req.TimeFrame, cfg)
		if err != nil {
			h.respondError(c, err)
			return
		}
		if err := h.store.Create(c.Request.Context(), run); err != nil {
			h.respondError(c, err)
			return
		}
		resp.ID = run.ID
		h.log.WithFields(logrus.Fields{"id": run.ID, "trades": run.TotalTrades}).Info("saved backtest run")
	}

	c.JSON(http.StatusOK, resp)
}

// RunSweep handles POST /api/v1/sweep
func (h *BacktestHandler) RunSweep(c *gin.Context) {
	var req SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	base, err := decodeConfig(req.Config)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}
	metric := backtest.RankBySharpe
	if req.Metric != "" {
		if metric, err = backtest.ParseRankMetric(req.Metric); err != nil {
			abortWithError(c, http.StatusBadRequest, "INVALID_METRIC", err.Error())
			return
		}
	}
	if err := models.ValidateBars(req.Bars); err != nil {
		h.respondError(c, err)
		return
	}

	configs := req.Grid.Expand(base)
	if len(configs) > MaxSweepConfigs {
		abortWithError(c, http.StatusBadRequest, "GRID_TOO_LARGE",
			"grid expands to "+strconv.Itoa(len(configs))+" configs, limit is "+strconv.Itoa(MaxSweepConfigs))
		return
	}

	results, err := backtest.NewSweepRunner(h.engine, h.workers, h.log).Run(c.Request.Context(), req.Bars, configs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	ranked := backtest.Rank(results, metric)
	if req.Top > 0 && req.Top < len(ranked) {
		ranked = ranked[:req.Top]
	}

	resp := SweepResponse{Metric: metric, Total: len(results), Results: make([]SweepEntry, len(ranked))}
	for i, r := range ranked {
		entry := SweepEntry{Rank: i + 1, Config: r.Config}
		if r.Err != nil {
			entry.Error = r.Err.Error()
		} else if r.Result != nil {
			m := r.Result.Metrics
			entry.Metrics = &m
		}
		resp.Results[i] = entry
	}

	c.JSON(http.StatusOK, resp)
}

// GetRun handles GET /api/v1/runs/:id
func (h *BacktestHandler) GetRun(c *gin.Context) {
	if h.store == nil {
		abortWithError(c, http.StatusServiceUnavailable, "STORAGE_DISABLED", "no database configured")
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_ID", "run id must be a uuid")
		return
	}

	run, err := h.store.FindByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if run == nil {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "run "+id+" not found")
		return
	}
	c.JSON(http.StatusOK, run)
}

// ListRuns handles GET /api/v1/runs?limit=N
func (h *BacktestHandler) ListRuns(c *gin.Context) {
	if h.store == nil {
		abortWithError(c, http.StatusServiceUnavailable, "STORAGE_DISABLED", "no database configured")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		abortWithError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
		return
	}

	runs, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// Private helper methods

func (h *BacktestHandler) respondError(c *gin.Context, err error) {
	var cfgErr *backtest.ConfigError
	var dataErr *models.DataError

	switch {
	case errors.As(err, &cfgErr):
		abortWithError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
	case errors.As(err, &dataErr):
		abortWithError(c, http.StatusBadRequest, "INVALID_DATA", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		abortWithError(c, http.StatusServiceUnavailable, "CANCELLED", err.Error())
	default:
		h.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}
