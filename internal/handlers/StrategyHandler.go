package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vsharma2491/ALGO/internal/services/strategy"
)

// StrategyHandler exposes the strategy catalogue.
type StrategyHandler struct {
	strategies []StrategyInfo
}

func NewStrategyHandler() *StrategyHandler {
	names := strategy.Names()
	h := &StrategyHandler{strategies: make([]StrategyInfo, 0, len(names))}
	for _, name := range names {
		p := strategy.DefaultParams()
		p.Name = name
		h.strategies = append(h.strategies, StrategyInfo{Name: name, Defaults: p})
	}
	return h
}

// ListStrategies handles GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": h.strategies})
}
