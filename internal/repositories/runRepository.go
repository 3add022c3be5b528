package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vsharma2491/ALGO/internal/models"
)

const (
	tradeBatchSize  = 500
	defaultRunLimit = 20
)

// RunRepository stores backtest runs together with their trade ledgers.
type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create writes the run and its trades in one transaction.
func (r *RunRepository) Create(ctx context.Context, run *models.BacktestRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	if run.ID == "" {
		return errors.New("run id is required")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Trades").Create(run).Error; err != nil {
			return err
		}
		if len(run.Trades) == 0 {
			return nil
		}
		for i := range run.Trades {
			run.Trades[i].RunID = run.ID
		}
		return tx.CreateInBatches(&run.Trades, tradeBatchSize).Error
	})
}

// FindByID returns the run with its trades in ledger order, or nil when no
// such run exists.
func (r *RunRepository) FindByID(ctx context.Context, id string) (*models.BacktestRun, error) {
	if id == "" {
		return nil, errors.New("invalid id")
	}

	var run models.BacktestRun
	err := runWithTrades(r.db.WithContext(ctx)).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns the newest runs without their trades.
func (r *RunRepository) List(ctx context.Context, limit int) ([]models.BacktestRun, error) {
	var runs []models.BacktestRun
	err := latestRuns(r.db.WithContext(ctx), limit).Find(&runs).Error
	return runs, err
}

// Private helper methods

func runWithTrades(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Trades", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	})
}

func latestRuns(tx *gorm.DB, limit int) *gorm.DB {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	return tx.Order("created_at DESC").Limit(limit)
}
