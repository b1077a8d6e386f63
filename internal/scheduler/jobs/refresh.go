// Package jobs holds the scheduled job implementations.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/pkg/logger"
)

// A refresh pulls enough history to cover a live prediction window with
// margin for holidays.
const refreshLookbackDays = 60

// Acquirer matches the acquisition client's refresh entry point
type Acquirer interface {
	EnsureWindow(ctx context.Context, stockCode string, window contracts.TimeWindow) error
}

// DataRefreshJob refreshes the local datasets for the configured stocks
// after each session close.
type DataRefreshJob struct {
	acquirer   Acquirer
	stockCodes []string
	schedule   string
	logger     *logger.Logger
}

// NewDataRefreshJob creates a new data refresh job
func NewDataRefreshJob(acquirer Acquirer, stockCodes []string, schedule string, log *logger.Logger) *DataRefreshJob {
	return &DataRefreshJob{
		acquirer:   acquirer,
		stockCodes: stockCodes,
		schedule:   schedule,
		logger:     log,
	}
}

// Name implements scheduler.Job
func (j *DataRefreshJob) Name() string { return "data_refresh" }

// Schedule implements scheduler.Job
func (j *DataRefreshJob) Schedule() string { return j.schedule }

// Run refreshes every configured stock. One failing stock does not stop the
// others; all failures are reported together.
func (j *DataRefreshJob) Run(ctx context.Context) error {
	now := time.Now()
	window, err := contracts.NewTimeWindow(now.AddDate(0, 0, -refreshLookbackDays), now)
	if err != nil {
		return err
	}

	var errs []error
	for _, code := range j.stockCodes {
		j.logger.WithField("stock_code", code).Info("🔄 refreshing datasets")
		if err := j.acquirer.EnsureWindow(ctx, code, window); err != nil {
			j.logger.WithError(err).WithField("stock_code", code).Warn("refresh failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
