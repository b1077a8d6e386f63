package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/pkg/logger"
)

type stubAcquirer struct {
	windows map[string]contracts.TimeWindow
	failFor map[string]bool
}

func (s *stubAcquirer) EnsureWindow(_ context.Context, stockCode string, window contracts.TimeWindow) error {
	if s.windows == nil {
		s.windows = make(map[string]contracts.TimeWindow)
	}
	s.windows[stockCode] = window
	if s.failFor[stockCode] {
		return errors.New("upstream down")
	}
	return nil
}

func TestDataRefreshJobRefreshesAllStocks(t *testing.T) {
	acquirer := &stubAcquirer{}
	job := NewDataRefreshJob(acquirer, []string{"600415", "000001"}, "0 0 17 * * MON-FRI", logger.NewNop())

	err := job.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, acquirer.windows, 2)

	w := acquirer.windows["600415"]
	assert.Equal(t, refreshLookbackDays, int(w.End.Sub(w.Start).Hours()/24), "window span in days")
}

func TestDataRefreshJobContinuesPastFailures(t *testing.T) {
	acquirer := &stubAcquirer{failFor: map[string]bool{"600415": true}}
	job := NewDataRefreshJob(acquirer, []string{"600415", "000001"}, "0 0 17 * * MON-FRI", logger.NewNop())

	err := job.Run(context.Background())
	require.Error(t, err, "failed stock must surface")
	assert.Contains(t, acquirer.windows, "000001", "000001 refreshed despite 600415 failure")
}

func TestDataRefreshJobIdentity(t *testing.T) {
	job := NewDataRefreshJob(&stubAcquirer{}, nil, "0 0 17 * * MON-FRI", logger.NewNop())
	assert.Equal(t, "data_refresh", job.Name())
	assert.Equal(t, "0 0 17 * * MON-FRI", job.Schedule())
}
