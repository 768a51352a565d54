package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noesis-forge/noesis/pkg/config"
)

type deleterStub struct {
	mu       sync.Mutex
	calls    int
	cutoffs  []time.Time
	statuses [][]string
	count    int64
	err      error
}

func (d *deleterStub) DeleteSessionsBefore(_ context.Context, cutoff time.Time, statuses []string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.cutoffs = append(d.cutoffs, cutoff)
	d.statuses = append(d.statuses, statuses)
	return d.count, d.err
}

func (d *deleterStub) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func sweeperConfig() config.CleanupConfig {
	return config.CleanupConfig{
		Enabled:       true,
		RetentionDays: 365,
		Interval:      time.Hour,
	}
}

func TestSweepTargetsTerminalSessionsPastTheCutoff(t *testing.T) {
	db := &deleterStub{count: 3}
	svc := NewService(sweeperConfig(), db)

	svc.sweep(context.Background())

	require.Equal(t, 1, db.callCount())
	assert.ElementsMatch(t, []string{"crystallized", "cancelled"}, db.statuses[0])
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -365), db.cutoffs[0], time.Minute)
}

func TestSweepSurvivesStoreErrors(t *testing.T) {
	db := &deleterStub{err: errors.New("connection refused")}
	svc := NewService(sweeperConfig(), db)

	svc.sweep(context.Background())
	svc.sweep(context.Background())

	assert.Equal(t, 2, db.callCount())
}

func TestStartSweepsImmediatelyAndStopWaits(t *testing.T) {
	db := &deleterStub{}
	svc := NewService(sweeperConfig(), db)

	svc.Start(context.Background())
	require.Eventually(t, func() bool { return db.callCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	svc.Stop()
	assert.Equal(t, 1, db.callCount())

	// A second Stop must not block or panic.
	svc.Stop()
}

func TestStartTwiceRunsASingleLoop(t *testing.T) {
	db := &deleterStub{}
	svc := NewService(sweeperConfig(), db)
	defer svc.Stop()

	svc.Start(context.Background())
	svc.Start(context.Background())

	require.Eventually(t, func() bool { return db.callCount() >= 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return db.callCount() > 1 }, 200*time.Millisecond, 20*time.Millisecond)
}

func TestStopWithoutStartIsANoOp(t *testing.T) {
	svc := NewService(sweeperConfig(), &deleterStub{})
	svc.Stop()
}
