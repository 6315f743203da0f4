package display

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"solana-portfolio-tracker/internal/config"
	"solana-portfolio-tracker/internal/scheduler"
	"solana-portfolio-tracker/pkg/logger"
	"solana-portfolio-tracker/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetcher returns the queued results in order, repeating the last one
type scriptedFetcher struct {
	mu      sync.Mutex
	values  []float64
	errs    []error
	calls   int
	release chan struct{}
}

func (f *scriptedFetcher) FetchValue(ctx context.Context) (float64, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.values) {
		i = len(f.values) - 1
	}
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return f.values[i], err
}

func (f *scriptedFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type harness struct {
	controller *Controller
	scheduler  *scheduler.Scheduler
	metrics    *metrics.MetricsCollector
	cancel     context.CancelFunc
	done       chan struct{}
	err        error
}

func testConfig() *config.Config {
	return &config.Config{
		Portfolio: config.PortfolioConfig{
			Wallets: []string{"wallet-a", "wallet-b"},
			Goal:    1000000,
		},
		Display: config.DisplayConfig{
			PollInterval:    time.Second,
			DirectionWindow: 50 * time.Millisecond,
			FetchTimeout:    time.Second,
			ParticleCount:   DefaultParticleCount,
		},
		Loading: config.LoadingConfig{
			Tick:          time.Millisecond,
			Step:          50,
			Threshold:     1,
			CompleteDelay: 5 * time.Millisecond,
		},
	}
}

func startController(t *testing.T, cfg *config.Config, fetcher ValueFetcher) *harness {
	t.Helper()
	logger.UseNop()

	sched := scheduler.New(logger.GetLogger())
	sched.Start()
	t.Cleanup(sched.Stop)

	mc := metrics.NewMetricsCollector()
	c := NewController(fetcher, sched, cfg, mc, logger.GetLogger())

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{controller: c, scheduler: sched, metrics: mc, cancel: cancel, done: make(chan struct{})}
	go func() {
		h.err = c.Run(ctx)
		close(h.done)
	}()
	t.Cleanup(h.stop)

	require.Eventually(t, c.Running, time.Second, time.Millisecond)
	return h
}

func (h *harness) stop() {
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
	}
}

func TestControllerInitialSnapshot(t *testing.T) {
	logger.UseNop()
	c := NewController(&scriptedFetcher{values: []float64{0}}, scheduler.New(logger.GetLogger()), testConfig(), metrics.NewMetricsCollector(), logger.GetLogger())

	snap := c.Snapshot()
	require.NotNil(t, snap)
	assert.True(t, snap.Loading)
	assert.Equal(t, 0.0, snap.Value)
	assert.Equal(t, DirectionNone, snap.Direction)
	assert.Equal(t, "$0.00", snap.FormattedValue)
	assert.Equal(t, "$1,000,000.00", snap.FormattedGoal)
	assert.Equal(t, "$1,000,000.00 to go!", snap.Message)
	assert.Equal(t, PendingPalette, snap.Palette)
	assert.Equal(t, []Wallet{{Index: 1, Address: "wallet-a"}, {Index: 2, Address: "wallet-b"}}, snap.Wallets)
	assert.Equal(t, 1, snap.PollIntervalSeconds)
}

func TestControllerLoadsThenPolls(t *testing.T) {
	fetcher := &scriptedFetcher{values: []float64{250000, 250000, 300000}}
	h := startController(t, testConfig(), fetcher)
	c := h.controller

	require.Eventually(t, func() bool { return !c.Snapshot().Loading }, 2*time.Second, time.Millisecond)

	snap := c.Snapshot()
	assert.Equal(t, 250000.0, snap.Value)
	assert.Equal(t, 100, snap.LoadingPercent)
	assert.Equal(t, 25.0, snap.ProgressPercent)
	assert.Equal(t, "$750,000.00 to go!", snap.Message)
	assert.Len(t, snap.Particles, DefaultParticleCount)
	assert.Equal(t, []string{RefreshJob}, h.scheduler.Jobs())

	require.Eventually(t, func() bool { return h.metrics.GetMetrics().Polls >= 2 }, 3*time.Second, 10*time.Millisecond)
	assert.Zero(t, h.metrics.GetMetrics().PollFailures)
}

func TestControllerStaysLoadingWithoutData(t *testing.T) {
	h := startController(t, testConfig(), &scriptedFetcher{values: []float64{0}})
	c := h.controller

	require.Eventually(t, func() bool { return h.metrics.GetMetrics().Polls == 1 }, time.Second, time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	snap := c.Snapshot()
	assert.True(t, snap.Loading)
	assert.Equal(t, 0, snap.LoadingPercent)
	assert.Empty(t, h.scheduler.Jobs(), "polling starts only after loading completes")
}

func TestControllerIgnoresFailedFetch(t *testing.T) {
	fetcher := &scriptedFetcher{
		values: []float64{0},
		errs:   []error{errors.New("connection refused")},
	}
	h := startController(t, testConfig(), fetcher)

	require.Eventually(t, func() bool { return h.metrics.GetMetrics().PollFailures == 1 }, time.Second, time.Millisecond)

	snap := h.controller.Snapshot()
	assert.Equal(t, 0.0, snap.Value)
	assert.True(t, snap.Loading)
	assert.Equal(t, DirectionNone, snap.Direction)
}

func TestControllerDirectionResets(t *testing.T) {
	cfg := testConfig()
	cfg.Display.DirectionWindow = 200 * time.Millisecond
	h := startController(t, cfg, &scriptedFetcher{values: []float64{500}})
	c := h.controller

	require.Eventually(t, func() bool { return c.Snapshot().Direction == DirectionUp }, time.Second, time.Millisecond)
	snap := c.Snapshot()
	assert.Equal(t, 500.0, snap.Value)
	assert.Equal(t, 0.0, snap.PreviousValue)

	require.Eventually(t, func() bool { return c.Snapshot().Direction == DirectionNone }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 500.0, c.Snapshot().Value)
}

func TestControllerGoalReached(t *testing.T) {
	h := startController(t, testConfig(), &scriptedFetcher{values: []float64{1000000}})
	c := h.controller

	require.Eventually(t, func() bool { return c.Snapshot().GoalReached }, time.Second, time.Millisecond)

	snap := c.Snapshot()
	assert.Equal(t, ReachedPalette, snap.Palette)
	assert.Equal(t, CelebrationMessage, snap.Message)
	assert.Equal(t, 100.0, snap.ProgressPercent)
}

func TestControllerTeardown(t *testing.T) {
	fetcher := &scriptedFetcher{values: []float64{10}}
	h := startController(t, testConfig(), fetcher)
	c := h.controller

	require.Eventually(t, func() bool { return len(h.scheduler.Jobs()) == 1 }, 2*time.Second, time.Millisecond)

	h.cancel()
	select {
	case <-h.done:
		require.NoError(t, h.err)
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not stop")
	}

	assert.False(t, c.Running())
	assert.Empty(t, h.scheduler.Jobs())

	calls := fetcher.Calls()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, calls, fetcher.Calls(), "no polls after teardown")
}

func TestControllerDropsLateResults(t *testing.T) {
	fetcher := &scriptedFetcher{values: []float64{10}, release: make(chan struct{})}
	h := startController(t, testConfig(), fetcher)
	c := h.controller

	h.cancel()
	<-h.done
	close(fetcher.release)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0.0, c.Snapshot().Value)
	assert.Zero(t, h.metrics.GetMetrics().Polls)
}

func TestControllerRestart(t *testing.T) {
	fetcher := &scriptedFetcher{values: []float64{10}}
	h := startController(t, testConfig(), fetcher)
	c := h.controller

	require.Eventually(t, func() bool { return !c.Snapshot().Loading }, 2*time.Second, time.Millisecond)
	require.Equal(t, []string{RefreshJob}, h.scheduler.Jobs())

	c.Restart()

	require.Eventually(t, func() bool { return fetcher.Calls() >= 2 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return !c.Snapshot().Loading }, 2*time.Second, time.Millisecond)
	assert.Equal(t, []string{RefreshJob}, h.scheduler.Jobs(), "old polling job replaced, not duplicated")
	assert.Equal(t, 10.0, c.Snapshot().Value)
}

func TestControllerRunTwice(t *testing.T) {
	h := startController(t, testConfig(), &scriptedFetcher{values: []float64{0}})
	assert.ErrorIs(t, h.controller.Run(context.Background()), ErrAlreadyRunning)
}
