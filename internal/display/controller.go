package display

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"solana-portfolio-tracker/internal/config"
	"solana-portfolio-tracker/internal/scheduler"
	"solana-portfolio-tracker/pkg/logger"
	"solana-portfolio-tracker/pkg/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RefreshJob is the scheduler job name used for periodic polling
const RefreshJob = "display_refresh"

// ErrAlreadyRunning is returned when Run is called on a running controller
var ErrAlreadyRunning = errors.New("display controller already running")

// events consumed by the controller loop
type (
	fetchResult struct {
		mount uint64
		value float64
		err   error
	}
	loadingProgress struct {
		mount   uint64
		percent int
	}
	loadingFinished struct {
		mount uint64
	}
)

// mount is one lifetime of the display, from Run or Restart until teardown
type mount struct {
	id        uint64
	ctx       context.Context
	cancel    context.CancelFunc
	loading   *LoadingScreen
	particles *ParticleField
	pollID    cron.EntryID
	polling   bool
}

// Controller owns the display state. A single goroutine (Run) applies every
// change; readers only ever see published snapshots.
type Controller struct {
	fetcher   ValueFetcher
	scheduler *scheduler.Scheduler
	metrics   *metrics.MetricsCollector
	log       *logger.Logger

	display config.DisplayConfig
	loading config.LoadingConfig
	goal    float64
	wallets []string

	events  chan any
	restart chan struct{}

	snapshot atomic.Pointer[Snapshot]
	running  atomic.Bool
}

// NewController creates a display controller. Nothing runs until Run.
func NewController(
	fetcher ValueFetcher,
	sched *scheduler.Scheduler,
	cfg *config.Config,
	mc *metrics.MetricsCollector,
	log *logger.Logger,
) *Controller {
	c := &Controller{
		fetcher:   fetcher,
		scheduler: sched,
		metrics:   mc,
		log:       log.WithComponent("display"),
		display:   cfg.Display,
		loading:   cfg.Loading,
		goal:      cfg.Portfolio.Goal,
		wallets:   append([]string(nil), cfg.Portfolio.Wallets...),
		events:    make(chan any, 16),
		restart:   make(chan struct{}, 1),
	}
	if c.display.FetchTimeout <= 0 {
		c.display.FetchTimeout = 60 * time.Second
	}
	c.snapshot.Store(NewSnapshot(InitialState(), c.goal, c.wallets, nil, c.display.PollInterval))
	return c
}

// Snapshot returns the latest published display state
func (c *Controller) Snapshot() *Snapshot {
	return c.snapshot.Load()
}

// Running reports whether Run is active
func (c *Controller) Running() bool {
	return c.running.Load()
}

// Restart tears down the current mount and starts a fresh one with the
// loading screen. Requests made while one is pending are coalesced.
func (c *Controller) Restart() {
	select {
	case c.restart <- struct{}{}:
	default:
	}
}

// Run mounts the display and processes events until ctx is cancelled.
// Teardown cancels the loading screen, removes the polling job and stops the
// direction timer; fetch results that arrive afterwards are discarded.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	directionTimer := time.NewTimer(time.Hour)
	stopTimer(directionTimer)
	defer directionTimer.Stop()

	state := InitialState()
	m := c.mount(ctx, 1)
	c.publish(state, m)
	c.activate(m)
	c.log.Info("Display mounted", zap.Duration("poll_interval", c.display.PollInterval))

	for {
		select {
		case <-ctx.Done():
			c.unmount(m)
			c.log.Info("Display torn down")
			return nil

		case <-c.restart:
			c.unmount(m)
			stopTimer(directionTimer)
			state = InitialState()
			m = c.mount(ctx, m.id+1)
			c.publish(state, m)
			c.activate(m)
			c.log.Info("Display restarted", zap.Uint64("mount", m.id))

		case <-directionTimer.C:
			state = state.WithDirectionCleared()

		case ev := <-c.events:
			next, ok := c.apply(state, m, ev, directionTimer)
			if !ok {
				continue
			}
			state = next
		}
		c.publish(state, m)
	}
}

// apply runs the transition for ev. It reports false when ev belongs to an
// earlier mount or leaves the state untouched.
func (c *Controller) apply(state State, m *mount, ev any, directionTimer *time.Timer) (State, bool) {
	switch e := ev.(type) {
	case fetchResult:
		if e.mount != m.id {
			return state, false
		}
		if e.err != nil {
			c.log.Warn("Portfolio value fetch failed", zap.Error(e.err))
			return state, false
		}
		resetTimer(directionTimer, c.display.DirectionWindow)
		return state.WithValue(e.value, c.goal, time.Now()), true

	case loadingProgress:
		if e.mount != m.id {
			return state, false
		}
		return state.WithLoadingPercent(e.percent), true

	case loadingFinished:
		if e.mount != m.id {
			return state, false
		}
		c.startPolling(m)
		return state.WithLoadingDone(), true
	}
	return state, false
}

func (c *Controller) mount(parent context.Context, id uint64) *mount {
	ctx, cancel := context.WithCancel(parent)
	count := c.display.ParticleCount
	if count <= 0 {
		count = DefaultParticleCount
	}
	m := &mount{
		id:        id,
		ctx:       ctx,
		cancel:    cancel,
		loading:   NewLoadingScreen(c.loading),
		particles: NewParticleField(count, rand.Uint64()),
	}
	return m
}

// activate starts the loading screen and the immediate first fetch
func (c *Controller) activate(m *mount) {
	go m.loading.Run(m.ctx,
		func() float64 { return c.Snapshot().Value },
		func(percent int) { c.send(m.ctx, loadingProgress{mount: m.id, percent: percent}) },
		func() { c.send(m.ctx, loadingFinished{mount: m.id}) },
	)
	go c.refresh(m.ctx, m.id)
}

func (c *Controller) unmount(m *mount) {
	m.cancel()
	if m.polling {
		c.scheduler.Remove(m.pollID)
		m.polling = false
	}
}

func (c *Controller) startPolling(m *mount) {
	if m.polling {
		return
	}
	id, err := c.scheduler.Every(RefreshJob, c.display.PollInterval, func() { c.refresh(m.ctx, m.id) })
	if err != nil {
		c.log.Error("Failed to schedule display refresh", zap.Error(err))
		return
	}
	m.pollID = id
	m.polling = true
}

// refresh performs one fetch and hands the result to the loop
func (c *Controller) refresh(ctx context.Context, mountID uint64) {
	if ctx.Err() != nil {
		return
	}
	ctx = logger.ContextWithCorrelationID(ctx, logger.GenerateID())
	fetchCtx, cancel := context.WithTimeout(ctx, c.display.FetchTimeout)
	defer cancel()

	value, err := c.fetcher.FetchValue(fetchCtx)
	if ctx.Err() != nil {
		return
	}
	c.metrics.RecordPoll(err == nil)
	c.send(ctx, fetchResult{mount: mountID, value: value, err: err})
}

func (c *Controller) send(ctx context.Context, ev any) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *Controller) publish(state State, m *mount) {
	c.snapshot.Store(NewSnapshot(state, c.goal, c.wallets, m.particles.Particles(), c.display.PollInterval))
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	stopTimer(t)
	t.Reset(d)
}
