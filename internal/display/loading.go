package display

import (
	"context"
	"sync"
	"time"

	"solana-portfolio-tracker/internal/config"
)

// LoadingState is the phase of a loading screen
type LoadingState int

const (
	LoadingIdle LoadingState = iota
	LoadingProgressing
	LoadingComplete
)

func (s LoadingState) String() string {
	switch s {
	case LoadingIdle:
		return "idle"
	case LoadingProgressing:
		return "progressing"
	case LoadingComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// LoadingScreen is a progress counter gated on real data. The counter only
// advances while the latest value is above the threshold; once it reaches
// 100 the completion callback fires after a short delay, exactly once.
type LoadingScreen struct {
	tick          time.Duration
	step          int
	threshold     float64
	completeDelay time.Duration

	mu       sync.Mutex
	state    LoadingState
	progress int
}

// NewLoadingScreen creates an idle loading screen
func NewLoadingScreen(cfg config.LoadingConfig) *LoadingScreen {
	step := cfg.Step
	if step <= 0 {
		step = 1
	}
	tick := cfg.Tick
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	return &LoadingScreen{
		tick:          tick,
		step:          step,
		threshold:     cfg.Threshold,
		completeDelay: cfg.CompleteDelay,
	}
}

// Start moves an idle screen to progressing. It reports whether it did.
func (l *LoadingScreen) Start() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != LoadingIdle {
		return false
	}
	l.state = LoadingProgressing
	return true
}

// Advance applies one tick against value and reports whether the counter has
// reached 100. Ticks outside the progressing state are ignored.
func (l *LoadingScreen) Advance(value float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != LoadingProgressing {
		return false
	}
	if value > l.threshold && l.progress < 100 {
		l.progress += l.step
		if l.progress > 100 {
			l.progress = 100
		}
	}
	return l.progress >= 100
}

// Finish marks the screen complete. Only the first call returns true.
func (l *LoadingScreen) Finish() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != LoadingProgressing || l.progress < 100 {
		return false
	}
	l.state = LoadingComplete
	return true
}

// Percent returns the displayed progress, 0..100
func (l *LoadingScreen) Percent() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.progress
}

// State returns the current phase
func (l *LoadingScreen) State() LoadingState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Run drives the screen until it completes or ctx ends. latest is sampled on
// every tick; onProgress receives each new percentage and onComplete fires
// once, CompleteDelay after the counter reaches 100. Cancelling ctx stops
// both the ticker and the pending completion.
func (l *LoadingScreen) Run(ctx context.Context, latest func() float64, onProgress func(int), onComplete func()) {
	if !l.Start() {
		return
	}

	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	last := l.Percent()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		done := l.Advance(latest())
		if pct := l.Percent(); pct != last {
			last = pct
			if onProgress != nil {
				onProgress(pct)
			}
		}
		if done {
			break
		}
	}
	ticker.Stop()

	timer := time.NewTimer(l.completeDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if l.Finish() && onComplete != nil {
		onComplete()
	}
}
