package scheduler

import (
	"fmt"
	"sync"
	"time"

	"solana-portfolio-tracker/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs named periodic jobs. Each job is registered with Every and
// removed with Remove; a job never overlaps with its own previous run.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger

	mu      sync.Mutex
	names   map[cron.EntryID]string
	started bool
}

// New creates a stopped scheduler
func New(log *logger.Logger) *Scheduler {
	log = log.WithComponent("scheduler")
	cronLog := cronLogger{sugar: log.Sugar()}

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		log:   log,
		names: make(map[cron.EntryID]string),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// Every registers fn to run every interval. Intervals are whole seconds; anything
// shorter than a second is rejected.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) (cron.EntryID, error) {
	if interval < time.Second {
		return 0, fmt.Errorf("interval %s for job %q is below one second", interval, name)
	}

	id := s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		s.log.Debug("Running job", zap.String("job", name))
		fn()
	}))

	s.mu.Lock()
	s.names[id] = name
	s.mu.Unlock()

	s.log.Debug("Job registered",
		zap.String("job", name),
		zap.Duration("interval", interval),
		zap.Int("entry_id", int(id)),
	)
	return id, nil
}

// Remove unregisters a job. Removing an unknown id is a no-op.
func (s *Scheduler) Remove(id cron.EntryID) {
	s.cron.Remove(id)

	s.mu.Lock()
	name, ok := s.names[id]
	delete(s.names, id)
	s.mu.Unlock()

	if ok {
		s.log.Debug("Job removed", zap.String("job", name))
	}
}

// Jobs returns the names of the registered jobs
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.names))
	for _, entry := range s.cron.Entries() {
		if name, ok := s.names[entry.ID]; ok {
			names = append(names, name)
		}
	}
	return names
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
