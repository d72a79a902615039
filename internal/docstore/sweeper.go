package docstore

import (
	"log"
	"time"

	"github.com/gorhill/cronexpr"
)

// Sweeper prunes old sessions on a cron schedule. One sweeper serves all
// storage base directories of the process.
type Sweeper struct {
	baseDirs   []string
	keepLatest int
	expr       *cronexpr.Expression
	logger     *log.Logger
	stop       chan struct{}
}

// NewSweeper builds a sweeper from a cron spec ("0 3 * * *", "@daily", ...).
func NewSweeper(cronSpec string, baseDirs []string, keepLatest int, logger *log.Logger) (*Sweeper, error) {
	expr, err := cronexpr.Parse(cronSpec)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[SWEEPER] ", log.LstdFlags)
	}
	return &Sweeper{
		baseDirs:   baseDirs,
		keepLatest: keepLatest,
		expr:       expr,
		logger:     logger,
		stop:       make(chan struct{}),
	}, nil
}

// Start runs the sweep loop in the background until Stop is called.
func (s *Sweeper) Start() {
	go func() {
		for {
			next := s.expr.Next(time.Now())
			if next.IsZero() {
				s.logger.Printf("cron expression yields no further runs, sweeper exiting")
				return
			}
			timer := time.NewTimer(time.Until(next))
			select {
			case <-s.stop:
				timer.Stop()
				return
			case <-timer.C:
				s.sweep()
			}
		}
	}()
}

// Stop terminates the sweep loop.
func (s *Sweeper) Stop() { close(s.stop) }

func (s *Sweeper) sweep() {
	for _, dir := range s.baseDirs {
		if _, err := Prune(dir, s.keepLatest, s.logger); err != nil {
			s.logger.Printf("sweep of %s failed: %v", dir, err)
		}
	}
}
