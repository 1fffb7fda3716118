package lobby

import (
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically removes expired rooms from the directory.
type Sweeper struct {
	dir      *Directory
	interval time.Duration
	logger   *zap.Logger
	quit     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a sweeper ticking at the given interval.
func NewSweeper(dir *Directory, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		dir:      dir,
		interval: interval,
		logger:   logger,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop. It blocks until Stop is called.
func (s *Sweeper) Start() error {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return nil
		case <-ticker.C:
			if removed := s.dir.SweepExpiredRooms(); removed > 0 {
				s.logger.Info("swept expired rooms", zap.Int("removed", removed))
			}
		}
	}
}

// Stop terminates the sweep loop.
func (s *Sweeper) Stop() {
	close(s.quit)
	<-s.done
}

// StatusLogger periodically logs the directory's occupancy summary.
type StatusLogger struct {
	dir      *Directory
	interval time.Duration
	logger   *zap.Logger
	quit     chan struct{}
	done     chan struct{}
}

// NewStatusLogger creates a status logger ticking at the given interval.
func NewStatusLogger(dir *Directory, interval time.Duration, logger *zap.Logger) *StatusLogger {
	return &StatusLogger{
		dir:      dir,
		interval: interval,
		logger:   logger,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the logging loop. It blocks until Stop is called.
func (s *StatusLogger) Start() error {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return nil
		case <-ticker.C:
			rooms, players := s.dir.Counts()
			s.logger.Info("lobby status",
				zap.Int("rooms", rooms),
				zap.Int("players", players),
			)
		}
	}
}

// Stop terminates the logging loop.
func (s *StatusLogger) Stop() {
	close(s.quit)
	<-s.done
}
