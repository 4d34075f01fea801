package downloader

import (
	"sync"
	"time"
)

// Indicator is user feedback that runs alongside a download. Download starts
// it once and stops it once, when the copy loop exits.
type Indicator interface {
	Start()
	Stop()
}

// Spinner calls tick on its own goroutine every interval until stopped
type Spinner struct {
	interval time.Duration
	tick     func()

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewSpinner creates a spinner. tick must not block for long.
func NewSpinner(interval time.Duration, tick func()) *Spinner {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Spinner{interval: interval, tick: tick, done: make(chan struct{})}
}

// Start launches the ticking goroutine
func (s *Spinner) Start() {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.run()
	})
}

// Stop ends the ticking goroutine and waits for it. Extra calls are no-ops.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *Spinner) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}
