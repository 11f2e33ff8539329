package cache

import "time"

// Sweepable is implemented by caches that can drop their expired entries.
type Sweepable interface {
	Sweep() int
}

// Sweeper periodically sweeps a set of caches in the background.
type Sweeper struct {
	caches []Sweepable
	stop   chan struct{}
	done   chan struct{}
}

func NewSweeper(caches ...Sweepable) *Sweeper {
	return &Sweeper{
		caches: caches,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the sweep loop. Call Stop to shut it down.
func (s *Sweeper) Start(interval time.Duration) {
	go s.run(interval)
}

func (s *Sweeper) run(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, c := range s.caches {
				c.Sweep()
			}
		case <-s.stop:
			return
		}
	}
}

// Stop halts the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}
