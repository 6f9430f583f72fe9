package registry

import (
	"context"
	"sync"
	"time"
)

// Sampler drives SnapshotTick on the configured interval. It is optional:
// hosts with their own frame or tick loop can call SnapshotTick directly.
type Sampler struct {
	reg      *Registry
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewSampler creates a sampler using the registry's configured interval.
func NewSampler(reg *Registry) *Sampler {
	return &Sampler{reg: reg, interval: reg.cfg.SampleInterval}
}

// Start begins ticking until ctx is cancelled or Stop is called.
func (s *Sampler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.reg.SnapshotTick()
			}
		}
	}()
}

// Stop halts ticking and waits for the loop to exit.
func (s *Sampler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
