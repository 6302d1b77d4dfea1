package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var errDrainTimeout = errors.New("timeout waiting for reap sweeps to drain")

// DrainManager tracks draining state and in-flight reap sweeps so shutdown
// never interrupts a half-finished sweep.
type DrainManager struct {
	draining     atomic.Bool
	sweepsActive atomic.Int64
	sweepWG      sync.WaitGroup
}

func NewDrainManager() *DrainManager {
	return &DrainManager{}
}

func (m *DrainManager) StartDraining() {
	m.draining.Store(true)
}

func (m *DrainManager) IsDraining() bool {
	return m.draining.Load()
}

func (m *DrainManager) ActiveSweeps() int64 {
	return m.sweepsActive.Load()
}

// TrackSweep registers a reap sweep and returns a release callback.
func (m *DrainManager) TrackSweep() func() {
	m.sweepWG.Add(1)
	m.sweepsActive.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.sweepsActive.Add(-1)
			m.sweepWG.Done()
		})
	}
}

func (m *DrainManager) WaitSweeps(ctx context.Context) error {
	waitDone := make(chan struct{})
	go func() {
		m.sweepWG.Wait()
		close(waitDone)
	}()

	select {
	case <-ctx.Done():
		return errDrainTimeout
	case <-waitDone:
		return nil
	}
}
