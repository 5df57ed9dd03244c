// Package health tracks the gateway's own readiness, separate from the
// per-server statuses kept in the registry.
package health

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready   atomic.Bool
	started atomic.Int64 // unix nanos, 0 until SetReady
}

// SetReady marks the gateway as serving. Called once startup registration
// has finished.
func (s *State) SetReady() {
	s.started.CompareAndSwap(0, time.Now().UnixNano())
	s.ready.Store(true)
}

func (s *State) IsReady() bool {
	return s.ready.Load()
}

// Uptime reports how long the gateway has been ready, zero if it isn't yet.
func (s *State) Uptime() time.Duration {
	started := s.started.Load()
	if started == 0 || !s.ready.Load() {
		return 0
	}
	return time.Since(time.Unix(0, started))
}
