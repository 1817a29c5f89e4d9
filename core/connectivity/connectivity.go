// Package connectivity abstracts the network reachability signal consumed
// by the action queue. The check is an injected capability so reliability
// behavior can be exercised under simulated connectivity loss.
package connectivity

import "sync"

// Checker reports whether the network is currently believed reachable.
type Checker interface {
	IsOnline() bool
}

// Static is a fixed answer, handy for wiring and tests.
type Static bool

func (s Static) IsOnline() bool { return bool(s) }

// Flag is a thread-safe settable checker. The host flips it from its
// platform reachability callbacks.
type Flag struct {
	mu     sync.RWMutex
	online bool
}

// NewFlag creates a Flag with the given initial state.
func NewFlag(online bool) *Flag {
	return &Flag{online: online}
}

func (f *Flag) IsOnline() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.online
}

// SetOnline updates the reachability state.
func (f *Flag) SetOnline(online bool) {
	f.mu.Lock()
	f.online = online
	f.mu.Unlock()
}
