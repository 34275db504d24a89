// Package gate implements a rate-limited action controller: a safety gate
// bounding how often a triggered action may fire. The same gate serves the
// restart button (few firings per hour, long cooldown) and the alert
// dispatcher (one gate per distinct alert key).
package gate

import (
	"sync"
	"time"
)

// Deny reasons reported in Decision.Reason.
const (
	ReasonCooldown  = "cooldown active"
	ReasonWindowCap = "window cap reached"
)

// Decision is the outcome of a TryFire call.
type Decision struct {
	Allowed bool
	Reason  string // set when denied
}

// Gate combines two independent constraints by AND: a minimum inter-action
// cooldown and a cap on actions per rolling time window. State is mutated
// only by TryFire and is protected by a mutex; restart-button and alert-path
// callers may invoke it concurrently.
type Gate struct {
	mu sync.Mutex

	cooldown     time.Duration
	window       time.Duration
	maxPerWindow int

	countInWindow int
	windowStart   time.Time
	lastAction    time.Time
}

// New creates a Gate. A zero cooldown disables the cooldown constraint; a
// maxPerWindow of 0 denies every call.
func New(cooldown, window time.Duration, maxPerWindow int) *Gate {
	return &Gate{
		cooldown:     cooldown,
		window:       window,
		maxPerWindow: maxPerWindow,
	}
}

// TryFire evaluates both constraints at the given instant. On Allowed it
// records the firing; on Denied the gate state is unchanged.
func (g *Gate) TryFire(now time.Time) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	// The rolling window resets before evaluation.
	if g.windowStart.IsZero() || now.Sub(g.windowStart) > g.window {
		g.countInWindow = 0
		g.windowStart = now
	}

	if !g.lastAction.IsZero() && now.Sub(g.lastAction) < g.cooldown {
		return Decision{Reason: ReasonCooldown}
	}
	if g.countInWindow >= g.maxPerWindow {
		return Decision{Reason: ReasonWindowCap}
	}

	g.countInWindow++
	g.lastAction = now
	return Decision{Allowed: true}
}

// Status is a point-in-time view of gate state, for status reporting.
type Status struct {
	CountInWindow int
	MaxPerWindow  int
	LastAction    time.Time
	Cooldown      time.Duration
}

// Snapshot returns the current gate state.
func (g *Gate) Snapshot() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Status{
		CountInWindow: g.countInWindow,
		MaxPerWindow:  g.maxPerWindow,
		LastAction:    g.lastAction,
		Cooldown:      g.cooldown,
	}
}

// Keyed maintains one Gate per key, created on first use. Used by the alert
// dispatcher, where cooldown applies per distinct alert message rather than
// globally.
type Keyed struct {
	mu      sync.Mutex
	gates   map[string]*Gate
	factory func() *Gate
}

// NewKeyed creates a Keyed gate set; factory builds the gate for a new key.
func NewKeyed(factory func() *Gate) *Keyed {
	return &Keyed{
		gates:   make(map[string]*Gate),
		factory: factory,
	}
}

// TryFire evaluates the gate for key, creating it if needed.
func (k *Keyed) TryFire(key string, now time.Time) Decision {
	k.mu.Lock()
	g, ok := k.gates[key]
	if !ok {
		g = k.factory()
		k.gates[key] = g
	}
	k.mu.Unlock()

	return g.TryFire(now)
}

// Len returns the number of distinct keys seen.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.gates)
}
