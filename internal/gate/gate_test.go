package gate

import (
	"testing"
	"time"
)

func TestGateWindowCap(t *testing.T) {
	// No cooldown, 3 firings per hour: three allowed, the fourth denied,
	// and a fifth succeeds once the window has rolled over.
	g := New(0, time.Hour, 3)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		d := g.TryFire(now.Add(time.Duration(i) * time.Second))
		if !d.Allowed {
			t.Fatalf("firing %d: expected allowed, denied with %q", i+1, d.Reason)
		}
	}

	d := g.TryFire(now.Add(3 * time.Second))
	if d.Allowed {
		t.Fatal("fourth firing in window should be denied")
	}
	if d.Reason != ReasonWindowCap {
		t.Errorf("expected reason %q, got %q", ReasonWindowCap, d.Reason)
	}

	d = g.TryFire(now.Add(time.Hour + time.Second))
	if !d.Allowed {
		t.Errorf("firing after window rollover should be allowed, denied with %q", d.Reason)
	}
}

func TestGateCooldown(t *testing.T) {
	g := New(5*time.Minute, time.Hour, 100)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if d := g.TryFire(now); !d.Allowed {
		t.Fatalf("first firing should be allowed, denied with %q", d.Reason)
	}

	d := g.TryFire(now.Add(5*time.Minute - time.Second))
	if d.Allowed {
		t.Fatal("firing inside cooldown should be denied")
	}
	if d.Reason != ReasonCooldown {
		t.Errorf("expected reason %q, got %q", ReasonCooldown, d.Reason)
	}

	if d := g.TryFire(now.Add(5 * time.Minute)); !d.Allowed {
		t.Errorf("firing at cooldown expiry should be allowed, denied with %q", d.Reason)
	}
}

func TestGateBothConstraintsApply(t *testing.T) {
	// Cooldown satisfied but window cap reached: still denied.
	g := New(time.Second, time.Hour, 2)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	g.TryFire(now)
	g.TryFire(now.Add(time.Minute))

	d := g.TryFire(now.Add(2 * time.Minute))
	if d.Allowed {
		t.Fatal("expected window cap denial despite expired cooldown")
	}
	if d.Reason != ReasonWindowCap {
		t.Errorf("expected reason %q, got %q", ReasonWindowCap, d.Reason)
	}
}

func TestGateDenialLeavesStateUnchanged(t *testing.T) {
	g := New(10*time.Minute, time.Hour, 3)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	g.TryFire(now)
	before := g.Snapshot()

	g.TryFire(now.Add(time.Second)) // denied by cooldown
	after := g.Snapshot()

	if before.CountInWindow != after.CountInWindow {
		t.Errorf("denied attempt changed window count: %d -> %d", before.CountInWindow, after.CountInWindow)
	}
	if !before.LastAction.Equal(after.LastAction) {
		t.Errorf("denied attempt moved last action time: %v -> %v", before.LastAction, after.LastAction)
	}
}

func TestGateZeroMaxDeniesAll(t *testing.T) {
	g := New(0, time.Hour, 0)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if d := g.TryFire(now); d.Allowed {
		t.Error("gate with maxPerWindow 0 should deny everything")
	}
}

func TestGateSnapshot(t *testing.T) {
	g := New(time.Minute, time.Hour, 3)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g.TryFire(now)

	s := g.Snapshot()
	if s.CountInWindow != 1 {
		t.Errorf("expected 1 in window, got %d", s.CountInWindow)
	}
	if s.MaxPerWindow != 3 {
		t.Errorf("expected max 3, got %d", s.MaxPerWindow)
	}
	if !s.LastAction.Equal(now) {
		t.Errorf("expected last action %v, got %v", now, s.LastAction)
	}
	if s.Cooldown != time.Minute {
		t.Errorf("expected cooldown 1m, got %v", s.Cooldown)
	}
}

func TestKeyedIndependentGates(t *testing.T) {
	k := NewKeyed(func() *Gate { return New(time.Hour, time.Hour, 1) })
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if d := k.TryFire("memory", now); !d.Allowed {
		t.Fatalf("first memory firing should be allowed, denied with %q", d.Reason)
	}
	if d := k.TryFire("memory", now.Add(time.Minute)); d.Allowed {
		t.Error("second memory firing inside cooldown should be denied")
	}
	// A different key gets its own fresh gate.
	if d := k.TryFire("disk", now.Add(time.Minute)); !d.Allowed {
		t.Errorf("first disk firing should be allowed, denied with %q", d.Reason)
	}

	if k.Len() != 2 {
		t.Errorf("expected 2 keys, got %d", k.Len())
	}
}
