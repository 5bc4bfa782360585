package cooldown

import (
	"testing"
	"time"
)

func testPolicy() (*Policy, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := NewPolicy(NewMemoryStore(), WithClock(func() time.Time { return now }))
	return p, &now
}

func TestAllowFreshKey(t *testing.T) {
	p, _ := testPolicy()

	v := p.Allow("user-1")
	if !v.Allowed {
		t.Fatal("fresh key should be allowed")
	}
	if v.Remaining != DefaultHourlyCap {
		t.Fatalf("expected %d remaining, got %d", DefaultHourlyCap, v.Remaining)
	}
}

func TestCooldownBlocksThenExpires(t *testing.T) {
	p, now := testPolicy()

	p.Record("user-1")

	v := p.Allow("user-1")
	if v.Allowed {
		t.Fatal("expected cooldown to block immediately after a submission")
	}
	if v.RetryAfter <= 0 || v.RetryAfter > DefaultCooldown {
		t.Fatalf("unexpected retry-after: %v", v.RetryAfter)
	}

	*now = now.Add(15 * time.Second)
	if v := p.Allow("user-1"); v.Allowed {
		t.Fatal("expected cooldown to still block mid-window")
	}

	*now = now.Add(16 * time.Second)
	if v := p.Allow("user-1"); !v.Allowed {
		t.Fatalf("expected cooldown to expire, got retry-after %v", v.RetryAfter)
	}
}

func TestHourlyCap(t *testing.T) {
	p, now := testPolicy()

	for i := 0; i < DefaultHourlyCap; i++ {
		if v := p.Allow("user-1"); !v.Allowed {
			t.Fatalf("submission %d should be allowed", i+1)
		}
		p.Record("user-1")
		*now = now.Add(DefaultCooldown + time.Second)
	}

	v := p.Allow("user-1")
	if v.Allowed {
		t.Fatal("11th submission within the hour should be blocked")
	}
	if v.RetryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", v.RetryAfter)
	}

	// Other keys are unaffected.
	if v := p.Allow("user-2"); !v.Allowed {
		t.Fatal("cap must be per key")
	}
}

func TestHourlyWindowPrunes(t *testing.T) {
	p, now := testPolicy()

	for i := 0; i < DefaultHourlyCap; i++ {
		p.Record("user-1")
		*now = now.Add(time.Minute)
	}
	if v := p.Allow("user-1"); v.Allowed {
		t.Fatal("expected cap to block after ten submissions")
	}

	// An hour after the first submission the oldest entry falls out of the
	// window and one slot frees up.
	*now = now.Add(50*time.Minute + time.Second)
	v := p.Allow("user-1")
	if !v.Allowed {
		t.Fatalf("expected pruning to free a slot, got retry-after %v", v.RetryAfter)
	}
	if v.Remaining != 1 {
		t.Fatalf("expected exactly one slot, got %d", v.Remaining)
	}
}

func TestCorruptUsageDataIsIgnored(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := NewPolicy(store, WithClock(func() time.Time { return now }))

	store.Set("mood_usage:user-1", "not json")
	store.Set("mood_cooldown:user-1", "not a number")

	if v := p.Allow("user-1"); !v.Allowed {
		t.Fatal("corrupt state should not lock a user out")
	}
}

func TestCustomLimits(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := NewPolicy(NewMemoryStore(),
		WithClock(func() time.Time { return now }),
		WithCooldown(5*time.Second),
		WithHourlyCap(2),
	)

	p.Record("k")
	now = now.Add(6 * time.Second)
	if v := p.Allow("k"); !v.Allowed {
		t.Fatal("custom cooldown should have expired")
	}
	p.Record("k")
	now = now.Add(6 * time.Second)
	if v := p.Allow("k"); v.Allowed {
		t.Fatal("custom hourly cap of 2 should block the third submission")
	}
}
