package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemorySetGet(t *testing.T) {
	m := NewMemory("stormbot", true)
	ctx := context.Background()

	if err := m.Set(ctx, "greeting", "hello", 0); err != nil {
		t.Fatal(err)
	}
	value, ok, err := m.Get(ctx, "greeting")
	if err != nil || !ok || value != "hello" {
		t.Fatalf("Get = %q, %v, %v", value, ok, err)
	}

	if _, ok, _ := m.Get(ctx, "absent"); ok {
		t.Fatal("absent key reported present")
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory("stormbot", true)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if err := m.Set(ctx, "cooldown", "armed", 10*time.Second); err != nil {
		t.Fatal(err)
	}

	now = now.Add(9 * time.Second)
	if _, ok, _ := m.Get(ctx, "cooldown"); !ok {
		t.Fatal("entry expired early")
	}

	now = now.Add(2 * time.Second)
	if _, ok, _ := m.Get(ctx, "cooldown"); ok {
		t.Fatal("entry survived past its TTL")
	}
	if len(m.entries) != 0 {
		t.Error("expired entry not evicted on read")
	}
}

func TestMemoryZeroExpiryNeverExpires(t *testing.T) {
	m := NewMemory("", true)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if err := m.Set(ctx, "pinned", "forever", 0); err != nil {
		t.Fatal(err)
	}
	now = now.Add(240 * time.Hour)
	if _, ok, _ := m.Get(ctx, "pinned"); !ok {
		t.Fatal("unexpiring entry vanished")
	}
}

func TestMemoryPrefixIsolation(t *testing.T) {
	a := NewMemory("bot-a", true)
	b := NewMemory("bot-b", true)
	b.entries = a.entries // shared backing map
	ctx := context.Background()

	if err := a.Set(ctx, "key", "from-a", 0); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := b.Get(ctx, "key"); ok {
		t.Fatal("prefixes did not isolate instances")
	}
}

func TestMemoryOverwrite(t *testing.T) {
	m := NewMemory("stormbot", false)
	ctx := context.Background()

	if m.Primary() {
		t.Error("non-primary cache reported primary")
	}
	_ = m.Set(ctx, "key", "one", 0)
	_ = m.Set(ctx, "key", "two", 0)
	value, _, _ := m.Get(ctx, "key")
	if value != "two" {
		t.Fatalf("value = %q, want overwrite to win", value)
	}
}
