package cache

import (
	"context"
	"strings"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(0)

	if !m.Set(ctx, "k", []byte("v")) {
		t.Fatal("set failed")
	}
	got, ok := m.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Errorf("expected v, got %q (ok=%v)", got, ok)
	}
}

func TestMemoryMiss(t *testing.T) {
	m := NewMemoryStore(0)
	if _, ok := m.Get(context.Background(), "nope"); ok {
		t.Error("expected miss")
	}
}

func TestMemoryReplace(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(0)

	m.Set(ctx, "k", []byte("v1"))
	m.Set(ctx, "k", []byte("v2"))

	got, _ := m.Get(ctx, "k")
	if string(got) != "v2" {
		t.Errorf("expected v2, got %q", got)
	}
}

func TestMemoryLRUEviction(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(100)

	val := []byte(strings.Repeat("x", 40))
	m.Set(ctx, "a", val)
	m.Set(ctx, "b", val)
	m.Get(ctx, "a")
	m.Set(ctx, "c", val)

	if _, ok := m.Get(ctx, "b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := m.Get(ctx, "a"); !ok {
		t.Error("a should survive")
	}
	if _, ok := m.Get(ctx, "c"); !ok {
		t.Error("c should survive")
	}
}
