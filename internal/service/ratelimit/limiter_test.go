package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowWithinCapacity(t *testing.T) {
	l := New()
	for i := 0; i < 5; i++ {
		if !l.Allow("k", 5, 1) {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow("k", 5, 1) {
		t.Fatalf("request over capacity should be denied")
	}
}

func TestAllowSeparateKeys(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 1) {
		t.Fatalf("first key should be allowed")
	}
	if !l.Allow("b", 1, 1) {
		t.Fatalf("second key has its own bucket")
	}
	if l.Allow("a", 1, 1) {
		t.Fatalf("first key exhausted")
	}
}

func TestWaitCancelled(t *testing.T) {
	l := New()
	if err := l.Wait(context.Background(), "k", 1, 1); err != nil {
		t.Fatalf("first wait should pass: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "k", 1, 0.001); err == nil {
		t.Fatalf("expected context error while starved")
	}
}
