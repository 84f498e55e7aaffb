package budget

import (
	"context"
	"testing"
	"time"

	consts "github.com/khanhnv2901/webaudit/internal/shared/constants"
)

func TestNewAppliesDefaultsWhenZero(t *testing.T) {
	c := New(context.Background(), 0, 0)
	defer c.Close()
	if c.OverallBudget() <= 0 {
		t.Fatal("expected default overall budget to be applied")
	}
	if c.QuotaRemaining() <= 0 {
		t.Fatal("expected default sub-request quota to be applied")
	}
}

func TestWithinClampsDesiredAboveTimeLeft(t *testing.T) {
	c := New(context.Background(), 5*time.Second, 10)
	defer c.Close()

	got := c.Within(30 * time.Second)
	if got >= 30*time.Second {
		t.Fatalf("expected a desired timeout above the overall budget to be clamped down, got %v", got)
	}
}

func TestWithinFloorsToMinimumOnceBudgetNearlyExhausted(t *testing.T) {
	c := New(context.Background(), 10*time.Millisecond, 10)
	defer c.Close()
	time.Sleep(20 * time.Millisecond)

	got := c.Within(5 * time.Second)
	if got != consts.MinProbeTimeout {
		t.Fatalf("expected the timeout to be floored to %v once budget is exhausted, got %v", consts.MinProbeTimeout, got)
	}
}

func TestWithinNeverBelowMinimum(t *testing.T) {
	c := New(context.Background(), 5*time.Second, 10)
	defer c.Close()

	got := c.Within(1 * time.Nanosecond)
	if got < consts.MinProbeTimeout {
		t.Fatalf("expected a timeout no lower than %v, got %v", consts.MinProbeTimeout, got)
	}
}

func TestSpendDecrementsAndRefuses(t *testing.T) {
	c := New(context.Background(), 5*time.Second, 2)
	defer c.Close()

	if !c.Spend(1) {
		t.Fatal("expected first spend of 1 to succeed")
	}
	if c.QuotaRemaining() != 1 {
		t.Fatalf("expected 1 remaining, got %d", c.QuotaRemaining())
	}
	if !c.Spend(1) {
		t.Fatal("expected second spend of 1 to succeed")
	}
	if c.Spend(1) {
		t.Fatal("expected spend to fail once quota is exhausted")
	}
}

func TestContextCancelledAfterOverallBudget(t *testing.T) {
	c := New(context.Background(), 20*time.Millisecond, 5)
	defer c.Close()

	select {
	case <-c.Context().Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected context to be cancelled after overall budget elapsed")
	}
}
