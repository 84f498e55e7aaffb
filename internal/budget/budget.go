// Package budget owns the two limits an audit runs under: a wall-clock
// deadline for the whole request and a counter of discretionary outbound
// sub-requests.
package budget

import (
	"context"
	"sync/atomic"
	"time"

	consts "github.com/khanhnv2901/webaudit/internal/shared/constants"
)

// Timeout classes, floored through Within().
const (
	Page  = consts.PageTimeout
	Asset = consts.AssetTimeout
	Small = consts.SmallTimeout
	PSI   = consts.PSITimeout
)

// Controller is created per audit and owned exclusively by the orchestrator
// for the duration of that audit.
type Controller struct {
	startedAt time.Time
	overall   time.Duration
	ctx       context.Context
	cancel    context.CancelFunc

	quota     int64
	remaining int64
}

// New starts a budget context with overallBudget wall-clock time and
// subRequestQuota discretionary probes, deriving a cancellation context
// from parent that fires when the overall budget elapses.
func New(parent context.Context, overallBudget time.Duration, subRequestQuota int) *Controller {
	if overallBudget <= 0 {
		overallBudget = consts.DefaultOverallBudget
	}
	if subRequestQuota <= 0 {
		subRequestQuota = consts.DefaultSubRequestQuota
	}
	ctx, cancel := context.WithTimeout(parent, overallBudget)
	return &Controller{
		startedAt: time.Now(),
		overall:   overallBudget,
		ctx:       ctx,
		cancel:    cancel,
		quota:     int64(subRequestQuota),
		remaining: int64(subRequestQuota),
	}
}

// Context returns the cancellation context that fires when the overall
// budget elapses; every probe should derive its own timeout from this.
func (c *Controller) Context() context.Context {
	return c.ctx
}

// Close releases the underlying deadline context. Callers must defer this
// once the audit returns.
func (c *Controller) Close() {
	c.cancel()
}

// TimeLeft returns how much of the overall budget remains, which may be
// negative once the deadline has passed.
func (c *Controller) TimeLeft() time.Duration {
	return c.overall - time.Since(c.startedAt)
}

// Elapsed returns wall-clock time spent so far in the audit.
func (c *Controller) Elapsed() time.Duration {
	return time.Since(c.startedAt)
}

// OverallBudget returns the configured wall-clock budget.
func (c *Controller) OverallBudget() time.Duration {
	return c.overall
}

// Within clamps a desired per-probe timeout to [MinProbeTimeout,
// TimeLeft()], so no individual probe can outlive the overall deadline.
func (c *Controller) Within(desired time.Duration) time.Duration {
	left := c.TimeLeft()
	if left < consts.MinProbeTimeout {
		return consts.MinProbeTimeout
	}
	if desired > left {
		return left
	}
	if desired < consts.MinProbeTimeout {
		return consts.MinProbeTimeout
	}
	return desired
}

// Spend attempts to decrement the sub-request quota by n and reports
// whether the quota allowed it. It is safe to call concurrently from the
// fan-out probe group.
func (c *Controller) Spend(n int) bool {
	if n <= 0 {
		n = 1
	}
	for {
		cur := atomic.LoadInt64(&c.remaining)
		if cur < int64(n) {
			return false
		}
		if atomic.CompareAndSwapInt64(&c.remaining, cur, cur-int64(n)) {
			return true
		}
	}
}

// QuotaRemaining reports how many discretionary probes are still allowed.
func (c *Controller) QuotaRemaining() int {
	return int(atomic.LoadInt64(&c.remaining))
}
