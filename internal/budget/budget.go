// Package budget implements the process-wide daily upstream-call quota.
//
// Every refresh attempt in the adaptive cache must acquire one unit here
// before calling upstream. The check-and-increment is the single
// serialization point across all locations, which is what keeps concurrent
// GetMany fan-outs from collectively exceeding the quota.
package budget

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"sentinelle/internal/types"
)

// DailyBudget is the shared mutable call counter. It resets itself at
// midnight (process-local time, which the config loader pins to UTC).
// Construct once per process and inject by handle; never a global.
type DailyBudget struct {
	mu    sync.Mutex
	clock clockwork.Clock
	quota int
	used  int
	day   time.Time // midnight of the day being counted
}

// New creates a DailyBudget with the given quota. The clock is injectable
// for tests; pass clockwork.NewRealClock() in production.
func New(quota int, clock clockwork.Clock) *DailyBudget {
	b := &DailyBudget{
		clock: clock,
		quota: quota,
	}
	b.day = midnight(clock.Now())
	return b
}

// Restore seeds today's used counter from persisted state. Counts restored
// for a previous day are ignored. Intended for startup only.
func (b *DailyBudget) Restore(day time.Time, used int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollDayLocked()
	if !midnight(day).Equal(b.day) || used <= 0 {
		return
	}
	if used > b.quota {
		used = b.quota
	}
	b.used = used
}

// Used returns the number of upstream calls consumed today.
func (b *DailyBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollDayLocked()
	return b.used
}

// TryConsume atomically checks the remaining quota and, if a unit is
// available, consumes it. It returns false when today's quota is exhausted;
// the caller must then degrade to backup data without touching upstream.
func (b *DailyBudget) TryConsume() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollDayLocked()
	if b.used >= b.quota {
		return false
	}
	b.used++
	return true
}

// Remaining returns the number of upstream calls left today.
func (b *DailyBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollDayLocked()
	return b.quota - b.used
}

// Status reports the budget state for the diagnostics endpoint.
func (b *DailyBudget) Status() types.BudgetStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollDayLocked()
	pct := 0.0
	if b.quota > 0 {
		pct = float64(b.used) / float64(b.quota) * 100
	}
	return types.BudgetStatus{
		Date:            b.day.Format("2006-01-02"),
		Quota:           b.quota,
		Used:            b.used,
		Remaining:       b.quota - b.used,
		UsagePercentage: pct,
	}
}

// rollDayLocked resets the counter when the calendar day has changed.
// Callers must hold b.mu.
func (b *DailyBudget) rollDayLocked() {
	today := midnight(b.clock.Now())
	if !today.Equal(b.day) {
		b.day = today
		b.used = 0
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
