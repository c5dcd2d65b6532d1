package metrics

import (
	"sync"
	"sync/atomic"
)

// automationStats holds counters for automation engine runs.
// Kept simple/thread-safe for use from the engine and exposition.
type automationStats struct {
	runs      uint64
	matched   uint64
	mu        sync.Mutex
	byOutcome map[string]uint64
}

var auto automationStats

// IncAutomationRun counts one engine invocation.
func IncAutomationRun() {
	atomic.AddUint64(&auto.runs, 1)
}

// IncAutomationOutcome counts a rule firing with the given outcome.
func IncAutomationOutcome(outcome string) {
	atomic.AddUint64(&auto.matched, 1)
	auto.mu.Lock()
	if auto.byOutcome == nil {
		auto.byOutcome = make(map[string]uint64)
	}
	auto.byOutcome[outcome]++
	auto.mu.Unlock()
}

// AutomationSnapshot returns a copy of the current counters.
func AutomationSnapshot() (runs, matched uint64, byOutcome map[string]uint64) {
	runs = atomic.LoadUint64(&auto.runs)
	matched = atomic.LoadUint64(&auto.matched)
	auto.mu.Lock()
	defer auto.mu.Unlock()
	byOutcome = make(map[string]uint64, len(auto.byOutcome))
	for k, v := range auto.byOutcome {
		byOutcome[k] = v
	}
	return runs, matched, byOutcome
}

// rateLimitStats holds counters for rate limit drops (HTTP 429).
type rateLimitStats struct {
	total    uint64
	mu       sync.Mutex
	byPrefix map[string]uint64
}

var rl rateLimitStats

// IncRateLimitDrop increments drop counters for the given route prefix.
// Use prefix "global" for global limiter rejections.
func IncRateLimitDrop(prefix string) {
	if prefix == "" {
		prefix = "global"
	}
	atomic.AddUint64(&rl.total, 1)
	rl.mu.Lock()
	if rl.byPrefix == nil {
		rl.byPrefix = make(map[string]uint64)
	}
	rl.byPrefix[prefix]++
	rl.mu.Unlock()
}

// RateLimitSnapshot returns a copy of the current counters.
func RateLimitSnapshot() (total uint64, by map[string]uint64) {
	total = atomic.LoadUint64(&rl.total)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	by = make(map[string]uint64, len(rl.byPrefix))
	for k, v := range rl.byPrefix {
		by[k] = v
	}
	return total, by
}
