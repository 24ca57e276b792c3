// internal/coordinator/stats.go
package coordinator

import "time"

// Stats is a read-only snapshot of coordinator activity.
type Stats struct {
	CyclesRun         uint64
	LastCycleAt       time.Time
	LastCycleDuration time.Duration
	LastBatchCount    int
	LastFailedBatches int
}

// Stats returns a copy of the current counters.
func (c *Coordinator) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}
