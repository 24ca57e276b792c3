// internal/coordinator/run_test.go
package coordinator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldbus-io/modbus-coordinator/internal/register"
)

// gatedTransport holds every read open until the test releases it, so a
// cycle can be kept in flight deterministically.
type gatedTransport struct {
	gate  chan struct{}
	calls atomic.Int32
}

func (g *gatedTransport) ReadRegisters(ctx context.Context, bank register.Bank, start, count uint16) ([]uint16, error) {
	g.calls.Add(1)
	<-g.gate
	return make([]uint16, count), nil
}

func (g *gatedTransport) WriteRegisters(ctx context.Context, start uint16, words []uint16) error {
	return nil
}

func newGatedCoordinator(t *testing.T) (*Coordinator, *gatedTransport) {
	t.Helper()
	tr := &gatedTransport{gate: make(chan struct{})}
	cfg := testConfig()
	cfg.TransactionTimeout = 10 * time.Second
	c, err := New(cfg, tr)
	require.NoError(t, err)
	require.NoError(t, c.Attach("a", []register.Register{register.U16(register.Input, 0)}))
	return c, tr
}

func TestRun_RefreshDuringCycleCoalescesToOneFollowup(t *testing.T) {
	c, tr := newGatedCoordinator(t)
	sub := c.Subscribe("a")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	c.RequestRefresh()
	require.Eventually(t, func() bool { return tr.calls.Load() == 1 },
		time.Second, time.Millisecond, "first cycle in flight")

	// Several refresh requests land while the cycle is executing.
	c.RequestRefresh()
	c.RequestRefresh()
	c.RequestRefresh()

	tr.gate <- struct{}{}
	<-sub

	// They collapse into exactly one follow-up cycle.
	require.Eventually(t, func() bool { return tr.calls.Load() == 2 },
		time.Second, time.Millisecond, "one follow-up cycle")
	tr.gate <- struct{}{}
	<-sub

	select {
	case <-sub:
		t.Fatal("no further cycle may be queued")
	case <-time.After(50 * time.Millisecond):
	}
	assert.EqualValues(t, 2, tr.calls.Load())
}

func TestRun_TeardownLetsInFlightTransactionFinish(t *testing.T) {
	c, tr := newGatedCoordinator(t)
	sub := c.Subscribe("a")

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)

	c.RequestRefresh()
	require.Eventually(t, func() bool { return tr.calls.Load() == 1 },
		time.Second, time.Millisecond)

	// Teardown while the transaction is in flight.
	cancel()
	tr.gate <- struct{}{} // transaction completes, not aborted

	// The cancelled cycle is never published and nothing new is scheduled.
	select {
	case <-sub:
		t.Fatal("cancelled cycle must not publish")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Nil(t, c.Current())
	assert.EqualValues(t, 1, tr.calls.Load())
}
