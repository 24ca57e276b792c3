// internal/coordinator/coordinator.go
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fieldbus-io/modbus-coordinator/internal/cluster"
	"github.com/fieldbus-io/modbus-coordinator/internal/register"
)

// ErrReadOnly is returned by Write for registers in the input bank.
var ErrReadOnly = errors.New("coordinator: register is read-only")

// Config is the runtime configuration of one coordinator instance.
type Config struct {
	Interval            time.Duration
	MaxTransactionWords uint16
	MaxGap              uint16
	MaxRetries          int
	RetryBackoff        time.Duration
	TransactionTimeout  time.Duration
	MaxInFlight         int
}

// Coordinator polls one device link on behalf of many consumers. It
// clusters their subscribed registers into bounded contiguous batches,
// executes them on a fixed interval or on demand, and publishes one
// atomic Result per cycle.
//
// One coordinator per managed connection; construct with New, drive with
// Run, tear down by cancelling the context.
type Coordinator struct {
	cfg       Config
	transport Transport

	registry *registry
	refresh  chan struct{}

	// batches is owned by the poll loop; rebuilt only at cycle start.
	batches []cluster.Batch

	cycleMu sync.Mutex // at most one cycle builds or executes at a time
	result  atomic.Pointer[Result]

	statsMu sync.Mutex
	stats   Stats

	subMu sync.Mutex
	subs  map[string]chan *Result
}

// New validates cfg and creates a stopped coordinator.
func New(cfg Config, transport Transport) (*Coordinator, error) {
	if transport == nil {
		return nil, errors.New("coordinator: transport required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("coordinator: interval must be > 0")
	}
	if cfg.MaxTransactionWords == 0 || cfg.MaxTransactionWords > 125 {
		return nil, fmt.Errorf("coordinator: max transaction words must be in 1..125, got %d", cfg.MaxTransactionWords)
	}
	if cfg.MaxRetries < 0 {
		return nil, errors.New("coordinator: max retries must be >= 0")
	}
	if cfg.TransactionTimeout <= 0 {
		return nil, errors.New("coordinator: transaction timeout must be > 0")
	}
	if cfg.MaxInFlight < 1 {
		return nil, errors.New("coordinator: max in-flight must be >= 1")
	}
	return &Coordinator{
		cfg:       cfg,
		transport: transport,
		registry:  newRegistry(),
		refresh:   make(chan struct{}, 1),
		subs:      make(map[string]chan *Result),
	}, nil
}

// Attach declares the register set a consumer needs, replacing any
// previous set for the same id. Safe to call mid-cycle: the batch list is
// rebuilt at the next cycle boundary. Rejects registers wider than the
// transaction ceiling; the registration is then not applied.
func (c *Coordinator) Attach(consumerID string, regs []register.Register) error {
	return c.registry.attach(consumerID, regs, c.cfg.MaxTransactionWords)
}

// Detach removes a consumer. Unknown ids are a no-op.
func (c *Coordinator) Detach(consumerID string) {
	c.registry.detach(consumerID)
}

// Subscribe returns a stream delivering each published Result once. The
// channel is buffered; a subscriber that falls behind skips to the latest
// cycle rather than blocking the poll loop.
func (c *Coordinator) Subscribe(consumerID string) <-chan *Result {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if ch, ok := c.subs[consumerID]; ok {
		return ch
	}
	ch := make(chan *Result, 1)
	c.subs[consumerID] = ch
	return ch
}

// Unsubscribe closes the consumer's stream.
func (c *Coordinator) Unsubscribe(consumerID string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if ch, ok := c.subs[consumerID]; ok {
		delete(c.subs, consumerID)
		close(ch)
	}
}

// Value reports reg's outcome in the last published cycle, decoded
// through reg's own decode function.
func (c *Coordinator) Value(reg register.Register) (register.Tuple, State) {
	return c.result.Load().Value(reg)
}

// Current returns the last published cycle result, or nil before the
// first completed cycle.
func (c *Coordinator) Current() *Result {
	return c.result.Load()
}

// RequestRefresh asks for one extra cycle as soon as possible.
// Best-effort: requests arriving while a cycle runs coalesce into a
// single follow-up cycle.
func (c *Coordinator) RequestRefresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// Write writes raw words to a read-write register and requests a refresh
// so consumers observe the new value promptly. The word count must match
// the register width.
func (c *Coordinator) Write(ctx context.Context, reg register.Register, words []uint16) error {
	if reg.Bank != register.Holding {
		return ErrReadOnly
	}
	if len(words) != int(reg.Words) {
		return fmt.Errorf("coordinator: write width mismatch: got %d words, register %s", len(words), reg)
	}
	wctx, cancel := context.WithTimeout(ctx, c.cfg.TransactionTimeout)
	defer cancel()
	if err := c.transport.WriteRegisters(wctx, reg.Address, words); err != nil {
		return err
	}
	c.RequestRefresh()
	return nil
}

// Run drives the poll loop until ctx is cancelled: one cycle per interval
// tick or refresh request, never overlapping. A tick and a refresh that
// both arrive while a cycle executes collapse into one follow-up cycle.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-c.refresh:
		}

		// Coalesce triggers that piled up during the previous cycle.
		select {
		case <-ticker.C:
		default:
		}
		select {
		case <-c.refresh:
		default:
		}

		c.PollOnce(ctx)
	}
}

// PollOnce executes exactly one cycle: rebuild batches if the registry
// changed, execute them, publish the result and notify subscribers.
// Serialized against Run and concurrent callers. A cycle cancelled
// mid-flight is not published.
func (c *Coordinator) PollOnce(ctx context.Context) {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	if regs, changed := c.registry.snapshot(); changed {
		c.batches = cluster.Build(regs, cluster.Limits{
			MaxTransactionWords: c.cfg.MaxTransactionWords,
			MaxGap:              c.cfg.MaxGap,
		})
	}

	started := time.Now()
	res, failed := c.executeBatches(ctx, c.batches)
	if ctx.Err() != nil {
		return
	}

	c.result.Store(res)

	c.statsMu.Lock()
	c.stats.CyclesRun++
	c.stats.LastCycleAt = res.at
	c.stats.LastCycleDuration = time.Since(started)
	c.stats.LastBatchCount = len(c.batches)
	c.stats.LastFailedBatches = failed
	c.statsMu.Unlock()

	c.notify(res)
}

// notify fans the new result out to all subscribers, once per cycle.
// A full buffer means the subscriber still holds an older cycle: it is
// replaced so the subscriber always wakes to the latest.
func (c *Coordinator) notify(res *Result) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- res:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- res:
			default:
			}
		}
	}
}
