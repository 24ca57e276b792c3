// internal/coordinator/executor.go
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fieldbus-io/modbus-coordinator/internal/cluster"
	"github.com/fieldbus-io/modbus-coordinator/internal/register"
)

// executeBatches runs every batch of one cycle and collects the result.
// Batches never fail the cycle: a batch that exhausts its retries marks
// its own members Unavailable and the rest of the cycle proceeds.
//
// MaxInFlight bounds concurrency. The default of 1 gives the strictly
// sequential execution a single Modbus link requires; transports that
// multiplex independent links may allow more.
func (c *Coordinator) executeBatches(ctx context.Context, batches []cluster.Batch) (*Result, int) {
	res := &Result{
		at:      time.Now(),
		entries: make(map[register.Key]resultEntry),
	}

	var mu sync.Mutex
	var failed int

	g := new(errgroup.Group)
	g.SetLimit(c.cfg.MaxInFlight)

	for _, b := range batches {
		b := b
		g.Go(func() error {
			words, err := c.readBatch(ctx, b)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				for _, m := range b.Members {
					res.entries[m.Key()] = resultEntry{reg: m, state: Unavailable}
				}
				return nil
			}
			decodeBatch(res, b, words)
			return nil
		})
	}
	g.Wait()

	return res, failed
}

// readBatch performs one read transaction with bounded retries. Each
// attempt runs under its own timeout, detached from cycle cancellation so
// an already-issued transaction finishes during teardown; cancellation is
// checked between attempts only.
func (c *Coordinator) readBatch(ctx context.Context, b cluster.Batch) ([]uint16, error) {
	backoff := c.cfg.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.TransactionTimeout)
		words, err := c.transport.ReadRegisters(attemptCtx, b.Bank, b.Start, b.Words)
		cancel()

		if err == nil && len(words) != int(b.Words) {
			err = &TransportError{
				Kind: KindProtocol,
				Err:  fmt.Errorf("short read: got %d words, want %d", len(words), b.Words),
			}
		}
		if err == nil {
			return words, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// decodeBatch slices the batch's raw buffer per member register. Decode
// functions are pure and total, so there is no per-register failure mode
// here; only whole transactions fail.
func decodeBatch(res *Result, b cluster.Batch, words []uint16) {
	for _, m := range b.Members {
		off := m.Address - b.Start
		res.entries[m.Key()] = resultEntry{
			reg:   m,
			words: words[off : off+m.Words],
			state: Ok,
		}
	}
}
