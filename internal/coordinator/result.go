// internal/coordinator/result.go
package coordinator

import (
	"time"

	"github.com/fieldbus-io/modbus-coordinator/internal/register"
)

// State is the per-register outcome of the last cycle.
type State int

const (
	// NotYetPolled: the register was not part of any completed cycle.
	NotYetPolled State = iota
	// Ok: the register's batch was read successfully.
	Ok
	// Unavailable: the register's batch failed after retries.
	Unavailable
)

func (s State) String() string {
	switch s {
	case NotYetPolled:
		return "not yet polled"
	case Ok:
		return "ok"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

type resultEntry struct {
	reg   register.Register // first registrant for this key
	words []uint16          // nil when unavailable
	state State
}

// Result is one cycle's published snapshot. It holds an entry for every
// register in the subscription union at the time the cycle's batches were
// built, and is immutable once published.
type Result struct {
	at      time.Time
	entries map[register.Key]resultEntry
}

// At reports when the cycle started.
func (r *Result) At() time.Time {
	if r == nil {
		return time.Time{}
	}
	return r.at
}

// Len reports the number of registers covered by the cycle.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Value decodes the cycle's raw words for reg. Decoding always goes
// through the decode function of the Register the caller holds, so two
// consumers sharing a key each see their own typed view of the same words.
func (r *Result) Value(reg register.Register) (register.Tuple, State) {
	if r == nil {
		return nil, NotYetPolled
	}
	e, ok := r.entries[reg.Key()]
	if !ok {
		return nil, NotYetPolled
	}
	if e.state != Ok {
		return nil, e.state
	}
	decode := reg.Decode
	if decode == nil {
		decode = e.reg.Decode
	}
	if decode == nil {
		return register.Tuple{e.words}, Ok
	}
	return decode(e.words), Ok
}
