// internal/coordinator/transport.go
package coordinator

import (
	"context"
	"fmt"

	"github.com/fieldbus-io/modbus-coordinator/internal/register"
)

// Transport performs single read/write transactions on one device link.
// The coordinator owns retries and scheduling; a Transport attempt is one
// round trip, bounded by the context deadline.
type Transport interface {
	ReadRegisters(ctx context.Context, bank register.Bank, start, count uint16) ([]uint16, error)
	WriteRegisters(ctx context.Context, start uint16, words []uint16) error
}

// ErrorKind classifies transport failures.
type ErrorKind int

const (
	KindTimeout ErrorKind = iota
	KindProtocol
	KindConnectionLost
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindProtocol:
		return "protocol"
	case KindConnectionLost:
		return "connection lost"
	default:
		return "unknown"
	}
}

// TransportError wraps a driver error with its classification. All kinds
// are fatal for the failing batch after retries, never for the cycle.
type TransportError struct {
	Kind ErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
