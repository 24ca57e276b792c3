// internal/coordinator/modbus/client.go
package modbus

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/fieldbus-io/modbus-coordinator/internal/coordinator"
	"github.com/fieldbus-io/modbus-coordinator/internal/register"
)

// Client implements coordinator.Transport over one Modbus TCP connection.
// Requests are serialized: the handler carries per-call state (timeout)
// and a single TCP link cannot interleave transactions.
type Client struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
	timeout time.Duration
}

type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
}

// New creates a connected client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus client: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
		timeout: cfg.Timeout,
	}, nil
}

// Close closes the TCP connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// ReadRegisters reads count words from the given bank. The context
// deadline, when present, bounds the round trip.
func (c *Client) ReadRegisters(ctx context.Context, bank register.Bank, start, count uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &coordinator.TransportError{Kind: coordinator.KindTimeout, Err: err}
	}
	c.applyDeadline(ctx)

	var raw []byte
	var err error
	switch bank {
	case register.Input:
		raw, err = c.client.ReadInputRegisters(start, count)
	case register.Holding:
		raw, err = c.client.ReadHoldingRegisters(start, count)
	default:
		return nil, &coordinator.TransportError{
			Kind: coordinator.KindProtocol,
			Err:  errors.New("unknown register bank"),
		}
	}
	if err != nil {
		return nil, classify(err)
	}
	if len(raw) != int(count)*2 {
		return nil, &coordinator.TransportError{
			Kind: coordinator.KindProtocol,
			Err:  errors.New("response length mismatch"),
		}
	}
	return unpackRegisters(raw), nil
}

// WriteRegisters writes words to the holding bank.
func (c *Client) WriteRegisters(ctx context.Context, start uint16, words []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &coordinator.TransportError{Kind: coordinator.KindTimeout, Err: err}
	}
	c.applyDeadline(ctx)

	if _, err := c.client.WriteMultipleRegisters(start, uint16(len(words)), packRegisters(words)); err != nil {
		return classify(err)
	}
	return nil
}

// applyDeadline maps the context deadline onto the handler's per-request
// timeout. Caller holds mu.
func (c *Client) applyDeadline(ctx context.Context) {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			c.handler.Timeout = d
			return
		}
	}
	c.handler.Timeout = c.timeout
}

// classify maps driver errors onto the coordinator's error taxonomy.
func classify(err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &coordinator.TransportError{Kind: coordinator.KindTimeout, Err: err}
	}

	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return &coordinator.TransportError{Kind: coordinator.KindProtocol, Err: err}
	}

	var oe *net.OpError
	if errors.As(err, &oe) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &coordinator.TransportError{Kind: coordinator.KindConnectionLost, Err: err}
	}

	return &coordinator.TransportError{Kind: coordinator.KindProtocol, Err: err}
}

// ---- helpers (pure geometry) ----

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}

func packRegisters(words []uint16) []byte {
	out := make([]byte, 2*len(words))
	for i, w := range words {
		out[2*i] = byte(w >> 8)
		out[2*i+1] = byte(w)
	}
	return out
}
