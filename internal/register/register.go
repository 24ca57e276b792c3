// internal/register/register.go
package register

import "fmt"

// Bank selects one of the two register address spaces on a device.
type Bank uint8

const (
	// Input registers are read-only (function code 4).
	Input Bank = iota
	// Holding registers are read-write (function code 3).
	Holding
)

func (b Bank) String() string {
	switch b {
	case Input:
		return "input"
	case Holding:
		return "holding"
	default:
		return fmt.Sprintf("bank(%d)", uint8(b))
	}
}

// Tuple is the decoded value of one register.
type Tuple []any

// DecodeFunc turns raw words into a typed value.
// It must be pure and total over any input of the declared width.
type DecodeFunc func(words []uint16) Tuple

// Register describes one logical polled value: where it lives and how to
// decode it. Immutable after construction.
type Register struct {
	Bank    Bank
	Address uint16
	Words   uint16
	Decode  DecodeFunc
}

// Key is the polling identity of a Register. Two Registers with the same
// Key are the same polled unit even if their decode functions differ.
type Key struct {
	Bank    Bank
	Address uint16
	Words   uint16
}

func (r Register) Key() Key {
	return Key{Bank: r.Bank, Address: r.Address, Words: r.Words}
}

// End returns the first address past the register.
func (r Register) End() uint16 {
	return r.Address + r.Words
}

func (r Register) String() string {
	return fmt.Sprintf("%s@%d/%d", r.Bank, r.Address, r.Words)
}

// New creates a register with an explicit width and decode function.
// Width must be 1, 2 or 4 words.
func New(bank Bank, address uint16, words uint16, decode DecodeFunc) (Register, error) {
	switch words {
	case 1, 2, 4:
	default:
		return Register{}, fmt.Errorf("register: width must be 1, 2 or 4 words, got %d", words)
	}
	return Register{Bank: bank, Address: address, Words: words, Decode: decode}, nil
}
