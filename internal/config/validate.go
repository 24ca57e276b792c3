// internal/config/validate.go
package config

import (
	"fmt"
)

// MaxTransactionWordsCeiling is the Modbus protocol limit on one
// register read.
const MaxTransactionWordsCeiling = 125

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	co := &cfg.Coordinator

	// ------------------------------------------------------------
	// CONNECTION
	// ------------------------------------------------------------

	if co.Connection.Endpoint == "" {
		return fmt.Errorf("connection: endpoint is required")
	}
	if co.Connection.TimeoutMs < 0 {
		return fmt.Errorf("connection: timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// POLL + LIMITS
	// ------------------------------------------------------------

	if co.Poll.IntervalMs < 0 {
		return fmt.Errorf("poll: interval_ms must be >= 0")
	}
	if co.Limits.MaxTransactionWords > MaxTransactionWordsCeiling {
		return fmt.Errorf(
			"limits: max_transaction_words %d exceeds protocol ceiling %d",
			co.Limits.MaxTransactionWords,
			MaxTransactionWordsCeiling,
		)
	}
	if co.Limits.MaxRetries != nil && *co.Limits.MaxRetries < 0 {
		return fmt.Errorf("limits: max_retries must be >= 0")
	}
	if co.Limits.RetryBackoffMs < 0 {
		return fmt.Errorf("limits: retry_backoff_ms must be >= 0")
	}
	if co.Limits.MaxInFlight < 0 {
		return fmt.Errorf("limits: max_in_flight must be >= 0")
	}

	// Effective ceiling before Normalize fills the default.
	maxWords := co.Limits.MaxTransactionWords
	if maxWords == 0 {
		maxWords = MaxTransactionWordsCeiling
	}

	// ------------------------------------------------------------
	// CONSUMERS
	// ------------------------------------------------------------

	seen := make(map[string]bool)

	for i, c := range co.Consumers {
		if c.ID != "" {
			if seen[c.ID] {
				return fmt.Errorf("consumers: duplicate id %q", c.ID)
			}
			seen[c.ID] = true
		}

		if len(c.Registers) == 0 {
			return fmt.Errorf("consumer %d (%q): at least one register required", i, c.ID)
		}

		for _, rc := range c.Registers {
			if _, err := parseBank(rc.Bank); err != nil {
				return fmt.Errorf("consumer %d (%q): %w", i, c.ID, err)
			}
			rt, ok := registerTypes[rc.Type]
			if !ok {
				return fmt.Errorf("consumer %d (%q): unknown register type %q", i, c.ID, rc.Type)
			}
			if rt.words > maxWords {
				return fmt.Errorf(
					"consumer %d (%q): register at %d is %d words wide, exceeds max_transaction_words %d",
					i, c.ID, rc.Address, rt.words, maxWords,
				)
			}
			if int(rc.Address)+int(rt.words) > 0x10000 {
				return fmt.Errorf(
					"consumer %d (%q): register at %d overflows the address space",
					i, c.ID, rc.Address,
				)
			}
		}
	}

	return nil
}
