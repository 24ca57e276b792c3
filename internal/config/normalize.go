// internal/config/normalize.go
package config

import "github.com/google/uuid"

// Defaults applied by Normalize.
const (
	DefaultIntervalMs     = 5000
	DefaultTimeoutMs      = 1000
	DefaultMaxRetries     = 2
	DefaultRetryBackoffMs = 100
	DefaultMaxInFlight    = 1
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	co := &cfg.Coordinator

	if co.Connection.TimeoutMs == 0 {
		co.Connection.TimeoutMs = DefaultTimeoutMs
	}
	if co.Poll.IntervalMs == 0 {
		co.Poll.IntervalMs = DefaultIntervalMs
	}
	if co.Limits.MaxTransactionWords == 0 {
		co.Limits.MaxTransactionWords = MaxTransactionWordsCeiling
	}
	if co.Limits.MaxRetries == nil {
		def := DefaultMaxRetries
		co.Limits.MaxRetries = &def
	}
	if co.Limits.RetryBackoffMs == 0 {
		co.Limits.RetryBackoffMs = DefaultRetryBackoffMs
	}
	if co.Limits.MaxInFlight == 0 {
		co.Limits.MaxInFlight = DefaultMaxInFlight
	}

	// Anonymous consumers get a generated id so attach/detach and
	// subscription streams stay addressable.
	for i := range co.Consumers {
		if co.Consumers[i].ID == "" {
			co.Consumers[i].ID = uuid.NewString()
		}
	}
}
