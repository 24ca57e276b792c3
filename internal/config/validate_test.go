// internal/config/validate_test.go
package config

import "testing"

// helper to build a minimal valid config quickly
func base() *Config {
	return &Config{
		Coordinator: CoordinatorConfig{
			Connection: ConnectionConfig{
				Endpoint: "127.0.0.1:502",
				UnitID:   1,
			},
			Consumers: []ConsumerConfig{
				{
					ID: "meter",
					Registers: []RegisterConfig{
						{Bank: "input", Address: 300, Type: "uint32"},
					},
				},
			},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(base()); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_MissingEndpoint(t *testing.T) {
	cfg := base()
	cfg.Coordinator.Connection.Endpoint = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected endpoint error")
	}
}

func TestValidate_UnknownBank(t *testing.T) {
	cfg := base()
	cfg.Coordinator.Consumers[0].Registers[0].Bank = "coils"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected bank error")
	}
}

func TestValidate_UnknownType(t *testing.T) {
	cfg := base()
	cfg.Coordinator.Consumers[0].Registers[0].Type = "string64"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected type error")
	}
}

func TestValidate_DuplicateConsumerID(t *testing.T) {
	cfg := base()
	cfg.Coordinator.Consumers = append(cfg.Coordinator.Consumers, cfg.Coordinator.Consumers[0])
	if err := Validate(cfg); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestValidate_RegisterWiderThanCeiling(t *testing.T) {
	cfg := base()
	cfg.Coordinator.Limits.MaxTransactionWords = 2
	cfg.Coordinator.Consumers[0].Registers[0].Type = "float64"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected width error")
	}
}

func TestValidate_CeilingAboveProtocolLimit(t *testing.T) {
	cfg := base()
	cfg.Coordinator.Limits.MaxTransactionWords = 126
	if err := Validate(cfg); err == nil {
		t.Fatal("expected ceiling error")
	}
}

func TestValidate_AddressOverflow(t *testing.T) {
	cfg := base()
	cfg.Coordinator.Consumers[0].Registers[0].Address = 65535
	cfg.Coordinator.Consumers[0].Registers[0].Type = "uint32"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestValidate_NegativeRetries(t *testing.T) {
	cfg := base()
	n := -1
	cfg.Coordinator.Limits.MaxRetries = &n
	if err := Validate(cfg); err == nil {
		t.Fatal("expected retries error")
	}
}

func TestNormalize_FillsDefaults(t *testing.T) {
	cfg := base()
	Normalize(cfg)

	co := cfg.Coordinator
	if co.Poll.IntervalMs != DefaultIntervalMs {
		t.Fatalf("interval: got %d", co.Poll.IntervalMs)
	}
	if co.Connection.TimeoutMs != DefaultTimeoutMs {
		t.Fatalf("timeout: got %d", co.Connection.TimeoutMs)
	}
	if co.Limits.MaxTransactionWords != MaxTransactionWordsCeiling {
		t.Fatalf("max words: got %d", co.Limits.MaxTransactionWords)
	}
	if co.Limits.MaxRetries == nil || *co.Limits.MaxRetries != DefaultMaxRetries {
		t.Fatal("retries default not applied")
	}
	if co.Limits.MaxInFlight != DefaultMaxInFlight {
		t.Fatalf("in-flight: got %d", co.Limits.MaxInFlight)
	}
}

func TestNormalize_KeepsExplicitZeroRetries(t *testing.T) {
	cfg := base()
	zero := 0
	cfg.Coordinator.Limits.MaxRetries = &zero
	Normalize(cfg)
	if *cfg.Coordinator.Limits.MaxRetries != 0 {
		t.Fatal("explicit zero retries must survive normalization")
	}
}

func TestNormalize_GeneratesConsumerIDs(t *testing.T) {
	cfg := base()
	cfg.Coordinator.Consumers[0].ID = ""
	Normalize(cfg)
	if cfg.Coordinator.Consumers[0].ID == "" {
		t.Fatal("empty consumer id must be generated")
	}
}

func TestRegisters_BuildsTypedSet(t *testing.T) {
	cc := ConsumerConfig{
		ID: "c",
		Registers: []RegisterConfig{
			{Bank: "input", Address: 10, Type: "uint16"},
			{Bank: "holding", Address: 20, Type: "float32"},
		},
	}
	regs, err := cc.BuildRegisters()
	if err != nil {
		t.Fatalf("Registers() err=%v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("expected 2 registers, got %d", len(regs))
	}
	if regs[1].Words != 2 {
		t.Fatalf("float32 must span 2 words, got %d", regs[1].Words)
	}
	if regs[0].Decode == nil || regs[1].Decode == nil {
		t.Fatal("decode functions must be wired")
	}
}
