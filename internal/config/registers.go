// internal/config/registers.go
package config

import (
	"fmt"

	"github.com/fieldbus-io/modbus-coordinator/internal/register"
)

// registerType maps a declared type name to its width and constructor.
type registerType struct {
	words uint16
	make  func(register.Bank, uint16) register.Register
}

var registerTypes = map[string]registerType{
	"uint16":  {words: 1, make: register.U16},
	"int16":   {words: 1, make: register.S16},
	"uint32":  {words: 2, make: register.U32},
	"int32":   {words: 2, make: register.S32},
	"float32": {words: 2, make: register.F32},
	"float64": {words: 4, make: register.F64},
}

func parseBank(name string) (register.Bank, error) {
	switch name {
	case "input":
		return register.Input, nil
	case "holding":
		return register.Holding, nil
	default:
		return 0, fmt.Errorf("unknown register bank %q", name)
	}
}

// Register builds the typed register a config entry declares.
func (rc RegisterConfig) Register() (register.Register, error) {
	bank, err := parseBank(rc.Bank)
	if err != nil {
		return register.Register{}, err
	}
	rt, ok := registerTypes[rc.Type]
	if !ok {
		return register.Register{}, fmt.Errorf("unknown register type %q", rc.Type)
	}
	return rt.make(bank, rc.Address), nil
}

// Registers builds the consumer's full register set.
func (cc ConsumerConfig) BuildRegisters() ([]register.Register, error) {
	regs := make([]register.Register, 0, len(cc.Registers))
	for _, rc := range cc.Registers {
		r, err := rc.Register()
		if err != nil {
			return nil, fmt.Errorf("consumer %q: %w", cc.ID, err)
		}
		regs = append(regs, r)
	}
	return regs, nil
}
