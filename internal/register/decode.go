// internal/register/decode.go
package register

import "math"

// Typed constructors. Word order is big-endian: the high word is at the
// lower address, matching the device's on-wire register layout.

// U16 is an unsigned 16-bit register.
func U16(bank Bank, address uint16) Register {
	return Register{Bank: bank, Address: address, Words: 1, Decode: decodeU16}
}

// S16 is a signed 16-bit register.
func S16(bank Bank, address uint16) Register {
	return Register{Bank: bank, Address: address, Words: 1, Decode: decodeS16}
}

// U32 is an unsigned 32-bit register spanning two words.
func U32(bank Bank, address uint16) Register {
	return Register{Bank: bank, Address: address, Words: 2, Decode: decodeU32}
}

// S32 is a signed 32-bit register spanning two words.
func S32(bank Bank, address uint16) Register {
	return Register{Bank: bank, Address: address, Words: 2, Decode: decodeS32}
}

// F32 is a 32-bit IEEE float spanning two words.
func F32(bank Bank, address uint16) Register {
	return Register{Bank: bank, Address: address, Words: 2, Decode: decodeF32}
}

// F64 is a 64-bit IEEE float spanning four words.
func F64(bank Bank, address uint16) Register {
	return Register{Bank: bank, Address: address, Words: 4, Decode: decodeF64}
}

func decodeU16(words []uint16) Tuple {
	return Tuple{words[0]}
}

func decodeS16(words []uint16) Tuple {
	return Tuple{int16(words[0])}
}

func decodeU32(words []uint16) Tuple {
	return Tuple{u32(words)}
}

func decodeS32(words []uint16) Tuple {
	return Tuple{int32(u32(words))}
}

func decodeF32(words []uint16) Tuple {
	return Tuple{math.Float32frombits(u32(words))}
}

func decodeF64(words []uint16) Tuple {
	return Tuple{math.Float64frombits(u64(words))}
}

func u32(words []uint16) uint32 {
	return uint32(words[0])<<16 | uint32(words[1])
}

func u64(words []uint16) uint64 {
	return uint64(words[0])<<48 | uint64(words[1])<<32 |
		uint64(words[2])<<16 | uint64(words[3])
}
