package registers

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ByteOrder selects how multi-byte register values are laid out on the wire.
type ByteOrder int

const (
	// NativeEndian transmits values in the host's in-memory layout.
	NativeEndian ByteOrder = iota
	BigEndian
	LittleEndian
)

// hostOrder is what NativeEndian resolves to on this machine.
var hostOrder = func() ByteOrder {
	if binary.NativeEndian.Uint16([]byte{0x01, 0x00}) == 0x0001 {
		return LittleEndian
	}
	return BigEndian
}()

func (o ByteOrder) String() string {
	switch o {
	case BigEndian:
		return "big"
	case LittleEndian:
		return "little"
	default:
		return "native"
	}
}

// ParseByteOrder accepts "native", "big", "little" and their -endian forms.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "-endian") {
	case "", "native":
		return NativeEndian, nil
	case "big", "be":
		return BigEndian, nil
	case "little", "le":
		return LittleEndian, nil
	}
	return NativeEndian, fmt.Errorf("unknown byte order %q", s)
}

func (o ByteOrder) resolve() ByteOrder {
	if o == NativeEndian {
		return hostOrder
	}
	return o
}

// put encodes the low len(buf) bytes of v into buf.
func (o ByteOrder) put(buf []byte, v uint64) {
	n := len(buf)
	if o.resolve() == BigEndian {
		for i := 0; i < n; i++ {
			buf[n-1-i] = byte(v >> (8 * i))
		}
		return
	}
	for i := 0; i < n; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

func (o ByteOrder) get(buf []byte) uint64 {
	var v uint64
	n := len(buf)
	if o.resolve() == BigEndian {
		for i := 0; i < n; i++ {
			v |= uint64(buf[n-1-i]) << (8 * i)
		}
		return v
	}
	for i := 0; i < n; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return v
}
