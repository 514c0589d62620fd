package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/registers"
)

func TestDevice_PointerAutoIncrement(t *testing.T) {
	bus := NewBus()
	dev := bus.Attach(0x40)
	ctx := context.Background()

	s, err := bus.Acquire(ctx, 0x40)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, []byte{0xFE, 0x01, 0x02, 0x03}))
	require.NoError(t, s.Release(ctx))
	// writes wrap around the register file
	assert.Equal(t, []byte{0x01, 0x02}, dev.Get(0xFE, 2))
	assert.Equal(t, []byte{0x03}, dev.Get(0x00, 1))

	s, err = bus.Acquire(ctx, 0x40)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, []byte{0xFF}))
	buf := make([]byte, 2)
	require.NoError(t, s.Read(ctx, buf))
	require.NoError(t, s.Release(ctx))
	assert.Equal(t, []byte{0x02, 0x03}, buf)

	transfers := bus.Transfers()
	require.Len(t, transfers, 2)
	assert.Equal(t, []byte{0xFE, 0x01, 0x02, 0x03}, transfers[0].Written)
	assert.Equal(t, []byte{0xFF}, transfers[1].Written)
	assert.Equal(t, []byte{0x02, 0x03}, transfers[1].Read)
	assert.True(t, transfers[1].Released)
}

func TestDevice_RegisterWidth(t *testing.T) {
	bus := NewBus()
	dev := bus.Attach(0x48, WithRegisterWidth(2))
	dev.Set(0x03, 0x0B, 0xB8)
	ctx := context.Background()

	// a 16-bit write to 0x02 leaves 0x03 alone
	r := registers.New(bus, 0x48, registers.WithByteOrder(registers.BigEndian))
	require.NoError(t, r.Write16(ctx, 0x02, 234))
	assert.Equal(t, []byte{0x00, 0xEA}, dev.Get(0x02, 2))

	v, err := r.Read16(ctx, 0x03)
	require.NoError(t, err)
	assert.Equal(t, uint16(3000), v)

	// reads past a register continue into the next one
	buf := make([]byte, 4)
	require.NoError(t, r.ReadBytes(ctx, 0x02, buf))
	assert.Equal(t, []byte{0x00, 0xEA, 0x0B, 0xB8}, buf)

	// the pointer wraps at the end of the file
	dev.Set(0xFF, 0x01, 0x02, 0x03)
	assert.Equal(t, []byte{0x03}, dev.Get(0x00, 1))
}

func TestBus_Faults(t *testing.T) {
	errFault := errors.New("fault")
	ctx := context.Background()
	tests := []struct {
		name  string
		fault Fault
		step  func(s registers.Session) error
	}{
		{"select", Fault{Select: errFault}, func(s registers.Session) error { return s.Write(ctx, []byte{0x00}) }},
		{"write", Fault{Write: errFault}, func(s registers.Session) error { return s.Write(ctx, []byte{0x00, 0x01}) }},
		{"read", Fault{Read: errFault}, func(s registers.Session) error { return s.Read(ctx, make([]byte, 1)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewBus()
			bus.Attach(0x10).SetFault(tt.fault)
			s, err := bus.Acquire(ctx, 0x10)
			require.NoError(t, err)
			assert.ErrorIs(t, tt.step(s), errFault)
			require.NoError(t, s.Release(ctx))
			assert.ErrorIs(t, s.Release(ctx), registers.ErrSessionReleased)
			assert.Equal(t, 1, bus.Released())
		})
	}
}

func TestBus_NoDevice(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()
	s, err := bus.Acquire(ctx, 0x33)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Write(ctx, []byte{0x00}), ErrNoDevice)
	assert.ErrorIs(t, s.Read(ctx, make([]byte, 1)), ErrNoDevice)
	require.NoError(t, s.Release(ctx))
}

func TestBus_Reset(t *testing.T) {
	bus := NewBus()
	dev := bus.Attach(0x10)
	dev.Set(0x00, 0xAA)
	r := registers.New(bus, 0x10)
	_, err := r.Read8(context.Background(), 0x00)
	require.NoError(t, err)

	bus.Reset()
	assert.Zero(t, bus.Acquired())
	assert.Zero(t, bus.Released())
	assert.Empty(t, bus.Transfers())
	assert.Equal(t, []byte{0xAA}, dev.Get(0x00, 1))
}
