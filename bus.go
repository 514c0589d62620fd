package registers

import (
	"context"
)

// Bus hands out exclusive sessions bound to a single device address.
// Acquire blocks until no other session is open on the bus or ctx is done.
type Bus interface {
	Acquire(ctx context.Context, address uint16) (Session, error)
}

// Session is an exclusive hold on the bus for one transaction. It MUST be
// released, after which it cannot be reused.
type Session interface {
	Write(ctx context.Context, buffer []byte) error
	Read(ctx context.Context, buffer []byte) error
	Release(ctx context.Context) error
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a bus without session semantics where every call carries the
// target address. See NewAddressableBus.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}
