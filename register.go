// Package registers provides typed access to the registers of devices on a
// shared two-wire (I²C) bus.
//
// A Register is bound to one device address. Each call opens exactly one
// bus session, selects the register by writing its one-byte address, moves
// the value and releases the session:
//
//	dev := registers.New(bus, 0x40, registers.WithByteOrder(registers.BigEndian))
//	err := dev.Write16(ctx, 0x02, 234)
//	v, err := registers.Read[uint16](ctx, dev, 0x03)
package registers

import (
	"context"
	"errors"

	"github.com/hashicorp/go-multierror"
)

// Unsigned lists the value types a register can be read into.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

type Option func(*Register)

// WithByteOrder sets the wire layout of multi-byte values. The default is
// NativeEndian.
func WithByteOrder(order ByteOrder) Option {
	return func(r *Register) {
		r.order = order
	}
}

// Register accesses the registers of a single device on the bus. It holds no
// bus resources between calls and is safe for concurrent use as long as the
// Bus is.
type Register struct {
	bus     Bus
	address uint16
	order   ByteOrder
}

// New binds a Register to a device address. No I/O is performed.
func New(bus Bus, address uint16, opts ...Option) *Register {
	r := &Register{bus: bus, address: address, order: NativeEndian}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Register) Address() uint16 {
	return r.address
}

func (r *Register) ByteOrder() ByteOrder {
	return r.order
}

// width returns the size of T in bytes.
func width[T Unsigned]() int {
	n := 0
	for v := ^T(0); v != 0; v >>= 8 {
		n++
	}
	return n
}

// Read reads a value of type T from register reg. On a failed data phase the
// returned value decodes whatever reached the zeroed buffer.
func Read[T Unsigned](ctx context.Context, r *Register, reg byte) (T, error) {
	v, err := r.ReadUint(ctx, reg, width[T]())
	return T(v), err
}

// Write writes value v of type T to register reg.
func Write[T Unsigned](ctx context.Context, r *Register, reg byte, v T) error {
	return r.WriteUint(ctx, reg, width[T](), uint64(v))
}

// ReadUint reads a size byte wide value, size between 1 and 8.
func (r *Register) ReadUint(ctx context.Context, reg byte, size int) (uint64, error) {
	if size < 1 || size > 8 {
		return 0, ErrInvalidWidth
	}
	var buf [8]byte
	data := buf[:size]
	err := r.transact(ctx, reg, OpRead, func(s Session) error {
		return s.Read(ctx, data)
	})
	return r.order.get(data), err
}

// WriteUint writes the low size bytes of v, size between 1 and 8.
func (r *Register) WriteUint(ctx context.Context, reg byte, size int, v uint64) error {
	if size < 1 || size > 8 {
		return ErrInvalidWidth
	}
	var buf [8]byte
	data := buf[:size]
	r.order.put(data, v)
	return r.WriteBytes(ctx, reg, data)
}

// ReadBytes reads len(dest) raw bytes starting at register reg. Bytes are
// kept in transmission order.
func (r *Register) ReadBytes(ctx context.Context, reg byte, dest []byte) error {
	return r.transact(ctx, reg, OpRead, func(s Session) error {
		return s.Read(ctx, dest)
	})
}

// WriteBytes writes src as-is to register reg.
func (r *Register) WriteBytes(ctx context.Context, reg byte, src []byte) error {
	return r.transact(ctx, reg, OpWrite, func(s Session) error {
		return s.Write(ctx, src)
	})
}

func (r *Register) Read8(ctx context.Context, reg byte) (uint8, error) {
	return Read[uint8](ctx, r, reg)
}

func (r *Register) Read16(ctx context.Context, reg byte) (uint16, error) {
	return Read[uint16](ctx, r, reg)
}

func (r *Register) Read32(ctx context.Context, reg byte) (uint32, error) {
	return Read[uint32](ctx, r, reg)
}

func (r *Register) Read64(ctx context.Context, reg byte) (uint64, error) {
	return Read[uint64](ctx, r, reg)
}

func (r *Register) Write8(ctx context.Context, reg byte, v uint8) error {
	return Write(ctx, r, reg, v)
}

func (r *Register) Write16(ctx context.Context, reg byte, v uint16) error {
	return Write(ctx, r, reg, v)
}

func (r *Register) Write32(ctx context.Context, reg byte, v uint32) error {
	return Write(ctx, r, reg, v)
}

func (r *Register) Write64(ctx context.Context, reg byte, v uint64) error {
	return Write(ctx, r, reg, v)
}

// transact runs the data phase fn inside one bus session after selecting
// register reg; op names the phase in errors. The session is released on
// every path out of transact. Nothing is selected or transferred once ctx is
// done.
func (r *Register) transact(ctx context.Context, reg byte, op string, fn func(Session) error) (err error) {
	s, err := r.bus.Acquire(ctx, r.address)
	if err != nil {
		return r.fail(OpAcquire, reg, err)
	}
	defer func() {
		// release even when the caller gave up on ctx
		rerr := s.Release(context.WithoutCancel(ctx))
		if rerr == nil {
			return
		}
		relOp := OpRelease
		var ferr *flushError
		if errors.As(rerr, &ferr) {
			relOp, rerr = OpWrite, ferr.err
		}
		rerr = r.fail(relOp, reg, rerr)
		if err == nil {
			err = rerr
			return
		}
		err = multierror.Append(err, rerr)
	}()
	if err = ctx.Err(); err != nil {
		return r.fail(OpSelect, reg, err)
	}
	if err = s.Write(ctx, []byte{reg}); err != nil {
		return r.fail(OpSelect, reg, err)
	}
	if err = ctx.Err(); err != nil {
		return r.fail(op, reg, err)
	}
	if err = fn(s); err != nil {
		return r.fail(op, reg, err)
	}
	return nil
}

func (r *Register) fail(op string, reg byte, err error) error {
	return &TransactionError{Op: op, Device: r.address, Register: reg, Err: err}
}
