package registers

import (
	"context"
	"fmt"
)

// TxFunc performs one bus transaction with the device at address: it sends
// w and then, if r is not empty, reads len(r) bytes. Drivers that support it
// use a repeated start between the two phases.
type TxFunc func(ctx context.Context, address uint16, w, r []byte) error

// TxBus builds sessions on top of a transaction-oriented driver. Writes made
// within a session are queued and sent together with the next read, or on
// release, so that a register select and its data travel in one transfer.
type TxBus struct {
	lock *BusLock
	tx   TxFunc
}

func NewTxBus(tx TxFunc) *TxBus {
	return &TxBus{lock: NewBusLock(), tx: tx}
}

func (b *TxBus) Acquire(ctx context.Context, address uint16) (Session, error) {
	if err := b.lock.Lock(ctx); err != nil {
		return nil, fmt.Errorf("could not acquire bus for %#02x: %w", address, err)
	}
	return &txSession{bus: b, address: address}, nil
}

// flushError is a failure to send the writes queued in a session. The
// register accessor reports it as a failed write rather than a failed release.
type flushError struct {
	err error
}

func (e *flushError) Error() string {
	return fmt.Sprintf("queued write not sent: %v", e.err)
}

func (e *flushError) Unwrap() error {
	return e.err
}

type txSession struct {
	bus      *TxBus
	address  uint16
	pending  []byte
	writeCtx context.Context // of the last queued write
	released bool
}

func (s *txSession) Write(ctx context.Context, buffer []byte) error {
	if s.released {
		return ErrSessionReleased
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.pending = append(s.pending, buffer...)
	s.writeCtx = ctx
	return nil
}

func (s *txSession) Read(ctx context.Context, buffer []byte) error {
	if s.released {
		return ErrSessionReleased
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	w := s.pending
	s.pending = nil
	return s.bus.tx(ctx, s.address, w, buffer)
}

// Release flushes queued writes and frees the bus. The bus is freed even
// when the flush fails. Writes whose context is done by now are dropped
// unsent.
func (s *txSession) Release(ctx context.Context) error {
	if s.released {
		return ErrSessionReleased
	}
	s.released = true
	defer s.bus.lock.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	w := s.pending
	s.pending = nil
	if err := s.writeCtx.Err(); err != nil {
		return &flushError{err: err}
	}
	if err := s.bus.tx(ctx, s.address, w, nil); err != nil {
		return &flushError{err: err}
	}
	return nil
}

// NewAddressableBus adapts a bus that addresses every call on its own, such
// as the MCP2221 bridge, to session semantics. Only 7-bit addresses fit.
func NewAddressableBus(bus I2CBus) *TxBus {
	return NewTxBus(func(ctx context.Context, address uint16, w, r []byte) error {
		if address > 0x7F {
			return fmt.Errorf("address %#x does not fit 7 bits", address)
		}
		if len(w) > 0 {
			if err := bus.WriteToAddr(ctx, byte(address), w); err != nil {
				return err
			}
		}
		if len(r) > 0 {
			return bus.ReadFromAddr(ctx, byte(address), r)
		}
		return nil
	})
}
