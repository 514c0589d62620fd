// Package gobotbus opens register sessions through gobot board adaptors,
// for boards whose I²C pins are only reachable through gobot platforms.
package gobotbus

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/registers"
)

var _ registers.Bus = &Bus{}

type Option func(*Bus)

// WithBus selects the board bus number. The adaptor default is used otherwise.
func WithBus(busNr int) Option {
	return func(b *Bus) {
		b.busNr = busNr
	}
}

// Bus keeps one gobot connection per device address and serializes sessions
// across all of them.
type Bus struct {
	*registers.TxBus
	connector i2c.Connector
	busNr     int
	finalize  func() error

	mx    sync.Mutex
	conns map[uint16]i2c.Connection
}

func New(connector i2c.Connector, opts ...Option) *Bus {
	b := &Bus{
		connector: connector,
		busNr:     -1,
		conns:     make(map[uint16]i2c.Connection),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.busNr < 0 {
		b.busNr = connector.DefaultI2cBus()
	}
	b.TxBus = registers.NewTxBus(b.tx)
	return b
}

// OpenNanoPi connects a NanoPi NEO adaptor and returns a bus on top of it.
// Close finalizes the adaptor.
func OpenNanoPi(opts ...Option) (*Bus, error) {
	adaptor := nanopi.NewNeoAdaptor()
	if err := adaptor.Connect(); err != nil {
		return nil, fmt.Errorf("adaptor connect error: %w", err)
	}
	b := New(adaptor, opts...)
	b.finalize = adaptor.Finalize
	return b, nil
}

func (b *Bus) connection(address uint16) (i2c.Connection, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if conn, ok := b.conns[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not open connection to %#x on bus %d: %w", address, b.busNr, err)
	}
	b.conns[address] = conn
	return conn, nil
}

func (b *Bus) tx(ctx context.Context, address uint16, w, r []byte) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	if len(w) > 0 {
		n, err := conn.Write(w)
		if err != nil {
			return fmt.Errorf("write to %#x failed: %w", address, err)
		}
		if n != len(w) {
			return fmt.Errorf("write to %#x: %w", address, io.ErrShortWrite)
		}
	}
	if len(r) > 0 {
		n, err := conn.Read(r)
		if err != nil {
			return fmt.Errorf("read from %#x failed: %w", address, err)
		}
		if n != len(r) {
			return fmt.Errorf("read from %#x: %w", address, io.ErrUnexpectedEOF)
		}
	}
	return nil
}

// Close closes all device connections and finalizes the adaptor if the bus
// owns it.
func (b *Bus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var result *multierror.Error
	for addr, conn := range b.conns {
		if err := conn.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("could not close connection to %#x: %w", addr, err))
		}
		delete(b.conns, addr)
	}
	if b.finalize != nil {
		if err := b.finalize(); err != nil {
			result = multierror.Append(result, fmt.Errorf("adaptor finalize error: %w", err))
		}
	}
	return result.ErrorOrNil()
}
