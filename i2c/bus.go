package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/mklimuk/registers"
)

var _ registers.Bus = &GenericBus{}

// GenericBus opens register sessions on a host I²C bus (e.g. /dev/i2c-1)
// through periph.io. A register select and the following read go out as a
// single combined transfer with a repeated start.
type GenericBus struct {
	*registers.TxBus
	bus i2c.BusCloser
}

// NewGenericBus initializes the host drivers and opens the named bus. An empty
// name opens the first bus available.
func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return newGenericBus(bus), nil
}

func newGenericBus(bus i2c.BusCloser) *GenericBus {
	b := &GenericBus{bus: bus}
	b.TxBus = registers.NewTxBus(b.tx)
	return b
}

func (b *GenericBus) tx(ctx context.Context, address uint16, w, r []byte) error {
	err := b.bus.Tx(address, w, r)
	if err != nil {
		return fmt.Errorf("could not transfer with %x on %s: %w", address, b.bus, err)
	}
	return nil
}

// SetSpeed changes the bus clock. Slow devices may need it lowered.
func (b *GenericBus) SetSpeed(f physic.Frequency) error {
	return b.bus.SetSpeed(f)
}

func (b *GenericBus) String() string {
	return b.bus.String()
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
