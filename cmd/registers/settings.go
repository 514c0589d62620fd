package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/registers"
	"github.com/mklimuk/registers/adapter"
	"github.com/mklimuk/registers/busctx"
	"github.com/mklimuk/registers/cmd/registers/console"
	"github.com/mklimuk/registers/gobotbus"
	"github.com/mklimuk/registers/i2c"
	"github.com/mklimuk/registers/pkg/config"
	"github.com/mklimuk/registers/sim"
)

// settings merges the defaults file with the global flags set on the command line.
func settings(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("adapter") {
		cfg.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	if c.IsSet("order") {
		cfg.Order = c.String("order")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	return cfg, cfg.Validate()
}

// openBus is swapped in tests.
var openBus = func(cfg config.Config, address uint16) (registers.Bus, func() error, error) {
	switch cfg.Adapter {
	case config.AdapterGeneric:
		bus, err := i2c.NewGenericBus(cfg.Device)
		if err != nil {
			return nil, nil, err
		}
		return bus, bus.Close, nil
	case config.AdapterMCP2221:
		bridge := adapter.NewMCP2221()
		if err := bridge.Init(); err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return bridge.Bus(), nop, nil
	case config.AdapterNanoPi:
		var opts []gobotbus.Option
		if cfg.Bus >= 0 {
			opts = append(opts, gobotbus.WithBus(cfg.Bus))
		}
		bus, err := gobotbus.OpenNanoPi(opts...)
		if err != nil {
			return nil, nil, err
		}
		return bus, bus.Close, nil
	case config.AdapterSim:
		bus := sim.NewBus()
		bus.Attach(address)
		return bus, nop, nil
	}
	return nil, nil, fmt.Errorf("unknown adapter %q", cfg.Adapter)
}

func nop() error { return nil }

// withRegister opens the configured bus, binds a register accessor to the
// device at address and runs fn with an interruptible context.
func withRegister(c *cli.Context, address uint16, fn func(ctx context.Context, r *registers.Register, out *printer) error) error {
	cfg, err := settings(c)
	if err != nil {
		return console.Fail("invalid configuration", err)
	}
	order, err := registers.ParseByteOrder(cfg.Order)
	if err != nil {
		return console.Usage("%s", err)
	}
	bus, closeBus, err := openBus(cfg, address)
	if err != nil {
		return console.Fail("could not open bus", err)
	}
	defer func() {
		if err := closeBus(); err != nil {
			console.Warnf("could not close bus: %s", err)
		}
	}()
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	ctx = busctx.SetVerbose(ctx, c.Bool("verbose"))
	return fn(ctx, registers.New(bus, address, registers.WithByteOrder(order)), newPrinter(cfg.Format))
}

func parseAddress(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid device address %q", s)
	}
	return uint16(v), nil
}

func parseRegister(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid register address %q", s)
	}
	return byte(v), nil
}

// parseValue parses a register value that has to fit in width bytes.
func parseValue(s string, width int) (uint64, error) {
	if width < 1 || width > 8 {
		return 0, fmt.Errorf("%w: %d", registers.ErrInvalidWidth, width)
	}
	v, err := strconv.ParseUint(s, 0, 8*width)
	if err != nil {
		return 0, fmt.Errorf("invalid %d-byte value %q", width, s)
	}
	return v, nil
}
