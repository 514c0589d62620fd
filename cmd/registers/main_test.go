package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/registers"
	"github.com/mklimuk/registers/cmd/registers/console"
	"github.com/mklimuk/registers/pkg/config"
	"github.com/mklimuk/registers/sim"
)

func runApp(t *testing.T, bus *sim.Bus, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	console.SetOutput(&out, &errOut)
	t.Cleanup(func() { console.SetOutput(os.Stdout, os.Stderr) })
	orig := openBus
	openBus = func(cfg config.Config, address uint16) (registers.Bus, func() error, error) {
		return bus, nop, nil
	}
	t.Cleanup(func() { openBus = orig })

	argv := append([]string{"registers", "--config", "", "--adapter", "sim"}, args...)
	err := newApp().Run(argv)
	return out.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exerr cli.ExitCoder
	require.ErrorAs(t, err, &exerr)
	return exerr.ExitCode()
}

func TestRead(t *testing.T) {
	bus := sim.NewBus()
	bus.Attach(0x40).Set(0x03, 0x0B, 0xB8)

	out, err := runApp(t, bus, "--order", "big", "--format", "json", "read", "-w", "2", "0x40", "0x03")
	require.NoError(t, err)
	assert.JSONEq(t, `{"device":"0x40","register":"0x3","width":2,"value":3000}`, out)
	assert.Equal(t, 1, bus.Released())
}

func TestRead_Text(t *testing.T) {
	bus := sim.NewBus()
	bus.Attach(0x40).Set(0x03, 0x0B, 0xB8)

	out, err := runApp(t, bus, "--order", "little", "read", "--width", "2", "64", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "(47115)")
}

func TestRead_Errors(t *testing.T) {
	bus := sim.NewBus()
	bus.Attach(0x40)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing register", []string{"read", "0x40"}, 2},
		{"bad address", []string{"read", "zz", "0x03"}, 2},
		{"register out of range", []string{"read", "0x40", "0x100"}, 2},
		{"bad order", []string{"--order", "middle", "read", "0x40", "0x03"}, 2},
		{"bad width", []string{"read", "-w", "9", "0x40", "0x03"}, 1},
		{"absent device", []string{"read", "0x41", "0x03"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, bus, tt.args...)
			assert.Equal(t, tt.code, exitCode(t, err))
		})
	}
	assert.Equal(t, bus.Acquired(), bus.Released())
}

func TestWrite(t *testing.T) {
	bus := sim.NewBus()
	dev := bus.Attach(0x40)

	out, err := runApp(t, bus, "--order", "big", "--format", "yaml", "write", "--yes", "-w", "2", "0x40", "0x02", "234")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xEA}, dev.Get(0x02, 2))

	var written registerValue
	require.NoError(t, yaml.Unmarshal([]byte(out), &written))
	assert.Equal(t, newRegisterValue(0x40, 0x02, 2, 234), written)
}

func TestWrite_ValueTooWide(t *testing.T) {
	bus := sim.NewBus()
	bus.Attach(0x40)

	_, err := runApp(t, bus, "write", "--yes", "0x40", "0x02", "0x100")
	assert.Equal(t, 2, exitCode(t, err))
	assert.Zero(t, bus.Acquired())
}

func TestDump(t *testing.T) {
	bus := sim.NewBus()
	bus.Attach(0x1A).Set(0x10, 0xDE, 0xAD, 0xBE, 0xEF)

	out, err := runApp(t, bus, "dump", "0x1a", "0x10", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "4 bytes")
	assert.Contains(t, out, "de ad be ef")

	out, err = runApp(t, bus, "-f", "json", "dump", "0x1a", "0x10", "4")
	require.NoError(t, err)
	assert.JSONEq(t, `{"device":"0x1a","register":"0x10","count":4,"data":"deadbeef"}`, out)
}

func TestPoll(t *testing.T) {
	bus := sim.NewBus()
	dev := bus.Attach(0x48, sim.WithRegisterWidth(2))
	dev.Set(0x03, 0x0B, 0xB8)

	out, err := runApp(t, bus, "--order", "big", "--format", "json", "poll", "--interval", "1ms", "--count", "3", "0x48")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xEA}, dev.Get(0x02, 2))
	assert.Equal(t, 3, bytes.Count([]byte(out), []byte(`"value":3000`)))
	// one configuration write and three samples
	assert.Equal(t, 4, bus.Released())
}

func TestPoll_SkipsFailedSamples(t *testing.T) {
	bus := sim.NewBus()
	dev := bus.Attach(0x48)
	dev.SetFault(sim.Fault{Read: assert.AnError})

	out, err := runApp(t, bus, "poll", "--config-value", "", "--interval", "1ms", "--count", "2", "0x48")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 2, bus.Released())
}

func TestPollLoop(t *testing.T) {
	t.Run("stops after count", func(t *testing.T) {
		n := 0
		err := poll(context.Background(), time.Millisecond, 5, func() error {
			n++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	})
	t.Run("stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		n := 0
		err := poll(ctx, time.Millisecond, 0, func() error {
			n++
			if n == 3 {
				cancel()
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})
	t.Run("returns sample error", func(t *testing.T) {
		err := poll(context.Background(), time.Millisecond, 0, func() error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adapter: generic\ndevice: /dev/i2c-2\norder: little\n"), 0o600))

	var got config.Config
	app := newApp()
	app.Commands = cli.Commands{{
		Name: "show",
		Action: func(c *cli.Context) error {
			var err error
			got, err = settings(c)
			return err
		},
	}}
	require.NoError(t, app.Run([]string{"registers", "--config", path, "--order", "big", "--bus", "2", "show"}))
	assert.Equal(t, config.Config{
		Adapter: config.AdapterGeneric,
		Device:  "/dev/i2c-2",
		Bus:     2,
		Order:   "big",
		Format:  config.FormatText,
	}, got)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in      string
		width   int
		want    uint64
		wantErr bool
	}{
		{"234", 2, 234, false},
		{"0xEA", 1, 0xEA, false},
		{"0b1010", 1, 10, false},
		{"0x1_0000", 4, 0x10000, false},
		{"0x100", 1, 0, true},
		{"-1", 2, 0, true},
		{"1", 0, 0, true},
		{"1", 9, 0, true},
		{"0xFFFFFFFFFFFFFFFF", 8, 0xFFFFFFFFFFFFFFFF, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseValue(tt.in, tt.width)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
