package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/registers"
	"github.com/mklimuk/registers/cmd/registers/console"
)

// pollCmd configures a device once and then samples one of its registers,
// e.g. an ADC with a configuration register at 0x02 and results at 0x03.
var pollCmd = cli.Command{
	Name:      "poll",
	Usage:     "configure a device and sample a register periodically",
	ArgsUsage: "<address>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "config-reg", Value: "0x02", Usage: "configuration register"},
		&cli.StringFlag{Name: "config-value", Value: "234", Usage: "value written to the configuration register; empty skips configuration"},
		&cli.StringFlag{Name: "reg", Value: "0x03", Usage: "sampled register"},
		&cli.IntFlag{Name: "width", Aliases: []string{"w"}, Value: 2, Usage: "register width in bytes (1-8)"},
		&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Value: time.Second, Usage: "sampling interval"},
		&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "number of samples; 0 polls until interrupted"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Usage("expected device address")
		}
		addr, err := parseAddress(c.Args().Get(0))
		if err != nil {
			return console.Usage("%s", err)
		}
		configReg, err := parseRegister(c.String("config-reg"))
		if err != nil {
			return console.Usage("%s", err)
		}
		sampleReg, err := parseRegister(c.String("reg"))
		if err != nil {
			return console.Usage("%s", err)
		}
		width := c.Int("width")
		if width < 1 || width > 8 {
			return console.Usage("%s: %d", registers.ErrInvalidWidth, width)
		}
		var configValue uint64
		configure := c.String("config-value") != ""
		if configure {
			configValue, err = parseValue(c.String("config-value"), width)
			if err != nil {
				return console.Usage("%s", err)
			}
		}
		return withRegister(c, addr, func(ctx context.Context, r *registers.Register, out *printer) error {
			if configure {
				if err := r.WriteUint(ctx, configReg, width, configValue); err != nil {
					return console.Fail("device configuration error", err)
				}
				slog.Debug("device configured", "device", addr, "register", configReg, "value", configValue)
			}
			return poll(ctx, c.Duration("interval"), c.Int("count"), func() error {
				v, err := r.ReadUint(ctx, sampleReg, width)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return err
					}
					slog.Warn("sample read failed", "device", addr, "register", sampleReg, "error", err)
					return nil
				}
				return out.print(newRegisterValue(addr, sampleReg, width, v))
			})
		})
	},
}

// poll calls sample right away and then on every tick until count samples
// were taken or ctx is done. A count below 1 never stops on its own.
func poll(ctx context.Context, interval time.Duration, count int, sample func() error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for n := 1; ; n++ {
		if err := sample(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if count > 0 && n >= count {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
