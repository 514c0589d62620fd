package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/registers"
	"github.com/mklimuk/registers/cmd/registers/console"
)

var widthFlag = &cli.IntFlag{
	Name:    "width",
	Aliases: []string{"w"},
	Usage:   "register width in bytes (1-8)",
	Value:   1,
}

var readCmd = cli.Command{
	Name:      "read",
	Usage:     "read a register",
	ArgsUsage: "<address> <register>",
	Flags:     []cli.Flag{widthFlag},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Usage("expected device address and register")
		}
		addr, err := parseAddress(c.Args().Get(0))
		if err != nil {
			return console.Usage("%s", err)
		}
		reg, err := parseRegister(c.Args().Get(1))
		if err != nil {
			return console.Usage("%s", err)
		}
		width := c.Int("width")
		return withRegister(c, addr, func(ctx context.Context, r *registers.Register, out *printer) error {
			v, err := r.ReadUint(ctx, reg, width)
			if err != nil {
				return console.Fail("register read error", err)
			}
			return out.print(newRegisterValue(addr, reg, width, v))
		})
	},
}

var writeCmd = cli.Command{
	Name:      "write",
	Usage:     "write a register",
	ArgsUsage: "<address> <register> <value>",
	Flags: []cli.Flag{
		widthFlag,
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "do not ask for confirmation",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 3 {
			return console.Usage("expected device address, register and value")
		}
		addr, err := parseAddress(c.Args().Get(0))
		if err != nil {
			return console.Usage("%s", err)
		}
		reg, err := parseRegister(c.Args().Get(1))
		if err != nil {
			return console.Usage("%s", err)
		}
		width := c.Int("width")
		v, err := parseValue(c.Args().Get(2), width)
		if err != nil {
			return console.Usage("%s", err)
		}
		if !c.Bool("yes") {
			ok, err := console.Confirm(fmt.Sprintf("write %s to register %#x of device %#x?", console.Hex(v, width), reg, addr))
			if err != nil {
				return console.Fail("prompt error", err)
			}
			if !ok {
				console.PInfof(console.PictoStop, "write aborted")
				return nil
			}
		}
		return withRegister(c, addr, func(ctx context.Context, r *registers.Register, out *printer) error {
			if err := r.WriteUint(ctx, reg, width, v); err != nil {
				return console.Fail("register write error", err)
			}
			return out.print(newRegisterValue(addr, reg, width, v))
		})
	},
}

var dumpCmd = cli.Command{
	Name:      "dump",
	Usage:     "read a run of consecutive registers",
	ArgsUsage: "<address> <register> <count>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 3 {
			return console.Usage("expected device address, register and byte count")
		}
		addr, err := parseAddress(c.Args().Get(0))
		if err != nil {
			return console.Usage("%s", err)
		}
		reg, err := parseRegister(c.Args().Get(1))
		if err != nil {
			return console.Usage("%s", err)
		}
		count, err := parseValue(c.Args().Get(2), 2)
		if err != nil {
			return console.Usage("%s", err)
		}
		return withRegister(c, addr, func(ctx context.Context, r *registers.Register, out *printer) error {
			data := make([]byte, count)
			if err := r.ReadBytes(ctx, reg, data); err != nil {
				return console.Fail("register read error", err)
			}
			return out.print(newRegisterDump(addr, reg, data))
		})
	},
}
