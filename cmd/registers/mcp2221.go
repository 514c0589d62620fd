package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/registers/adapter"
	"github.com/mklimuk/registers/busctx"
	"github.com/mklimuk/registers/cmd/registers/console"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "MCP2221 bridge maintenance",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Usage: "show the I²C engine status",
	Action: func(c *cli.Context) error {
		return withBridge(c, func(ctx context.Context, bridge *adapter.MCP2221) (*adapter.MCP2221Status, error) {
			return bridge.Status(ctx)
		})
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current I²C transfer and free the bus",
	Action: func(c *cli.Context) error {
		return withBridge(c, func(ctx context.Context, bridge *adapter.MCP2221) (*adapter.MCP2221Status, error) {
			return bridge.ReleaseBus(ctx)
		})
	},
}

func withBridge(c *cli.Context, fn func(context.Context, *adapter.MCP2221) (*adapter.MCP2221Status, error)) error {
	cfg, err := settings(c)
	if err != nil {
		return console.Fail("invalid configuration", err)
	}
	bridge := adapter.NewMCP2221()
	if err := bridge.Init(); err != nil {
		return console.Fail("adapter initialization error", err)
	}
	ctx := busctx.SetVerbose(c.Context, c.Bool("verbose"))
	status, err := fn(ctx, bridge)
	if err != nil {
		return console.Fail("adapter communication error", err)
	}
	return newPrinter(cfg.Format).print(status)
}
