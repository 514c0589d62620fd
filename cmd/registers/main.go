package main

import (
	"errors"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/registers/cmd/registers/console"
	"github.com/mklimuk/registers/pkg/config"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	err := newApp().Run(args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			return exerr.ExitCode()
		}
		console.Errorf("%s", err)
		return 1
	}
	return 0
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "registers"
	app.EnableBashCompletion = true
	app.Version = config.BuildInfo()
	app.Usage = "read and write device registers over I²C"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging and adapter wire dumps",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "defaults file",
			Value:   "registers.yaml",
			EnvVars: []string{"REGISTERS_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Usage:   "bus adapter: generic, mcp2221, nanopi or sim",
		},
		&cli.StringFlag{
			Name:  "device",
			Usage: "host bus name for the generic adapter",
		},
		&cli.IntFlag{
			Name:  "bus",
			Usage: "board bus number for the nanopi adapter",
		},
		&cli.StringFlag{
			Name:    "order",
			Aliases: []string{"o"},
			Usage:   "register byte order: native, big or little",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "output format: text, yaml or json",
		},
	}
	app.ExitErrHandler = func(_ *cli.Context, err error) {
		if err != nil && err.Error() != "" {
			console.Errorf("%s", err)
		}
	}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stdout, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Commands = cli.Commands{
		&readCmd,
		&writeCmd,
		&dumpCmd,
		&pollCmd,
		&usbCmd,
		&mcp2221Cmd,
	}
	return app
}
