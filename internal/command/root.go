package command

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/bornholm/schoolscout/internal/logx"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func Main(name string, version string, usage string, commands ...*cli.Command) {
	app := NewApp(name, version, usage, commands...)

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func NewApp(name string, version string, usage string, commands ...*cli.Command) *cli.App {
	app := &cli.App{
		Name:     name,
		Usage:    usage,
		Commands: commands,
		Version:  version,
		Before: func(ctx *cli.Context) error {
			workdir := ctx.String("workdir")
			// Switch to new working directory if defined
			if workdir != "" {
				if err := os.Chdir(workdir); err != nil {
					return errors.Wrap(err, "could not change working directory")
				}
			}

			logger := slog.New(logx.ContextHandler{
				Handler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: parseLogLevel(ctx.String("log-level")),
				}),
			})
			slog.SetDefault(logger)

			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "workdir",
				Value:   "",
				EnvVars: []string{"SCHOOLSCOUT_WORKDIR"},
				Usage:   "The working directory",
			},
			&cli.BoolFlag{
				Name:    "debug",
				EnvVars: []string{"SCHOOLSCOUT_DEBUG"},
				Usage:   "Enable debug mode",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"SCHOOLSCOUT_LOG_LEVEL"},
				Usage:   "Set logging level",
				Value:   "info",
			},
		},
	}

	app.ExitErrHandler = func(ctx *cli.Context, err error) {
		if err == nil {
			return
		}

		debug := ctx.Bool("debug")

		if !debug {
			slog.ErrorContext(ctx.Context, err.Error())
		} else {
			slog.ErrorContext(ctx.Context, fmt.Sprintf("%+v", err))
		}
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	return app
}

func parseLogLevel(logLevel string) slog.Level {
	switch logLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
