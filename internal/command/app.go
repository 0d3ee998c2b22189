package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"viewlink/internal/config"
)

// Deps carries the runners so the command tree stays testable without
// sockets or databases.
type Deps struct {
	LoadConfig     func() config.Config
	RunServe       func(context.Context, config.Config) error
	RunDemo        func(context.Context, config.Config) error
	DefaultsKeys   func(context.Context, config.Config) ([]string, error)
	DefaultsClear  func(context.Context, config.Config) error
	DefaultsRemove func(context.Context, config.Config, string) error
}

func BuildApp(deps Deps) *cli.App {
	return &cli.App{
		Name:  "viewlink",
		Usage: "declarative UI channel endpoint",
		Action: func(ctx *cli.Context) error {
			return runServe(ctx.Context, deps, loadConfig(deps))
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the rendering endpoint on the unix socket",
				Action: func(ctx *cli.Context) error {
					return runServe(ctx.Context, deps, loadConfig(deps))
				},
			},
			{
				Name:  "demo",
				Usage: "connect as a control process and drive a demo counter",
				Action: func(ctx *cli.Context) error {
					if deps.RunDemo == nil {
						return errors.New("demo runner is not configured")
					}
					return deps.RunDemo(ctx.Context, loadConfig(deps))
				},
			},
			{
				Name:  "defaults",
				Usage: "inspect the persisted key-value store",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "print every stored key",
						Action: func(ctx *cli.Context) error {
							if deps.DefaultsKeys == nil {
								return errors.New("defaults runner is not configured")
							}
							keys, err := deps.DefaultsKeys(ctx.Context, loadConfig(deps))
							if err != nil {
								return err
							}
							for _, key := range keys {
								fmt.Fprintln(ctx.App.Writer, key)
							}
							return nil
						},
					},
					{
						Name:      "remove",
						Usage:     "delete one key",
						ArgsUsage: "<key>",
						Action: func(ctx *cli.Context) error {
							if deps.DefaultsRemove == nil {
								return errors.New("defaults runner is not configured")
							}
							if ctx.NArg() != 1 {
								return errors.New("remove takes exactly one key")
							}
							return deps.DefaultsRemove(ctx.Context, loadConfig(deps), ctx.Args().First())
						},
					},
					{
						Name:  "clear",
						Usage: "delete every stored key",
						Action: func(ctx *cli.Context) error {
							if deps.DefaultsClear == nil {
								return errors.New("defaults runner is not configured")
							}
							return deps.DefaultsClear(ctx.Context, loadConfig(deps))
						},
					},
				},
			},
		},
	}
}

func loadConfig(deps Deps) config.Config {
	if deps.LoadConfig != nil {
		return deps.LoadConfig()
	}
	return config.LoadConfig()
}

func runServe(ctx context.Context, deps Deps, cfg config.Config) error {
	if deps.RunServe == nil {
		return errors.New("serve runner is not configured")
	}
	return deps.RunServe(ctx, cfg)
}
