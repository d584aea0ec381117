// Command lex builds dual-mode pages: it generates the build and client mains
// for the page named in lex.yaml, runs the build pass and writes the HTML.
//
//	lex build              render the page described by lex.yaml
//	lex gen [--dry-run]    write .lex/build and .lex/client only
//	lex clean              remove the generated mains
//	lex ids <file>         list and verify the identities of a built page
//	lex serve              serve the built page
//	lex version
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

const (
	configKey  = "config"
	verboseKey = "verbose"
	dryRunKey  = "dry-run"
	addrKey    = "addr"
	keyKey     = "key"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := app(os.Stdout).Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func app(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "lex",
		Usage:  "build dual-mode lex pages",
		Writer: w,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: configKey, Aliases: []string{"c"}, Usage: "config file", Value: defaultConfig},
			&cli.BoolFlag{Name: verboseKey, Aliases: []string{"v"}, Usage: "debug logging"},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "generate the mains and render the page",
				Action: runBuild,
			},
			{
				Name:  "gen",
				Usage: "generate the build and client mains",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: dryRunKey, Usage: "show what would be generated without writing files"},
				},
				Action: runGenerate,
			},
			{
				Name:  "clean",
				Usage: "remove the generated mains",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: dryRunKey, Usage: "show what would be removed"},
				},
				Action: runClean,
			},
			{
				Name:      "ids",
				Usage:     "list and verify the lexid values of a built page",
				ArgsUsage: "<file>",
				Action:    runIDs,
			},
			{
				Name:  "serve",
				Usage: "serve the built page",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: addrKey, Usage: "listen address", Value: "localhost:8080"},
					&cli.StringFlag{Name: keyKey, Usage: "sign the input served to clients with this key", Sources: cli.EnvVars("LEX_INPUT_KEY")},
				},
				Action: runServe,
			},
			{
				Name:  "version",
				Usage: "print the version",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintf(cmd.Root().Writer, "lex version %s\n", version)
					return err
				},
			},
		},
	}
}

func logger(cmd *cli.Command) *slog.Logger {
	level := slog.LevelInfo
	if cmd.Bool(verboseKey) {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func config(cmd *cli.Command, optional bool) (*Config, error) {
	return loadConfig(cmd.String(configKey), optional)
}
