package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/pthm/lex"
	"github.com/pthm/lex/lib/encoding"
	"github.com/pthm/lex/lib/entry"
)

// Flag names understood by generated build mains.
const (
	FlagClient  = "client"
	FlagDir     = "dir"
	FlagScript  = "script"
	FlagInput   = "input"
	FlagOutfile = "outfile"
	FlagMinify  = "minify"
	FlagVerbose = "verbose"
)

// ErrClientNeedsOutfile is returned when a wasm client is built without an
// outfile: the module is an asset file, and printing only the page would
// leave it with nothing to load.
var ErrClientNeedsOutfile = errors.New("build: a wasm client needs an outfile to write its module next to")

// Main is the body of a generated build main. It builds e and writes the
// page to -outfile, or to stdout when no outfile is given. It returns the
// process exit code.
//
// The client is either a prebuilt script (-script) or a client main package
// compiled to WebAssembly (-client). -input takes page input in its encoded
// form, as produced by package encoding.
func Main(ctx context.Context, e entry.Entry, args []string) int {
	if err := command(e, os.Stdout).Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func command(e entry.Entry, w io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "build",
		Writer: w,
		Usage:  "render a lex page to HTML",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: FlagClient, Usage: "client main package, compiled to wasm"},
			&cli.StringFlag{Name: FlagDir, Usage: "module root for compiling the client", Value: "."},
			&cli.StringFlag{Name: FlagScript, Usage: "file holding a prebuilt client script"},
			&cli.StringFlag{Name: FlagInput, Usage: "encoded page input"},
			&cli.StringFlag{Name: FlagOutfile, Aliases: []string{"o"}, Usage: "write the page here"},
			&cli.BoolFlag{Name: FlagMinify, Usage: "minify the client script", Value: true},
			&cli.BoolFlag{Name: FlagVerbose, Aliases: []string{"v"}, Usage: "debug logging"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runMain(ctx, cmd, e)
		},
	}
}

func runMain(ctx context.Context, cmd *cli.Command, e entry.Entry) error {
	level := slog.LevelInfo
	if cmd.Bool(FlagVerbose) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var bundler Bundler
	switch {
	case cmd.String(FlagScript) != "":
		src, err := os.ReadFile(cmd.String(FlagScript))
		if err != nil {
			return err
		}
		bundler = Script(string(src))
	case cmd.String(FlagClient) != "":
		if cmd.String(FlagOutfile) == "" {
			return ErrClientNeedsOutfile
		}
		bundler = WasmBundler{Package: cmd.String(FlagClient), Dir: cmd.String(FlagDir)}
	default:
		bundler = Script("")
	}

	input := lex.Props{}
	if raw := cmd.String(FlagInput); raw != "" {
		decoded, err := encoding.New().Decode(raw)
		if err != nil {
			return fmt.Errorf("input: %w", err)
		}
		input = decoded
	}

	opts := Options{
		Minify:  cmd.Bool(FlagMinify),
		Write:   cmd.String(FlagOutfile) != "",
		Outfile: cmd.String(FlagOutfile),
	}
	b := New(bundler, opts, WithLogger(logger.With("component", "build")))

	page, err := b.Page(ctx, e, input)
	if err != nil {
		return err
	}
	if !opts.Write {
		_, err = fmt.Fprint(cmd.Writer, page)
	}
	return err
}
