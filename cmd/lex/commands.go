package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/pthm/lex/dom"
	"github.com/pthm/lex/lib/build"
	"github.com/pthm/lex/lib/encoding"
	"github.com/pthm/lex/lib/generator"
)

func generatorFor(cmd *cli.Command, cfg *Config) *generator.Generator {
	return generator.New(generator.Options{
		Out:    cfg.path(cfg.Gen),
		DryRun: cmd.Bool(dryRunKey),
		Logger: logger(cmd),
	})
}

func runGenerate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config(cmd, false)
	if err != nil {
		return err
	}
	e, err := cfg.entry()
	if err != nil {
		return err
	}
	return generatorFor(cmd, cfg).Generate(e)
}

func runClean(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config(cmd, true)
	if err != nil {
		return err
	}
	return generatorFor(cmd, cfg).Clean()
}

// runBuild generates the mains and runs the build main with go run, so the
// page's own module supplies the components.
func runBuild(ctx context.Context, cmd *cli.Command) error {
	log := logger(cmd)
	cfg, err := config(cmd, false)
	if err != nil {
		return err
	}
	// The client is always a wasm module, which only exists as a file.
	if !cfg.Write || cfg.Outfile == "" {
		return fmt.Errorf("config: set write and outfile: %w", build.ErrClientNeedsOutfile)
	}
	e, err := cfg.entry()
	if err != nil {
		return err
	}
	g := generatorFor(cmd, cfg)
	if err := g.Generate(e); err != nil {
		return err
	}

	input, err := encoding.New().Encode(cfg.input())
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}

	args := buildArgs(cfg, g, input)
	log.Debug("running build main", "args", args)

	run := exec.CommandContext(ctx, "go", args...)
	run.Dir = cfg.root
	run.Stdout = cmd.Root().Writer
	run.Stderr = os.Stderr
	if err := run.Run(); err != nil {
		return fmt.Errorf("build main: %w", err)
	}

	if info, err := os.Stat(cfg.path(cfg.Outfile)); err == nil {
		log.Info("wrote page", "path", cfg.Outfile, "size", humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

func buildArgs(cfg *Config, g *generator.Generator, input string) []string {
	rel := func(dir string) string {
		if r, err := filepath.Rel(cfg.root, dir); err == nil {
			dir = r
		}
		return "./" + filepath.ToSlash(dir)
	}
	args := []string{
		"run", rel(g.BuildDir()),
		"--" + build.FlagClient, rel(g.ClientDir()),
		"--" + build.FlagInput, input,
		"--" + build.FlagMinify + "=" + strconv.FormatBool(cfg.Minify),
		"--" + build.FlagOutfile, cfg.Outfile,
	}
	return args
}

func runIDs(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("ids: a file is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return err
	}
	return printIdentities(cmd.Root().Writer, doc)
}

// printIdentities writes the identity table of doc and then verifies it, so
// a broken page still shows what it does contain.
func printIdentities(w io.Writer, doc *dom.Document) error {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.AppendHeader(table.Row{"lexid", "tag", "path"})
	for _, id := range doc.Identities() {
		tbl.AppendRow(table.Row{id.ID, id.Tag, id.Path})
	}

	n, err := dom.VerifyIdentities(doc)
	tbl.AppendFooter(table.Row{"", "elements", n})
	tbl.Render()
	return err
}
