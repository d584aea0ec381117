// Command lexbench times the build pass, the hydrate pass and cell updates
// over lists of growing size.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/pthm/lex"
	"github.com/pthm/lex/dom"
)

const (
	itersKey   = "iters"
	sizesKey   = "sizes"
	profileKey = "cpuprofile"
)

func main() {
	cmd := &cli.Command{
		Name:  "lexbench",
		Usage: "time lex passes",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: itersKey, Usage: "iterations per row", Value: 100},
			&cli.IntSliceFlag{Name: sizesKey, Usage: "list sizes", Value: []int64{1, 10, 100, 1_000}},
			&cli.StringFlag{Name: profileKey, Usage: "write a CPU profile here"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if path := cmd.String(profileKey); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := pprof.StartCPUProfile(f); err != nil {
					return err
				}
				defer pprof.StopCPUProfile()
			}
			log.Printf("benchmarking")
			return bench(os.Stdout, int(cmd.Int(itersKey)), cmd.IntSlice(sizesKey))
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// list renders n rows, each with a reactive label and a click handler.
func list(n int, cells []*lex.Cell[int]) func(r *lex.Renderer) any {
	return func(r *lex.Renderer) any {
		rows := make([]any, n)
		for i := range n {
			c := lex.NewCell(i)
			if cells != nil {
				cells[i] = c
			}
			rows[i] = r.Element("li", lex.Props{
				"data-row": strconv.Itoa(i),
				"onClick":  func() { c.SetValue(c.Value() + 1) },
			}, c)
		}
		return r.Element("ul", nil, rows)
	}
}

func build(tree func(r *lex.Renderer) any) (*dom.Document, error) {
	doc := dom.New()
	r := lex.NewBuild(doc)
	root, err := r.Run(tree)
	if err != nil {
		return nil, err
	}
	return doc, r.Mount(root)
}

func hydrate(markup string, tree func(r *lex.Renderer) any) (*lex.Renderer, error) {
	doc, err := dom.ParseString(markup)
	if err != nil {
		return nil, err
	}
	r := lex.NewClient(doc)
	if _, err := r.Run(tree); err != nil {
		return nil, err
	}
	r.Activate()
	return r, nil
}

func bench(w io.Writer, iters int, sizes []int64) error {
	tbl := table.NewWriter()
	tbl.SetTitle("lex")
	tbl.SetOutputMirror(w)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	row := func(name string, tach *tachymeter.Tachymeter) {
		calc := tach.Calc()
		tbl.AppendRow(table.Row{name, calc.Time.Avg, calc.Time.Min, calc.Time.P75, calc.Time.P99, calc.Time.Max})
	}

	for _, size := range sizes {
		n := int(size)
		tree := list(n, nil)

		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		var markup string
		for range iters {
			start := time.Now()
			doc, err := build(tree)
			if err != nil {
				return err
			}
			tach.AddTime(time.Since(start))
			markup = doc.String()
		}
		row(fmt.Sprintf("build: %d", n), tach)

		tach = tachymeter.New(&tachymeter.Config{Size: iters})
		for range iters {
			start := time.Now()
			if _, err := hydrate(markup, tree); err != nil {
				return err
			}
			tach.AddTime(time.Since(start))
		}
		row(fmt.Sprintf("hydrate: %d", n), tach)

		cells := make([]*lex.Cell[int], n)
		if _, err := hydrate(markup, list(n, cells)); err != nil {
			return err
		}
		tach = tachymeter.New(&tachymeter.Config{Size: iters})
		for i := range iters {
			c := cells[i%n]
			start := time.Now()
			c.SetValue(c.Value() + 1)
			tach.AddTime(time.Since(start))
		}
		row(fmt.Sprintf("update: %d", n), tach)
	}

	tbl.Render()
	return nil
}
