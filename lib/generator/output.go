package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"text/template"
)

const mainFile = "main.go"

// Ref names a component function in another package.
type Ref struct {
	Import string // import path
	Name   string // exported function name
	Dir    string // optional source directory, used to verify Name
}

// Entry describes the tree both mains evaluate. Without a Layout it is the
// standard entry: Page renders the whole document. With a Layout, Page is
// rendered as the layout's only child.
type Entry struct {
	Page   Ref
	Layout *Ref
}

type importSpec struct {
	Alias string
	Path  string
}

type templateData struct {
	Imports []importSpec
	Entry   string
}

// BuildSource returns the source of the build main.
func BuildSource(e Entry) ([]byte, error) {
	return render(buildTemplate, e)
}

// ClientSource returns the source of the client main.
func ClientSource(e Entry) ([]byte, error) {
	return render(clientTemplate, e)
}

func render(tmpl *template.Template, e Entry) ([]byte, error) {
	if e.Page.Name == "" {
		return nil, fmt.Errorf("%w: %q", ErrMissingPageName, e.Page.Import)
	}

	aliases := map[string]string{}
	var data templateData
	alias := func(importPath string) string {
		if a, ok := aliases[importPath]; ok {
			return a
		}
		a := "app"
		if n := len(aliases); n > 0 {
			a += strconv.Itoa(n)
		}
		aliases[importPath] = a
		data.Imports = append(data.Imports, importSpec{Alias: a, Path: importPath})
		return a
	}

	page := alias(e.Page.Import) + "." + e.Page.Name
	if e.Layout == nil {
		data.Entry = "entry.Standard(" + page + ")"
	} else {
		layout := alias(e.Layout.Import) + "." + e.Layout.Name
		data.Entry = "entry.Layout(" + layout + ", " + page + ")"
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), fmt.Errorf("format source: %w", err)
	}
	return formatted, nil
}

var buildTemplate = template.Must(template.New("build").Parse(`// Code generated by lex entry. DO NOT EDIT.

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/pthm/lex/lib/build"
	"github.com/pthm/lex/lib/entry"
{{range .Imports}}
	{{.Alias}} "{{.Path}}"
{{- end}}
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return build.Main(ctx, {{.Entry}}, os.Args)
}
`))

var clientTemplate = template.Must(template.New("client").Parse(`//go:build js && wasm

// Code generated by lex entry. DO NOT EDIT.

package main

import (
	"github.com/pthm/lex/dom/browser"
	"github.com/pthm/lex/lib/entry"
{{range .Imports}}
	{{.Alias}} "{{.Path}}"
{{- end}}
)

func main() {
	input, err := browser.Input()
	if err == nil {
		_, err = entry.Hydrate(browser.Document(), {{.Entry}}, input)
	}
	if err != nil {
		browser.Console().Call("error", err.Error())
	}
	select {}
}
`))
