// Package entry holds the entry points shared by the two builds of a page.
//
// A page is described once, as an Entry. The build binary runs it with
// Build against a headless document to produce markup; the client binary
// runs the same Entry with Hydrate against the browser document. Both get
// the same input, so both evaluate the same tree in the same order.
package entry

import (
	"fmt"
	"log/slog"

	"github.com/pthm/lex"
)

// Entry evaluates a page's tree and returns its root.
type Entry func(r *lex.Renderer, input lex.Props) any

// Standard renders page on its own. page is expected to return the html
// element.
func Standard(page lex.Component) Entry {
	return func(r *lex.Renderer, input lex.Props) any {
		return r.Element(page, input)
	}
}

// Layout renders page as the only child of layout:
//
//	<Layout><Page/></Layout>
//
// The input is passed to both.
func Layout(layout, page lex.Component) Entry {
	return func(r *lex.Renderer, input lex.Props) any {
		return r.Element(layout, input, r.Element(page, input))
	}
}

// Build evaluates e in create mode against doc and mounts the result into
// the document body.
func Build(doc lex.Document, e Entry, input lex.Props, opts ...lex.Option) (*lex.Renderer, error) {
	r := lex.NewBuild(doc, opts...)
	return r, run(r, e, input)
}

// Hydrate evaluates e in hydrate mode against doc, which must hold the markup
// Build produced for the same input, and then activates the renderer.
func Hydrate(doc lex.Document, e Entry, input lex.Props, opts ...lex.Option) (*lex.Renderer, error) {
	r := lex.NewClient(doc, opts...)
	return r, run(r, e, input)
}

func run(r *lex.Renderer, e Entry, input lex.Props) error {
	if e == nil {
		return fmt.Errorf("entry: %w", lex.ErrNotCallable)
	}
	if input == nil {
		input = lex.Props{}
	}
	root, err := r.Run(func(r *lex.Renderer) any {
		return e(r, input)
	})
	if err != nil {
		return fmt.Errorf("entry: %s pass: %w", passName(r), err)
	}
	if err := r.Mount(root); err != nil {
		return fmt.Errorf("entry: mount: %w", err)
	}
	slog.Debug("entry evaluated", "component", "entry", "mode", r.Mode(), "elements", r.Counter())
	return nil
}

func passName(r *lex.Renderer) string {
	if r.Mode() == lex.Hydrating {
		return "hydrate"
	}
	return "build"
}
