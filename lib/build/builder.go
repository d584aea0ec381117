// Package build turns a lex entry into a complete HTML document.
//
// The builder runs the build pass against a headless document, embeds the
// page input and the client script in the head, and serializes the result:
//
//	b := build.New(build.Script(clientJS), build.DefaultOptions())
//	html, err := b.Standard(ctx, pages.Home, lex.Props{"start": 3})
//
// The page component must render the html element, with a head element
// somewhere inside it; both get identities like any other element.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/evanw/esbuild/pkg/api"

	"github.com/pthm/lex"
	"github.com/pthm/lex/dom"
	"github.com/pthm/lex/lib/encoding"
	"github.com/pthm/lex/lib/entry"
)

var ErrNoOutfile = errors.New("build: write requested without an outfile")

// Builder emits pages. It is safe to reuse across pages but not for
// concurrent use.
type Builder struct {
	bundler Bundler
	opts    Options
	encoder *encoding.Encoder
	logger  *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithEncoder replaces the page-input encoder. The client must decode with
// the same settings.
func WithEncoder(e *encoding.Encoder) BuilderOption {
	return func(b *Builder) {
		if e != nil {
			b.encoder = e
		}
	}
}

// New creates a builder.
func New(bundler Bundler, opts Options, o ...BuilderOption) *Builder {
	b := &Builder{
		bundler: bundler,
		opts:    opts,
		encoder: encoding.New(),
		logger:  slog.Default().With("component", "build"),
	}
	for _, fn := range o {
		fn(b)
	}
	return b
}

// Options returns the builder's options.
func (b *Builder) Options() Options {
	return b.opts
}

// Standard builds a page whose component renders the whole document.
func (b *Builder) Standard(ctx context.Context, page lex.Component, input lex.Props) (string, error) {
	return b.Page(ctx, entry.Standard(page), input)
}

// Layout builds page wrapped in layout.
func (b *Builder) Layout(ctx context.Context, layout, page lex.Component, input lex.Props) (string, error) {
	return b.Page(ctx, entry.Layout(layout, page), input)
}

// Page builds the document for any entry. Nothing is returned or written
// unless every step succeeds.
func (b *Builder) Page(ctx context.Context, e entry.Entry, input lex.Props) (string, error) {
	if b.opts.Write && b.opts.Outfile == "" {
		return "", ErrNoOutfile
	}

	bundle, err := b.bundler.Bundle(ctx)
	if err != nil {
		return "", err
	}
	script := bundle.Script
	if b.opts.Minify {
		if script, err = minify(script); err != nil {
			return "", err
		}
	}

	// Render from the decoded copy so the build pass sees exactly what the
	// client will.
	encoded, decoded, err := b.encoder.RoundTrip(input)
	if err != nil {
		return "", err
	}

	doc := dom.New()
	r, err := entry.Build(doc, e, decoded, lex.WithLogger(b.logger))
	if err != nil {
		return "", err
	}

	root := identified(doc, "html")
	head := identified(doc, "head")
	if root == nil || head == nil {
		return "", fmt.Errorf("%w: page must render html and head elements", lex.ErrMissingRoot)
	}

	head.AppendChild(scriptElement(doc, encoding.ScriptType, encoding.ScriptID, encoded))
	head.AppendChild(scriptElement(doc, "module", "", script))

	page := "<!DOCTYPE html>" + root.OuterHTML()

	if b.opts.Write {
		if err := b.write(page, bundle.Assets); err != nil {
			return "", err
		}
	}

	b.logger.Info("page built",
		"elements", r.Counter(),
		"size", humanize.Bytes(uint64(len(page))),
		"script", humanize.Bytes(uint64(len(script))),
		"minified", b.opts.Minify,
	)
	return page, nil
}

func (b *Builder) write(page string, assets map[string][]byte) error {
	dir := filepath.Dir(b.opts.Outfile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, data := range assets {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		b.logger.Debug("asset written", "path", path, "size", humanize.Bytes(uint64(len(data))))
	}
	if err := os.WriteFile(b.opts.Outfile, []byte(page), 0o644); err != nil {
		return err
	}
	b.logger.Info("page written", "path", b.opts.Outfile)
	return nil
}

// identified returns the first element named tag that carries an identity.
func identified(doc *dom.Document, tag string) *dom.Element {
	for _, el := range doc.FindAll(tag) {
		if el.ID() != "" {
			return el
		}
	}
	return nil
}

func scriptElement(doc *dom.Document, typ, id, body string) lex.Element {
	el := doc.CreateElement("script")
	el.SetAttribute("type", typ)
	if id != "" {
		el.SetAttribute("id", id)
	}
	el.AppendChild(doc.CreateText(body))
	return el
}

func minify(script string) (string, error) {
	res := api.Transform(script, api.TransformOptions{
		Loader:            api.LoaderJS,
		Format:            api.FormatESModule,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
	})
	if len(res.Errors) > 0 {
		msgs := make([]string, 0, len(res.Errors))
		for _, m := range res.Errors {
			msgs = append(msgs, m.Text)
		}
		return "", fmt.Errorf("build: minify client script: %s", strings.Join(msgs, "; "))
	}
	return string(res.Code), nil
}
