// Package lexecho serves lex pages from an Echo application. Each request
// runs the build pass with input taken from the request, so one entry serves
// many pages.
//
//	e := echo.New()
//	lexecho.Mount(e, "/counter", entry.Standard(Counter),
//	    lexecho.WithBundler(build.WasmBundler{Package: "./client"}),
//	    lexecho.WithKey(key),
//	)
//
// GET renders the page. GET with Accept: application/x-lex-input returns the
// page input alone, signed with the key, and POST renders the page again from
// a signed input the server handed out earlier. Client assets such as the
// wasm module are served under the page, at <page>/_lex/<asset>; a
// WasmBundler without a URL is pointed there by Mount.
package lexecho

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"sync"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/pthm/lex"
	"github.com/pthm/lex/lib/build"
	"github.com/pthm/lex/lib/encoding"
	"github.com/pthm/lex/lib/entry"
)

// InputFunc derives page input from a request.
type InputFunc func(c echo.Context) (lex.Props, error)

// Option configures Mount and MountGroup.
type Option func(*options)

type options struct {
	key     []byte
	bundler build.Bundler
	input   InputFunc
	minify  bool
	logger  *slog.Logger

	// assets is the URL prefix client assets are served under.
	assets string
}

// WithKey sets the key signing the input handed to clients.
// If not provided, a random key is generated (suitable for development only:
// signed inputs do not survive a restart).
func WithKey(key []byte) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithBundler sets the client bundler. It runs until it first succeeds and
// its bundle is reused after that. Defaults to an empty script.
func WithBundler(b build.Bundler) Option {
	return func(o *options) {
		o.bundler = b
	}
}

// WithInput replaces QueryInput.
func WithInput(fn InputFunc) Option {
	return func(o *options) {
		o.input = fn
	}
}

// WithMinify minifies the client script.
func WithMinify(minify bool) Option {
	return func(o *options) {
		o.minify = minify
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// QueryInput uses the query string as page input, one string per key.
func QueryInput(c echo.Context) (lex.Props, error) {
	input := lex.Props{}
	for k, v := range c.QueryParams() {
		if len(v) > 0 {
			input[k] = v[0]
		}
	}
	return input, nil
}

// Handler serves one entry.
type Handler struct {
	entry   entry.Entry
	bundler build.Bundler
	signer  *encoding.Encoder
	input   InputFunc
	logger  *slog.Logger
	assets  string

	// Builders are not safe for concurrent use.
	mu sync.Mutex
	b  *build.Builder
}

// NewHandler creates a handler for e.
func NewHandler(e entry.Entry, opts ...Option) *Handler {
	o := &options{input: QueryInput, logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	key := o.key
	if key == nil {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("lexecho: failed to generate random key: %v", err))
		}
	}
	bundler := o.bundler
	if bundler == nil {
		bundler = build.Script("")
	}
	bundler = build.Once(assetBundler(bundler, o.assets))
	logger := o.logger.With("component", "lexecho")

	return &Handler{
		entry:   e,
		bundler: bundler,
		signer:  encoding.New(encoding.WithKey(key)),
		input:   o.input,
		logger:  logger,
		assets:  o.assets,
		b:       build.New(bundler, build.Options{Minify: o.minify}, build.WithLogger(logger)),
	}
}

// AssetPrefix is the URL path client assets are served under, or "" for a
// handler that was not mounted.
func (h *Handler) AssetPrefix() string {
	return h.assets
}

// Page renders the page for the request.
func (h *Handler) Page(c echo.Context) error {
	input, err := h.input(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if lex.IsPageInputRequest(c.Request()) {
		signed, err := h.signer.Encode(input)
		if err != nil {
			return err
		}
		return c.Blob(http.StatusOK, lex.InputContentType, []byte(signed))
	}
	return h.render(c, input)
}

// Rerender renders the page from a signed input in the request body.
func (h *Handler) Rerender(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return err
	}
	input, err := h.signer.Decode(string(body))
	if err != nil {
		if errors.Is(err, encoding.ErrSignatureInvalid) {
			return echo.NewHTTPError(http.StatusForbidden, "invalid page input")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.render(c, input)
}

// Asset serves a client asset produced by the bundler.
func (h *Handler) Asset(c echo.Context) error {
	bundle, err := h.bundler.Bundle(c.Request().Context())
	if err != nil {
		return err
	}
	data, ok := bundle.Assets[c.Param("asset")]
	if !ok {
		return echo.ErrNotFound
	}
	return c.Blob(http.StatusOK, contentType(c.Param("asset")), data)
}

func (h *Handler) render(c echo.Context, input lex.Props) error {
	h.mu.Lock()
	page, err := h.b.Page(c.Request().Context(), h.entry, input)
	h.mu.Unlock()
	if err != nil {
		h.logger.Error("page build failed", "path", c.Path(), "error", err)
		return err
	}
	return Render(c, lex.Page(page))
}

// assetBundler points a WasmBundler without a URL at the asset route of its
// page. Other bundlers are returned unchanged.
func assetBundler(b build.Bundler, prefix string) build.Bundler {
	wb, ok := b.(build.WasmBundler)
	if !ok || prefix == "" || wb.URL != "" {
		return b
	}
	wb.URL = path.Join(prefix, wb.Name())
	return wb
}

func contentType(name string) string {
	if path.Ext(name) == ".wasm" {
		return "application/wasm"
	}
	return echo.MIMEOctetStream
}

// router is satisfied by *echo.Echo and *echo.Group.
type router interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// Mount serves e at p on an Echo instance.
//
//	lexecho.Mount(e, "/", entry.Layout(Shell, Home))
func Mount(e *echo.Echo, p string, ent entry.Entry, opts ...Option) *Handler {
	return mount(e, p, ent, opts)
}

// MountGroup serves e at p on a group, sharing the group's middleware
// (auth, logging, etc.).
func MountGroup(g *echo.Group, p string, ent entry.Entry, opts ...Option) *Handler {
	return mount(g, p, ent, opts)
}

// AssetDir is the path segment under a page that its client assets are
// served from.
const AssetDir = "_lex"

func mount(r router, p string, ent entry.Entry, opts []Option) *Handler {
	var h *Handler
	// The route's path includes any group prefix, which the page's script
	// needs to reach its assets.
	route := r.GET(p, func(c echo.Context) error { return h.Page(c) })
	prefix := path.Join(route.Path, AssetDir)
	h = NewHandler(ent, append(opts[:len(opts):len(opts)], func(o *options) { o.assets = prefix })...)
	r.POST(p, h.Rerender)
	r.GET(path.Join(p, AssetDir, ":asset"), h.Asset)
	return h
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return lexecho.Render(c, doc)
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
