package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/lex"
	"github.com/pthm/lex/dom"
	"github.com/pthm/lex/lib/build"
	"github.com/pthm/lex/lib/encoding"
	"github.com/pthm/lex/lib/generator"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, defaultConfig)
	writeFile(t, path, `
page:
  dir: ./pages
  name: Home
layout:
  dir: ./layouts
  name: Shell
outfile: dist/index.html
minify: false
write: true
input:
  start: 3
`)

	cfg, err := loadConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, ComponentRef{Dir: "./pages", Name: "Home"}, cfg.Page)
	require.NotNil(t, cfg.Layout)
	assert.Equal(t, "Shell", cfg.Layout.Name)
	assert.Equal(t, "dist/index.html", cfg.Outfile)
	assert.False(t, cfg.Minify)
	assert.True(t, cfg.Write)
	assert.Equal(t, ".lex", cfg.Gen)
	assert.Equal(t, 3, cfg.input()["start"])
	assert.Equal(t, filepath.Join(dir, "dist/index.html"), cfg.path(cfg.Outfile))
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), defaultConfig), true)
	require.NoError(t, err)
	assert.True(t, cfg.Minify)
	assert.Equal(t, ".lex", cfg.Gen)

	_, err = loadConfig(filepath.Join(t.TempDir(), defaultConfig), false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), defaultConfig)
	writeFile(t, path, "page: [")
	_, err := loadConfig(path, false)
	assert.Error(t, err)
}

func TestConfigEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/site\n\ngo 1.23\n")
	path := filepath.Join(dir, defaultConfig)
	writeFile(t, path, "page:\n  dir: ./pages\n  name: Home\nlayout:\n  name: Shell\n")

	cfg, err := loadConfig(path, false)
	require.NoError(t, err)
	e, err := cfg.entry()
	require.NoError(t, err)

	assert.Equal(t, generator.Ref{Import: "example.com/site/pages", Name: "Home", Dir: filepath.Join(dir, "pages")}, e.Page)
	require.NotNil(t, e.Layout)
	assert.Equal(t, "example.com/site", e.Layout.Import)
}

func TestConfigEntryNeedsPage(t *testing.T) {
	cfg := &Config{}
	_, err := cfg.entry()
	assert.Error(t, err)
}

func TestBuildArgs(t *testing.T) {
	cfg := &Config{root: "/site", Gen: ".lex"}
	cfg.Minify = true
	cfg.Write = true
	cfg.Outfile = "dist/index.html"
	g := generator.New(generator.Options{Out: cfg.path(cfg.Gen)})

	args := buildArgs(cfg, g, "abc.def")
	assert.Equal(t, []string{
		"run", "./.lex/build",
		"--client", "./.lex/client",
		"--input", "abc.def",
		"--minify=true",
		"--outfile", "dist/index.html",
	}, args)
}

func TestBuildCommandNeedsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, defaultConfig)
	writeFile(t, path, "page:\n  name: Home\noutfile: dist/index.html\nwrite: false\n")

	err := app(io.Discard).Run(context.Background(), []string{"lex", "--config", path, "build"})
	assert.ErrorIs(t, err, build.ErrClientNeedsOutfile)
}

const builtPage = `<!DOCTYPE html><html lexid="3"><head lexid="0"></head><body lexid="2"><h1 lexid="1">hi</h1></body></html>`

func TestPrintIdentities(t *testing.T) {
	doc, err := dom.ParseString(builtPage)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printIdentities(&buf, doc))
	out := buf.String()
	assert.Contains(t, out, "html>body>h1")
	assert.Contains(t, out, "ELEMENTS")
}

func TestPrintIdentitiesGap(t *testing.T) {
	doc, err := dom.ParseString(`<div lexid="0"></div><div lexid="2"></div>`)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = printIdentities(&buf, doc)
	assert.ErrorIs(t, err, dom.ErrIdentityGap)
	assert.Contains(t, buf.String(), "html>body>div", "table is printed before the error")
}

func TestIDsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	writeFile(t, path, builtPage)

	var buf bytes.Buffer
	require.NoError(t, app(&buf).Run(context.Background(), []string{"lex", "ids", path}))
	assert.Contains(t, buf.String(), "html>head")

	assert.Error(t, app(io.Discard).Run(context.Background(), []string{"lex", "ids"}))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, app(&buf).Run(context.Background(), []string{"lex", "version"}))
	assert.Equal(t, "lex version "+version+"\n", buf.String())
}

func pageWithInput(t *testing.T, input lex.Props) string {
	t.Helper()
	enc, err := encoding.New().Encode(input)
	require.NoError(t, err)
	return `<!DOCTYPE html><html lexid="1"><head lexid="0"><script type="` + encoding.ScriptType +
		`" id="` + encoding.ScriptID + `">` + enc + `</script></head><body></body></html>`
}

func TestPageHandler(t *testing.T) {
	page := pageWithInput(t, lex.Props{"start": 3})
	key := []byte("secret")
	h, err := newPageHandler(page, nil, encoding.New(encoding.WithKey(key)), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	t.Run("page", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, page, rec.Body.String())
	})

	t.Run("input", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", lex.InputContentType)
		h.ServeHTTP(rec, req)

		assert.Equal(t, lex.InputContentType, rec.Header().Get("Content-Type"))
		props, err := encoding.New(encoding.WithKey(key)).Decode(rec.Body.String())
		require.NoError(t, err)
		n, ok := props.Int("start")
		assert.True(t, ok)
		assert.Equal(t, 3, n)

		_, err = encoding.New().Decode(rec.Body.String())
		assert.Error(t, err, "signed input does not verify as a checksum")
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPageHandlerNoInput(t *testing.T) {
	_, err := newPageHandler(builtPage, nil, encoding.New(), slog.Default())
	assert.ErrorIs(t, err, errNoInput)
}

func TestPageHandlerServesAssets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.wasm"), "\x00asm")
	page := pageWithInput(t, lex.Props{})
	writeFile(t, filepath.Join(dir, "index.html"), page)

	h, err := newPageHandler(page, http.Dir(dir), encoding.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/main.wasm", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/wasm", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x00asm", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing.wasm", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, page, rec.Body.String())
}
