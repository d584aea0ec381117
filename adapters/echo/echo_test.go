package lexecho

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/lex"
	"github.com/pthm/lex/lib/build"
	"github.com/pthm/lex/lib/encoding"
	"github.com/pthm/lex/lib/entry"
)

var key = []byte("0123456789abcdef0123456789abcdef")

func greeting(r *lex.Renderer, props lex.Props) any {
	name := props.String("name")
	if name == "" {
		name = "world"
	}
	return r.Element("html", nil,
		r.Element("head", nil),
		r.Element("body", nil, r.Element("h1", nil, "hello "+name)),
	)
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// wasmBundle returns a bundler shipping one module under the default name.
func wasmBundle(module string, calls *int) build.Bundler {
	return build.BundlerFunc(func(ctx context.Context) (build.Bundle, error) {
		if calls != nil {
			*calls++
		}
		if err := ctx.Err(); err != nil {
			return build.Bundle{}, err
		}
		return build.Bundle{Script: "/* client */", Assets: map[string][]byte{"main.wasm": []byte(module)}}, nil
	})
}

func TestMountRendersPage(t *testing.T) {
	e := echo.New()
	Mount(e, "/hello", entry.Standard(greeting), WithKey(key), quiet())

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/hello?name=lex", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))
	assert.Contains(t, body, `<h1 lexid="1">hello lex</h1>`)
	assert.Contains(t, body, `id="`+encoding.ScriptID+`"`)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestPageInputRequestIsSigned(t *testing.T) {
	e := echo.New()
	Mount(e, "/hello", entry.Standard(greeting), WithKey(key), quiet())

	req := httptest.NewRequest(http.MethodGet, "/hello?name=signed", nil)
	req.Header.Set("Accept", lex.InputContentType)
	rec := serve(e, req)

	require.Equal(t, lex.InputContentType, rec.Header().Get("Content-Type"))
	input, err := encoding.New(encoding.WithKey(key)).Decode(rec.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "signed", input.String("name"))
}

func TestRerender(t *testing.T) {
	e := echo.New()
	Mount(e, "/hello", entry.Standard(greeting), WithKey(key), quiet())

	signed, err := encoding.New(encoding.WithKey(key)).Encode(lex.Props{"name": "again"})
	require.NoError(t, err)

	rec := serve(e, httptest.NewRequest(http.MethodPost, "/hello", strings.NewReader(signed)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello again")
}

func TestRerenderRejectsBadInput(t *testing.T) {
	forged, err := encoding.New(encoding.WithKey([]byte("other"))).Encode(lex.Props{"name": "admin"})
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"forged", forged, http.StatusForbidden},
		{"malformed", "garbage", http.StatusBadRequest},
	}

	e := echo.New()
	Mount(e, "/hello", entry.Standard(greeting), WithKey(key), quiet())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, httptest.NewRequest(http.MethodPost, "/hello", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRandomKeyByDefault(t *testing.T) {
	a := NewHandler(entry.Standard(greeting), quiet())
	b := NewHandler(entry.Standard(greeting), quiet())

	signed, err := a.signer.Encode(lex.Props{"n": 1})
	require.NoError(t, err)
	_, err = b.signer.Decode(signed)
	assert.Error(t, err, "handlers without a key should not share one")
}

func TestAssets(t *testing.T) {
	calls := 0
	e := echo.New()
	h := Mount(e, "/app/page", entry.Standard(greeting), WithBundler(wasmBundle("\x00asm", &calls)), quiet())
	assert.Equal(t, "/app/page/_lex", h.AssetPrefix())

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/app/page/_lex/main.wasm", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/wasm", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x00asm", rec.Body.String())

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/app/page/_lex/missing.js", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	serve(e, httptest.NewRequest(http.MethodGet, "/app/page", nil))
	serve(e, httptest.NewRequest(http.MethodGet, "/app/page", nil))
	assert.Equal(t, 1, calls, "bundler runs once")
}

func TestAssetsScopedPerPage(t *testing.T) {
	e := echo.New()
	Mount(e, "/a", entry.Standard(greeting), WithBundler(wasmBundle("A", nil)), quiet())
	Mount(e, "/b", entry.Standard(greeting), WithBundler(wasmBundle("B", nil)), quiet())

	for page, want := range map[string]string{"/a": "A", "/b": "B"} {
		rec := serve(e, httptest.NewRequest(http.MethodGet, page+"/_lex/main.wasm", nil))
		require.Equal(t, http.StatusOK, rec.Code, page)
		assert.Equal(t, want, rec.Body.String(), page)
	}
}

func TestAssetsRetryAfterFailedBundle(t *testing.T) {
	calls := 0
	e := echo.New()
	Mount(e, "/page", entry.Standard(greeting), WithBundler(wasmBundle("ok", &calls)), quiet())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/page/_lex/main.wasm", nil).WithContext(ctx))
	assert.NotEqual(t, http.StatusOK, rec.Code)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/page/_lex/main.wasm", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, 2, calls)
}

func TestAssetBundler(t *testing.T) {
	tests := []struct {
		name    string
		bundler build.Bundler
		prefix  string
		want    build.Bundler
	}{
		{"wasm", build.WasmBundler{Package: "./client"}, "/a/_lex", build.WasmBundler{Package: "./client", URL: "/a/_lex/main.wasm"}},
		{"named wasm", build.WasmBundler{WasmName: "app.wasm"}, "/_lex", build.WasmBundler{WasmName: "app.wasm", URL: "/_lex/app.wasm"}},
		{"url kept", build.WasmBundler{URL: "/cdn/x.wasm"}, "/a/_lex", build.WasmBundler{URL: "/cdn/x.wasm"}},
		{"not mounted", build.WasmBundler{}, "", build.WasmBundler{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, assetBundler(tt.bundler, tt.prefix))
		})
	}
}

func TestMountGroup(t *testing.T) {
	e := echo.New()
	used := false
	g := e.Group("/app", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			used = true
			return next(c)
		}
	})
	h := MountGroup(g, "/hello", entry.Standard(greeting), quiet())
	assert.Equal(t, "/app/hello/_lex", h.AssetPrefix(), "prefix includes the group")

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/app/hello", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, used, "group middleware runs")
	assert.Contains(t, rec.Body.String(), "hello world")
}

func TestBuildErrorIsServerError(t *testing.T) {
	e := echo.New()
	Mount(e, "/broken", entry.Standard(func(r *lex.Renderer, props lex.Props) any {
		return r.Element("div", nil)
	}), quiet())

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
