package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Bundle is the compiled client side of a page.
type Bundle struct {
	// Script is inlined into the page as a module script.
	Script string
	// Assets are written next to the page when the builder writes it,
	// keyed by file name.
	Assets map[string][]byte
}

// Bundler compiles the client entry. Its errors are returned to the caller
// of the builder unchanged.
type Bundler interface {
	Bundle(ctx context.Context) (Bundle, error)
}

// BundlerFunc adapts a function to Bundler.
type BundlerFunc func(ctx context.Context) (Bundle, error)

// Bundle calls f.
func (f BundlerFunc) Bundle(ctx context.Context) (Bundle, error) {
	return f(ctx)
}

// Script is a Bundler for a client script that is already built.
func Script(src string) Bundler {
	return BundlerFunc(func(context.Context) (Bundle, error) {
		return Bundle{Script: src}, nil
	})
}

// Once wraps b so a successful bundle is built only once; later calls return
// it whatever their context. A failed call is not remembered, so a cancelled
// first request does not poison the ones after it. Servers building a page
// per request use it to compile the client once.
func Once(b Bundler) Bundler {
	var (
		mu     sync.Mutex
		done   bool
		bundle Bundle
	)
	return BundlerFunc(func(ctx context.Context) (Bundle, error) {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return bundle, nil
		}
		out, err := b.Bundle(ctx)
		if err != nil {
			return Bundle{}, err
		}
		bundle, done = out, true
		return bundle, nil
	})
}

// WasmBundler compiles a client main package to WebAssembly with the Go
// toolchain. The page script loads wasm_exec.js inline and fetches the
// module from URL; the module itself is shipped as the asset Name().
type WasmBundler struct {
	// Package is the client main, as accepted by go build.
	Package string
	// Dir is the working directory for go build; the module root.
	Dir string
	// WasmName is the asset name of the module. Defaults to "main.wasm".
	WasmName string
	// URL is where the page fetches the module. Defaults to the asset name,
	// resolved against the page URL, which suits a page written next to
	// its assets.
	URL string
	// GoBin is the go command. Defaults to "go".
	GoBin string
}

// Bundle runs go build with GOOS=js GOARCH=wasm.
func (w WasmBundler) Bundle(ctx context.Context) (Bundle, error) {
	goBin := w.GoBin
	if goBin == "" {
		goBin = "go"
	}
	name := w.Name()

	tmp, err := os.MkdirTemp("", "lex-wasm-")
	if err != nil {
		return Bundle{}, err
	}
	defer os.RemoveAll(tmp)

	out := filepath.Join(tmp, name)
	if _, err := w.goCmd(ctx, goBin, "build", "-o", out, w.Package); err != nil {
		return Bundle{}, err
	}
	module, err := os.ReadFile(out)
	if err != nil {
		return Bundle{}, err
	}

	support, err := w.wasmExec(ctx, goBin)
	if err != nil {
		return Bundle{}, err
	}

	return Bundle{
		Script: support + "\n" + wasmLoader(w.url()),
		Assets: map[string][]byte{name: module},
	}, nil
}

// Name is the asset name of the module.
func (w WasmBundler) Name() string {
	if w.WasmName == "" {
		return "main.wasm"
	}
	return w.WasmName
}

func (w WasmBundler) url() string {
	if w.URL == "" {
		return w.Name()
	}
	return w.URL
}

func (w WasmBundler) goCmd(ctx context.Context, goBin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, goBin, args...)
	cmd.Dir = w.Dir
	cmd.Env = append(os.Environ(), "GOOS=js", "GOARCH=wasm")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w\n%s", goBin, strings.Join(args, " "), err, stderr.String())
	}
	return out, nil
}

// wasmExec reads the JavaScript support file shipped with the toolchain.
func (w WasmBundler) wasmExec(ctx context.Context, goBin string) (string, error) {
	root, err := w.goCmd(ctx, goBin, "env", "GOROOT")
	if err != nil {
		return "", err
	}
	goroot := strings.TrimSpace(string(root))
	// lib/wasm since Go 1.24, misc/wasm before.
	for _, dir := range []string{"lib/wasm", "misc/wasm"} {
		b, err := os.ReadFile(filepath.Join(goroot, dir, "wasm_exec.js"))
		if err == nil {
			return string(b), nil
		}
	}
	return "", fmt.Errorf("wasm_exec.js not found under %s", goroot)
}

func wasmLoader(url string) string {
	return `const go = new Go();
WebAssembly.instantiateStreaming(fetch(` + "`" + url + "`" + `), go.importObject).then((result) => go.run(result.instance));`
}
