package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pthm/lex"
	"github.com/pthm/lex/dom"
	"github.com/pthm/lex/lib/encoding"
)

var errNoInput = errors.New("serve: page has no input script")

// pageHandler serves one built page at "/" and the files next to it, such as
// the wasm module, everywhere else. Requests for the page input alone get
// the encoded input, re-tagged with the handler's encoder.
type pageHandler struct {
	page   string
	input  string
	assets http.Handler
	log    *slog.Logger
}

// newPageHandler parses page for its input. assets may be nil.
func newPageHandler(page string, assets http.FileSystem, enc *encoding.Encoder, log *slog.Logger) (*pageHandler, error) {
	doc, err := dom.ParseString(page)
	if err != nil {
		return nil, err
	}
	el, ok := doc.Lookup("id", encoding.ScriptID)
	if !ok {
		return nil, errNoInput
	}
	props, err := encoding.New().Decode(el.(*dom.Element).TextContent())
	if err != nil {
		return nil, fmt.Errorf("page input: %w", err)
	}
	input, err := enc.Encode(props)
	if err != nil {
		return nil, err
	}
	h := &pageHandler{page: page, input: input, log: log}
	if assets != nil {
		h.assets = http.FileServer(assets)
	}
	return h, nil
}

func (h *pageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		if h.assets == nil {
			http.NotFound(w, r)
			return
		}
		h.assets.ServeHTTP(w, r)
		return
	}
	if lex.IsPageInputRequest(r) {
		w.Header().Set("Content-Type", lex.InputContentType)
		_, _ = w.Write([]byte(h.input))
		return
	}
	if err := lex.Render(w, r, lex.Page(h.page)); err != nil {
		h.log.Error("render failed", "error", err)
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	log := logger(cmd)
	cfg, err := config(cmd, false)
	if err != nil {
		return err
	}
	if cfg.Outfile == "" {
		return errors.New("serve: config has no outfile")
	}
	page, err := os.ReadFile(cfg.path(cfg.Outfile))
	if err != nil {
		return fmt.Errorf("serve: %w (run lex build first)", err)
	}

	var opts []encoding.Option
	if key := cmd.String(keyKey); key != "" {
		opts = append(opts, encoding.WithKey([]byte(key)))
	}
	assets := http.Dir(filepath.Dir(cfg.path(cfg.Outfile)))
	h, err := newPageHandler(string(page), assets, encoding.New(opts...), log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cmd.String(addrKey),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info("serving", "addr", srv.Addr, "page", cfg.Outfile)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
