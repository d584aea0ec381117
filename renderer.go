package lex

import (
	"fmt"
	"log/slog"
)

// Mode selects how the Element constructor resolves string-tag elements.
type Mode uint8

const (
	// Hydrating selects existing elements by identity and attaches behavior
	// without touching content.
	Hydrating Mode = iota
	// Active creates fresh elements.
	Active
)

func (m Mode) String() string {
	switch m {
	case Hydrating:
		return "hydrating"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

type runtime uint8

const (
	runtimeClient runtime = iota
	runtimeBuild
)

// Renderer is the context of one tree evaluation: the document, the
// identity counter, the mode flag and the client effect queue. Every
// construction call goes through a Renderer, so independent trees never
// share state.
//
// A Renderer is single-threaded; it must not be used from more than one
// goroutine.
type Renderer struct {
	doc     Document
	runtime runtime
	mode    Mode
	counter int
	effects []func()
	logger  *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewClient creates the client-side renderer. It starts in Hydrating mode:
// the markup is expected to exist already, and client effects are queued
// until Activate.
func NewClient(doc Document, opts ...Option) *Renderer {
	return newRenderer(doc, runtimeClient, Hydrating, opts)
}

// NewBuild creates the build-side renderer. It is active from the start,
// ignores client effects entirely and cannot be re-activated.
func NewBuild(doc Document, opts ...Option) *Renderer {
	return newRenderer(doc, runtimeBuild, Active, opts)
}

func newRenderer(doc Document, rt runtime, mode Mode, opts []Option) *Renderer {
	r := &Renderer{
		doc:     doc,
		runtime: rt,
		mode:    mode,
		logger:  slog.Default().With("component", "lex"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Document returns the host document.
func (r *Renderer) Document() Document {
	return r.doc
}

// Mode returns the current mode.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// Counter returns the identity the next string-tag element will receive.
func (r *Renderer) Counter() int {
	return r.counter
}

// Reset rewinds the identity counter for a new logical run.
func (r *Renderer) Reset() {
	r.counter = 0
}

// UseClient registers fn to run once the renderer is activated. On the build
// runtime it does nothing. A nil fn aborts with ErrNotCallable.
func (r *Renderer) UseClient(fn func()) {
	if r.runtime == runtimeBuild {
		return
	}
	if fn == nil {
		r.abort(ErrNotCallable)
	}
	if r.mode == Active {
		// Activation already drained the queue; a late effect would
		// otherwise never run.
		fn()
		return
	}
	r.effects = append(r.effects, fn)
}

// Activate switches from Hydrating to Active and runs the queued client
// effects in registration order, exactly once. Later calls do nothing.
func (r *Renderer) Activate() {
	if r.runtime == runtimeBuild || r.mode == Active {
		return
	}
	r.mode = Active
	r.logger.Debug("activating", "effects", len(r.effects), "elements", r.counter)
	effects := r.effects
	r.effects = nil
	for _, fn := range effects {
		fn()
	}
}

// Mount finishes a pass with the root produced by the tree.
//
// On the client it activates the renderer; the root is already in the
// document. On the build runtime it appends root to the document body.
func (r *Renderer) Mount(root any) error {
	if r.runtime == runtimeClient {
		r.Activate()
		return nil
	}
	el, ok := root.(Element)
	if !ok {
		return fmt.Errorf("%w, got %T", ErrInvalidRoot, root)
	}
	body, ok := r.doc.Body()
	if !ok {
		return fmt.Errorf("%w: document has no body", ErrMissingRoot)
	}
	body.AppendChild(el)
	return nil
}

// Run calls fn and turns a construction abort into an error. Nodes created
// before the abort stay where they are; nothing is rolled back.
//
//	root, err := r.Run(func(r *lex.Renderer) any {
//	    return r.Element(App, nil)
//	})
func (r *Renderer) Run(fn func(r *Renderer) any) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			a, ok := rec.(abort)
			if !ok {
				panic(rec)
			}
			result, err = nil, a.err
		}
	}()
	return fn(r), nil
}
