// Package lex renders one component tree two ways: into a headless document
// at build time, and onto the browser's existing DOM at load time. The second
// pass does not recreate nodes; it finds the ones the first pass produced and
// attaches behavior to them.
//
// Components are plain functions that call Renderer.Element:
//
//	func Counter(r *lex.Renderer, props lex.Props) any {
//	    count, setCount := lex.UseState(0)
//	    return r.Element("div", nil,
//	        r.Element("output", nil, count),
//	        r.Element("button", lex.Props{"onClick": func() { setCount(count.Value() + 1) }}, "+"),
//	    )
//	}
//
// # Identity
//
// Every element gets an integer identity from a counter on the renderer,
// assigned after its children, so children always have lower identities than
// their parent. The build pass writes it as the lexid attribute. The hydrate
// pass evaluates the same tree with the same input, computes the same
// identities and looks the nodes up by lexid. Nothing else ties the two
// passes together, so the tree must be deterministic in its input.
//
// A lookup that misses aborts the pass with a *DivergenceError.
//
// # Modes
//
// A Renderer made with NewBuild is Active from the start: it creates nodes
// and ignores client effects. One made with NewClient starts out Hydrating:
// it selects nodes, and UseClient queues effects until Activate runs them.
// After activation effects run immediately.
//
// # Reactivity
//
// A Cell holds a value and notifies subscribers synchronously on SetValue.
// A cell used as an attribute, text child or event handler is applied once
// and rebound on every change. Text children are bound by position, so an
// element holding a cell may not hold adjacent text children or empty
// literal text; the layout check fails both passes the same way.
//
// # Errors
//
// Errors raised while evaluating a tree unwind to Renderer.Run, which
// returns them. Usage errors (ErrInvalidTag, ErrInvalidChild, ErrInvalidProp,
// ErrAsyncComponent, ErrTextLayout) mean the tree is wrong; a
// *DivergenceError means the markup does not match the tree.
//
// # Pages
//
// Packages under lib/ turn a tree into a page: entry shares one entry point
// between the build and client binaries, generator writes those binaries,
// encoding carries the page input from one to the other, and build emits the
// HTML. The dom package is the headless document; dom/browser is the real
// one under js/wasm.
package lex
