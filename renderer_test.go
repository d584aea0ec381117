package lex_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/lex"
	"github.com/pthm/lex/dom"
)

func TestNewClientStartsHydrating(t *testing.T) {
	r := lex.NewClient(dom.New())
	assert.Equal(t, lex.Hydrating, r.Mode())
	assert.Equal(t, "hydrating", r.Mode().String())
	assert.Equal(t, 0, r.Counter())
}

func TestNewBuildStartsActive(t *testing.T) {
	r := lex.NewBuild(dom.New())
	assert.Equal(t, lex.Active, r.Mode())
	assert.Equal(t, "active", r.Mode().String())
}

func TestActivateDrainsOnce(t *testing.T) {
	r := lex.NewClient(dom.New())

	var ran []int
	r.UseClient(func() { ran = append(ran, 1) })
	r.UseClient(func() { ran = append(ran, 2) })
	assert.Empty(t, ran, "effects wait for activation")

	r.Activate()
	r.Activate()

	assert.Equal(t, []int{1, 2}, ran)
	assert.Equal(t, lex.Active, r.Mode())
}

func TestUseClientAfterActivationRunsImmediately(t *testing.T) {
	r := lex.NewClient(dom.New())
	r.Activate()

	ran := false
	r.UseClient(func() { ran = true })
	assert.True(t, ran)
}

func TestEffectRegisteredDuringDrain(t *testing.T) {
	r := lex.NewClient(dom.New())

	var order []string
	r.UseClient(func() {
		order = append(order, "outer")
		r.UseClient(func() { order = append(order, "inner") })
	})
	r.UseClient(func() { order = append(order, "second") })

	r.Activate()
	r.Activate()
	assert.Equal(t, []string{"outer", "inner", "second"}, order)
}

func TestBuildIgnoresEffects(t *testing.T) {
	r := lex.NewBuild(dom.New())

	ran := false
	r.UseClient(func() { ran = true })
	r.Activate()
	assert.False(t, ran)

	// Even a nil effect is ignored on the build runtime.
	_, err := r.Run(func(r *lex.Renderer) any {
		r.UseClient(nil)
		return nil
	})
	assert.NoError(t, err)
}

func TestUseClientNil(t *testing.T) {
	r := lex.NewClient(dom.New())
	_, err := r.Run(func(r *lex.Renderer) any {
		r.UseClient(nil)
		return nil
	})
	assert.ErrorIs(t, err, lex.ErrNotCallable)
}

func TestMountClientActivates(t *testing.T) {
	r := lex.NewClient(dom.New())
	ran := 0
	r.UseClient(func() { ran++ })

	require.NoError(t, r.Mount(nil))
	require.NoError(t, r.Mount(nil))
	assert.Equal(t, 1, ran)
	assert.Equal(t, lex.Active, r.Mode())
}

func TestMountBuildAppendsToBody(t *testing.T) {
	doc := dom.New()
	r := lex.NewBuild(doc)

	root, err := r.Run(func(r *lex.Renderer) any {
		return r.Element("main", nil, "x")
	})
	require.NoError(t, err)
	require.NoError(t, r.Mount(root))

	b, _ := doc.Body()
	assert.Equal(t, `<main lexid="0">x</main>`, b.(*dom.Element).InnerHTML())
}

func TestMountBuildRejectsNonElement(t *testing.T) {
	r := lex.NewBuild(dom.New())

	err := r.Mount([]any{"a"})
	assert.ErrorIs(t, err, lex.ErrInvalidRoot)
	assert.Contains(t, err.Error(), "[]interface {}")
}

func TestMountBuildWithoutBody(t *testing.T) {
	doc, err := dom.ParseString(`<html><head></head><body></body></html>`)
	require.NoError(t, err)
	b, _ := doc.Body()
	b.(*dom.Element).Remove()

	r := lex.NewBuild(doc)
	err = r.Mount(doc.CreateElement("div"))
	assert.ErrorIs(t, err, lex.ErrMissingRoot)
}

func TestRunRepanicsForeignPanics(t *testing.T) {
	r := lex.NewBuild(dom.New())
	assert.PanicsWithValue(t, "boom", func() {
		_, _ = r.Run(func(r *lex.Renderer) any { panic("boom") })
	})
}

func TestRunLeavesNodesInPlace(t *testing.T) {
	doc := dom.New()
	r := lex.NewBuild(doc)

	var first lex.Element
	_, err := r.Run(func(r *lex.Renderer) any {
		first = r.H("p", nil, "kept")
		return r.Element("div", nil, first, func() {})
	})
	require.ErrorIs(t, err, lex.ErrInvalidChild)
	assert.Equal(t, `<p lexid="0">kept</p>`, first.(*dom.Element).OuterHTML())
}

func TestReset(t *testing.T) {
	r := lex.NewBuild(dom.New())
	_, err := r.Run(func(r *lex.Renderer) any {
		return r.Element("div", nil, r.Element("span", nil))
	})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Counter())

	r.Reset()
	assert.Equal(t, 0, r.Counter())
}

func TestIndependentRenderers(t *testing.T) {
	a := lex.NewBuild(dom.New())
	b := lex.NewBuild(dom.New())

	_, _ = a.Run(func(r *lex.Renderer) any { return r.Element("i", nil) })
	_, _ = a.Run(func(r *lex.Renderer) any { return r.Element("i", nil) })
	_, _ = b.Run(func(r *lex.Renderer) any { return r.Element("i", nil) })

	assert.Equal(t, 2, a.Counter())
	assert.Equal(t, 1, b.Counter())
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := lex.NewClient(dom.New(), lex.WithLogger(logger), lex.WithLogger(nil))
	r.UseClient(func() {})
	r.Activate()

	assert.Contains(t, buf.String(), "activating")
	assert.Contains(t, buf.String(), "effects=1")
}

// The counter scenario: a cell rendered into an h1 and a button that
// increments it.
func Counter(r *lex.Renderer, props lex.Props) any {
	start, _ := props.Int("start")
	count, setCount := lex.UseState(start)
	return r.Element(lex.Fragment, nil,
		r.Element("h1", nil, count),
		r.Element("button", lex.Props{"onClick": func() { setCount(count.Value() + 1) }}, "+"),
	)
}

func TestCounterScenario(t *testing.T) {
	tree := func(r *lex.Renderer) any {
		return r.Element("div", nil, r.Element(Counter, nil))
	}

	doc, _ := build(t, tree)
	assert.Equal(t, `<div lexid="2"><h1 lexid="0">0</h1><button lexid="1">+</button></div>`, body(t, doc))

	parsed, r, err := hydrate(t, doc, tree)
	require.NoError(t, err)
	assert.Equal(t, lex.Active, r.Mode())

	h1 := parsed.Element("0")
	button := parsed.Element("1")
	h1Node, buttonNode := h1.Node(), button.Node()

	require.True(t, button.Click())

	assert.Equal(t, "1", parsed.Element("0").TextContent())
	assert.Same(t, h1Node, parsed.Element("0").Node())
	assert.Same(t, buttonNode, parsed.Element("1").Node())
}

func TestErrorsAreComparable(t *testing.T) {
	_, err := lex.NewClient(dom.New()).Run(func(r *lex.Renderer) any {
		return r.Element("div", nil)
	})
	assert.True(t, errors.Is(err, lex.ErrDivergence))
	assert.False(t, lex.IsUsageError(err))
}
