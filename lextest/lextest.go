// Package lextest runs lex trees through both passes on headless documents
// so tests can assert on markup and on behavior after hydration.
//
// A round trip builds the tree, serializes the document, parses the markup
// back as a browser would, and hydrates the copy:
//
//	res, err := lextest.RoundTrip(func(r *lex.Renderer) any {
//	    return r.Element(Counter, nil)
//	})
//	res.Click(1)
//	if res.Text(0) != "1" {
//	    t.Fatal("counter did not update")
//	}
package lextest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pthm/lex"
	"github.com/pthm/lex/dom"
	"github.com/pthm/lex/lib/encoding"
	"github.com/pthm/lex/lib/entry"
)

// ErrNoElement is returned when a test addresses an identity the document
// does not contain.
var ErrNoElement = errors.New("lextest: no element with that identity")

// ErrNoHandler is returned when a dispatched event reaches no handler.
var ErrNoHandler = errors.New("lextest: event has no handler")

// Tree is a function evaluating a component tree.
type Tree func(r *lex.Renderer) any

// TestResult holds both passes of a tree.
type TestResult struct {
	// HTML is the markup produced by the build pass: the whole document
	// when the tree renders the html element, the body contents otherwise.
	HTML string
	// Elements is the number of identities the build pass assigned.
	Elements int

	Built    *dom.Document
	Hydrated *dom.Document
	Client   *lex.Renderer
}

// Build runs only the build pass.
//
//	res, err := lextest.Build(tree)
//	if !res.HTMLContains(`<h1 lexid="0">0</h1>`) { ... }
func Build(tree Tree) (*TestResult, error) {
	doc := dom.New()
	r := lex.NewBuild(doc)
	root, err := r.Run(tree)
	if err != nil {
		return nil, err
	}
	if err := r.Mount(root); err != nil {
		return nil, err
	}
	html := bodyHTML(doc)
	if el, ok := root.(*dom.Element); ok && el.NodeName() == "html" {
		html = "<!DOCTYPE html>" + el.OuterHTML()
	}
	return &TestResult{
		HTML:     html,
		Elements: r.Counter(),
		Built:    doc,
	}, nil
}

// RoundTrip builds tree, reparses the markup and hydrates the copy.
func RoundTrip(tree Tree) (*TestResult, error) {
	return NewRoundTrip(tree).Execute()
}

// Hydrate runs only the hydrate pass, against markup supplied by the test.
// Use it to check how a tree reacts to markup it did not produce.
func Hydrate(markup string, tree Tree) (*TestResult, error) {
	doc, err := dom.ParseString(markup)
	if err != nil {
		return nil, err
	}
	res := &TestResult{Hydrated: doc}
	if err := res.hydrate(tree); err != nil {
		return res, err
	}
	return res, nil
}

// Entry round-trips an entry the way the build pipeline does: the input is
// encoded and both passes see the decoded copy.
func Entry(e entry.Entry, input lex.Props) (*TestResult, error) {
	_, decoded, err := encoding.New().RoundTrip(input)
	if err != nil {
		return nil, err
	}
	return RoundTrip(func(r *lex.Renderer) any {
		return e(r, decoded)
	})
}

// RoundTripBuilder configures a round trip.
//
//	res, err := lextest.NewRoundTrip(tree).
//	    Between(func(doc *dom.Document) { doc.Element("3").Remove() }).
//	    Execute()
type RoundTripBuilder struct {
	tree    Tree
	between []func(*dom.Document)
}

// NewRoundTrip starts a round trip of tree.
func NewRoundTrip(tree Tree) *RoundTripBuilder {
	return &RoundTripBuilder{tree: tree}
}

// Between registers fn to edit the reparsed document before hydration.
func (b *RoundTripBuilder) Between(fn func(doc *dom.Document)) *RoundTripBuilder {
	b.between = append(b.between, fn)
	return b
}

// Execute runs the round trip. When hydration fails the partial result is
// returned with the error.
func (b *RoundTripBuilder) Execute() (*TestResult, error) {
	res, err := Build(b.tree)
	if err != nil {
		return nil, fmt.Errorf("build pass: %w", err)
	}

	res.Hydrated, err = dom.ParseString(res.HTML)
	if err != nil {
		return nil, err
	}
	for _, fn := range b.between {
		fn(res.Hydrated)
	}

	if err := res.hydrate(b.tree); err != nil {
		return res, err
	}
	return res, nil
}

func (res *TestResult) hydrate(tree Tree) error {
	res.Client = lex.NewClient(res.Hydrated)
	root, err := res.Client.Run(tree)
	if err != nil {
		return err
	}
	return res.Client.Mount(root)
}

// HTMLContains checks if the build markup contains a substring.
func (res *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(res.HTML, substr)
}

// HTMLContainsAll checks if the build markup contains all the given substrings.
func (res *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(res.HTML, s) {
			return false
		}
	}
	return true
}

// HTMLContainsAny checks if the build markup contains any of the given substrings.
func (res *TestResult) HTMLContainsAny(substrs ...string) bool {
	for _, s := range substrs {
		if strings.Contains(res.HTML, s) {
			return true
		}
	}
	return false
}

// Current returns the body markup of the hydrated document as it is now,
// after any updates.
func (res *TestResult) Current() string {
	return bodyHTML(res.document())
}

// Element returns the element with identity id in the hydrated document,
// or in the built one for build-only results.
func (res *TestResult) Element(id int) *dom.Element {
	return res.document().Element(strconv.Itoa(id))
}

// Text returns the text content of the element with identity id.
func (res *TestResult) Text(id int) string {
	el := res.Element(id)
	if el == nil {
		return ""
	}
	return el.TextContent()
}

// Attr returns an attribute of the element with identity id.
func (res *TestResult) Attr(id int, name string) string {
	el := res.Element(id)
	if el == nil {
		return ""
	}
	v, _ := el.Attribute(name)
	return v
}

// Dispatch fires event on the element with identity id.
func (res *TestResult) Dispatch(id int, event string) error {
	el := res.Element(id)
	if el == nil {
		return fmt.Errorf("%w: %d", ErrNoElement, id)
	}
	if !el.Dispatch(event) {
		return fmt.Errorf("%w: %s on <%s %s=\"%d\">", ErrNoHandler, event, el.NodeName(), lex.IdentityAttr, id)
	}
	return nil
}

// Click dispatches a click on the element with identity id.
func (res *TestResult) Click(id int) error {
	return res.Dispatch(id, "click")
}

func (res *TestResult) document() *dom.Document {
	if res.Hydrated != nil {
		return res.Hydrated
	}
	return res.Built
}

func bodyHTML(doc *dom.Document) string {
	b, ok := doc.Body()
	if !ok {
		return ""
	}
	return b.(*dom.Element).InnerHTML()
}
