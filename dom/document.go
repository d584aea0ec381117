// Package dom is the headless lex host built on golang.org/x/net/html.
//
// The build pass creates into a Document and serializes it; tests and the
// lextest harness parse that markup back into a Document and hydrate it,
// then dispatch events on its elements. Event listeners live on the
// Document, not in the markup, so they never survive serialization.
//
// A Document is not safe for concurrent use.
package dom

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pthm/lex"
)

// Document is a parsed or freshly created HTML document.
type Document struct {
	root *html.Node

	// index maps lexid values to attached elements. It is rebuilt lazily
	// after any mutation that could move an identity.
	index map[string]*html.Node
	dirty bool

	listeners map[*html.Node]map[string][]lex.Handler
	handlers  map[*html.Node]map[string]lex.Handler
}

var (
	_ lex.Document    = (*Document)(nil)
	_ templ.Component = (*Document)(nil)
)

// New returns an empty document with the html, head and body skeleton.
func New() *Document {
	d, err := ParseString("")
	if err != nil {
		// Parsing an empty string reads from memory and cannot fail.
		panic(err)
	}
	return d
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{
		root:      root,
		dirty:     true,
		listeners: make(map[*html.Node]map[string][]lex.Handler),
		handlers:  make(map[*html.Node]map[string]lex.Handler),
	}, nil
}

// ParseString is Parse for markup held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the underlying document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) lex.Element {
	return d.wrap(&html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	})
}

// CreateText creates a detached text node.
func (d *Document) CreateText(data string) lex.Text {
	return &Text{n: &html.Node{Type: html.TextNode, Data: data}}
}

// Lookup returns the attached element whose attribute attr equals value.
// Identity lookups go through an index; other attributes walk the tree.
func (d *Document) Lookup(attr, value string) (lex.Element, bool) {
	if attr == lex.IdentityAttr {
		n, ok := d.identities()[value]
		if !ok {
			return nil, false
		}
		return d.wrap(n), true
	}
	n := find(d.root, func(n *html.Node) bool {
		v, ok := attribute(n, attr)
		return ok && v == value
	})
	if n == nil {
		return nil, false
	}
	return d.wrap(n), true
}

// Body returns the body element.
func (d *Document) Body() (lex.Element, bool) {
	el := d.FindTag("body")
	if el == nil {
		return nil, false
	}
	return el, true
}

// Head returns the head element, or nil.
func (d *Document) Head() *Element {
	return d.FindTag("head")
}

// FindTag returns the first element named tag in document order, or nil.
func (d *Document) FindTag(tag string) *Element {
	n := find(d.root, func(n *html.Node) bool { return n.Data == tag })
	if n == nil {
		return nil
	}
	return d.wrap(n)
}

// FindAll returns every element named tag in document order.
func (d *Document) FindAll(tag string) []*Element {
	var out []*Element
	walk(d.root, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, d.wrap(n))
		}
	})
	return out
}

// Element returns the element carrying the identity id, or nil.
func (d *Document) Element(id string) *Element {
	n, ok := d.identities()[id]
	if !ok {
		return nil
	}
	return d.wrap(n)
}

// Render writes the whole document, doctype included.
func (d *Document) Render(ctx context.Context, w io.Writer) error {
	return html.Render(w, d.root)
}

// String returns the serialized document.
func (d *Document) String() string {
	var sb strings.Builder
	_ = html.Render(&sb, d.root)
	return sb.String()
}

func (d *Document) wrap(n *html.Node) *Element {
	return &Element{n: n, doc: d}
}

func (d *Document) identities() map[string]*html.Node {
	if !d.dirty && d.index != nil {
		return d.index
	}
	d.index = make(map[string]*html.Node)
	walk(d.root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if v, ok := attribute(n, lex.IdentityAttr); ok {
			if _, seen := d.index[v]; !seen {
				d.index[v] = n
			}
		}
	})
	d.dirty = false
	return d.index
}

func (d *Document) invalidate() {
	d.dirty = true
}

// walk visits n and its descendants in document order.
func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// find returns the first element under n, in document order, that matches.
func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attribute(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
