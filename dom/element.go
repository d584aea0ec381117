package dom

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/net/html"

	"github.com/pthm/lex"
)

// Element is an element of a Document.
//
// Wrappers are cheap and not unique: two Lookups of the same element return
// distinct *Element values that share listeners, attributes and children.
type Element struct {
	n   *html.Node
	doc *Document
}

var (
	_ lex.Element     = (*Element)(nil)
	_ templ.Component = (*Element)(nil)
)

// Node returns the underlying html node.
func (e *Element) Node() *html.Node {
	return e.n
}

// NodeName returns the tag name.
func (e *Element) NodeName() string {
	return e.n.Data
}

// Attribute returns the value of the named attribute.
func (e *Element) Attribute(name string) (string, bool) {
	return attribute(e.n, name)
}

// ID returns the element's lexid, or "" when it has none.
func (e *Element) ID() string {
	v, _ := attribute(e.n, lex.IdentityAttr)
	return v
}

// SetAttribute sets or replaces an attribute.
func (e *Element) SetAttribute(name, value string) {
	if name == lex.IdentityAttr {
		e.doc.invalidate()
	}
	for i, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == name {
			e.n.Attr[i].Val = value
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttribute deletes an attribute if present.
func (e *Element) RemoveAttribute(name string) {
	for i, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == name {
			e.n.Attr = append(e.n.Attr[:i], e.n.Attr[i+1:]...)
			if name == lex.IdentityAttr {
				e.doc.invalidate()
			}
			return
		}
	}
}

// AppendChild moves child to the end of e's children. It panics when child
// was not created by a dom Document.
func (e *Element) AppendChild(child lex.Node) {
	var n *html.Node
	switch c := child.(type) {
	case *Element:
		n = c.n
	case *Text:
		n = c.n
	default:
		panic(fmt.Sprintf("dom: cannot append foreign node %T", child))
	}
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	e.n.AppendChild(n)
	e.doc.invalidate()
}

// Remove detaches e from its parent.
func (e *Element) Remove() {
	if e.n.Parent != nil {
		e.n.Parent.RemoveChild(e.n)
		e.doc.invalidate()
	}
}

// ChildText returns the i-th child if it is a text node.
func (e *Element) ChildText(i int) (lex.Text, bool) {
	c := e.n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	if c == nil || c.Type != html.TextNode {
		return nil, false
	}
	return &Text{n: c}, true
}

// Children returns the element children of e.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// FindTag returns the first descendant named tag, or nil.
func (e *Element) FindTag(tag string) *Element {
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if n := find(c, func(n *html.Node) bool { return n.Data == tag }); n != nil {
			return e.doc.wrap(n)
		}
	}
	return nil
}

// TextContent concatenates every descendant text node.
func (e *Element) TextContent() string {
	var sb strings.Builder
	walk(e.n, func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
	})
	return sb.String()
}

// AddEventListener appends a listener for event.
func (e *Element) AddEventListener(event string, h lex.Handler) {
	if h == nil {
		return
	}
	byEvent := e.doc.listeners[e.n]
	if byEvent == nil {
		byEvent = make(map[string][]lex.Handler)
		e.doc.listeners[e.n] = byEvent
	}
	byEvent[event] = append(byEvent[event], h)
}

// SetEventHandler fills the single handler slot for event. A nil h clears
// it.
func (e *Element) SetEventHandler(event string, h lex.Handler) {
	byEvent := e.doc.handlers[e.n]
	if byEvent == nil {
		byEvent = make(map[string]lex.Handler)
		e.doc.handlers[e.n] = byEvent
	}
	if h == nil {
		delete(byEvent, event)
		return
	}
	byEvent[event] = h
}

// Listeners reports how many callbacks would run for event: every added
// listener plus the handler slot when it is set.
func (e *Element) Listeners(event string) int {
	n := len(e.doc.listeners[e.n][event])
	if _, ok := e.doc.handlers[e.n][event]; ok {
		n++
	}
	return n
}

// Dispatch runs the handler slot and then the added listeners for event.
// It reports whether anything ran.
func (e *Element) Dispatch(event string) bool {
	ev := lex.Event{Type: event, Target: e}
	ran := false
	if h, ok := e.doc.handlers[e.n][event]; ok {
		h(ev)
		ran = true
	}
	for _, h := range e.doc.listeners[e.n][event] {
		h(ev)
		ran = true
	}
	return ran
}

// Click dispatches a click event.
func (e *Element) Click() bool {
	return e.Dispatch("click")
}

// Render writes the element's outer HTML.
func (e *Element) Render(ctx context.Context, w io.Writer) error {
	return html.Render(w, e.n)
}

// OuterHTML returns the serialized element.
func (e *Element) OuterHTML() string {
	var sb strings.Builder
	_ = html.Render(&sb, e.n)
	return sb.String()
}

// InnerHTML returns the serialized children.
func (e *Element) InnerHTML() string {
	var sb strings.Builder
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&sb, c)
	}
	return sb.String()
}

// Text is a text node of a Document.
type Text struct {
	n *html.Node
}

var _ lex.Text = (*Text)(nil)

// NodeName returns "#text".
func (t *Text) NodeName() string {
	return "#text"
}

// Data returns the text.
func (t *Text) Data() string {
	return t.n.Data
}

// SetData replaces the text.
func (t *Text) SetData(data string) {
	t.n.Data = data
}
