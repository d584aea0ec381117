package lex

// IdentityAttr is the attribute carrying an element's positional identity.
//
// The build pass writes it on every string-tag element it creates; the
// hydrate pass uses it as the lookup key. Values are the decimal form of the
// renderer's counter at construction time: zero-based and contiguous within
// one tree evaluation.
const IdentityAttr = "lexid"

// Node is anything a Document can place in its tree.
//
// NodeName returns the lower-case tag name for elements and "#text" for
// text nodes.
type Node interface {
	NodeName() string
}

// Element is a host element the constructor creates or hydrates.
type Element interface {
	Node

	SetAttribute(name, value string)
	AppendChild(child Node)

	// ChildText returns the i-th child node if it is a text node.
	ChildText(i int) (Text, bool)

	// AddEventListener registers an additional listener for event.
	AddEventListener(event string, h Handler)

	// SetEventHandler fills the single handler slot for event (the
	// equivalent of assigning el.onclick), replacing any previous one.
	SetEventHandler(event string, h Handler)
}

// Text is a host text node.
type Text interface {
	Node
	SetData(data string)
}

// Document is the host the Renderer builds into or hydrates from.
//
// Two hosts ship with lex: package dom (headless, used by the build pass and
// tests) and package dom/browser (syscall/js, used by the client pass).
type Document interface {
	CreateElement(tag string) Element
	CreateText(data string) Text

	// Lookup returns the element whose attribute attr equals value.
	Lookup(attr, value string) (Element, bool)

	// Body returns the document body, if there is one.
	Body() (Element, bool)
}

// Event is passed to handlers when the host dispatches an event.
type Event struct {
	Type   string
	Target Element
}

// Handler reacts to a host event.
type Handler func(Event)
