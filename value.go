package lex

import "fmt"

// valueKind is the closed set of things a property or child can be.
type valueKind uint8

const (
	valueLiteral valueKind = iota // anything else, formatted as text
	valueHandler                  // Handler, func(Event) or func()
	valueCell                     // *Cell[T]
	valueRef                      // *Ref
	valueNode                     // a host Node
)

func (k valueKind) String() string {
	switch k {
	case valueLiteral:
		return "literal"
	case valueHandler:
		return "handler"
	case valueCell:
		return "cell"
	case valueRef:
		return "ref"
	case valueNode:
		return "node"
	default:
		return "unknown"
	}
}

func kindOf(v any) valueKind {
	switch v.(type) {
	case reactive:
		return valueCell
	case *Ref:
		return valueRef
	case Node:
		return valueNode
	case Handler, func(Event), func():
		return valueHandler
	default:
		return valueLiteral
	}
}

// asHandler normalizes the accepted handler shapes. It returns nil for
// anything else.
func asHandler(v any) Handler {
	switch h := v.(type) {
	case Handler:
		return h
	case func(Event):
		return h
	case func():
		if h == nil {
			return nil
		}
		return func(Event) { h() }
	default:
		return nil
	}
}

// textOf formats a literal for an attribute value or a text node.
func textOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
