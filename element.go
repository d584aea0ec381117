package lex

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// Component is a function tag. It receives its props with the children under
// ChildrenKey and returns whatever it renders: an element, a slice of
// children, a literal, or nil.
type Component func(r *Renderer, props Props) any

// Fragment returns its children unchanged, so a component can return several
// siblings without a wrapping element.
//
//	return r.Element(lex.Fragment, nil, r.Element("dt", nil, k), r.Element("dd", nil, v))
func Fragment(r *Renderer, props Props) any {
	return props.Children()
}

// Element is the single construction entry point shared by both passes.
//
// A string tag produces exactly one element and consumes one identity. In
// Active mode the element is created; in Hydrating mode the existing element
// carrying the same identity is selected and only behavior is attached. A
// Component tag is called with props plus children and consumes no identity
// of its own.
//
// Both passes must visit the tree in the same order: identities are the only
// link between the markup and the elements the hydrate pass binds.
//
// Element aborts tree construction (see Renderer.Run) on divergence and usage
// errors.
func (r *Renderer) Element(tag any, props Props, children ...any) any {
	switch t := tag.(type) {
	case string:
		return r.element(t, props, children)
	case Component:
		return r.component(t, props, children)
	case func(*Renderer, Props) any:
		return r.component(t, props, children)
	default:
		r.abort(fmt.Errorf("%w, got %T", ErrInvalidTag, tag))
		return nil
	}
}

// H is Element for string tags, typed for callers that need the element.
func (r *Renderer) H(tag string, props Props, children ...any) Element {
	return r.Element(tag, props, children...).(Element)
}

func (r *Renderer) component(fn Component, props Props, children []any) any {
	out := fn(r, props.with(ChildrenKey, children))
	if isPending(out) {
		r.abort(fmt.Errorf("%w: component returned %T", ErrAsyncComponent, out))
	}
	return out
}

// isPending reports whether a component handed back something to wait on.
func isPending(v any) bool {
	if v == nil {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Chan
}

func (r *Renderer) element(tag string, props Props, children []any) Element {
	id := r.counter
	ident := strconv.Itoa(id)

	if err := checkProps(props); err != nil {
		r.abort(fmt.Errorf("%w: <%s %s=%q>: %v", ErrInvalidProp, tag, IdentityAttr, ident, err))
	}
	kids := flatten(children)
	if err := checkTextLayout(kids); err != nil {
		r.abort(fmt.Errorf("%w: <%s %s=%q>: %v", ErrTextLayout, tag, IdentityAttr, ident, err))
	}

	var el Element
	switch r.mode {
	case Active:
		el = r.doc.CreateElement(tag)
		el.SetAttribute(IdentityAttr, ident)
	case Hydrating:
		found, ok := r.doc.Lookup(IdentityAttr, ident)
		if !ok {
			r.abort(&DivergenceError{ID: id, Tag: tag, Child: -1})
		}
		el = found
	}

	for _, name := range props.keys() {
		if name == ChildrenKey || name == IdentityAttr {
			continue
		}
		r.bindProperty(el, name, props[name])
	}

	for i, ch := range kids {
		r.bindChild(el, id, tag, i, ch)
	}

	r.counter++
	return el
}

func (r *Renderer) bindProperty(el Element, name string, value any) {
	b := resolveBinding(name, value)

	var apply func(v any)
	switch b.kind {
	case bindRef:
		value.(*Ref).Current = el
		return
	case bindEvent:
		switch {
		case b.cell != nil || r.mode == Hydrating:
			apply = func(v any) { el.SetEventHandler(b.name, asHandler(v)) }
		default:
			apply = func(v any) { el.AddEventListener(b.name, asHandler(v)) }
		}
	case bindAttribute:
		apply = func(v any) { el.SetAttribute(b.name, textOf(v)) }
	}

	if b.cell == nil {
		apply(value)
		return
	}
	apply(b.cell.current())
	b.cell.watch(apply)
}

func (r *Renderer) bindChild(el Element, id int, tag string, i int, ch any) {
	switch kindOf(ch) {
	case valueNode:
		if r.mode == Active {
			el.AppendChild(ch.(Node))
		}
	case valueCell:
		c := ch.(reactive)
		var text Text
		if r.mode == Active {
			text = r.doc.CreateText(textOf(c.current()))
			el.AppendChild(text)
		} else {
			t, ok := el.ChildText(i)
			if !ok {
				r.abort(&DivergenceError{ID: id, Tag: tag, Child: i})
			}
			text = t
		}
		c.watch(func(v any) { text.SetData(textOf(v)) })
	case valueLiteral:
		if r.mode == Active {
			el.AppendChild(r.doc.CreateText(textOf(ch)))
		}
	case valueHandler, valueRef:
		r.abort(fmt.Errorf("%w: %s at child %d of <%s>", ErrInvalidChild, kindOf(ch), i, tag))
	}
}

// checkProps rejects properties that cannot bind: a nil ref box, and two
// names that resolve to the same event, which would leave two listeners in
// create mode and one in hydrate mode.
func checkProps(props Props) error {
	events := make(map[string]string)
	for _, name := range props.keys() {
		if name == ChildrenKey || name == IdentityAttr {
			continue
		}
		value := props[name]
		if ref, ok := value.(*Ref); ok && ref == nil && name == "ref" {
			return errors.New("ref is a nil *Ref")
		}
		b := resolveBinding(name, value)
		if b.kind != bindEvent {
			continue
		}
		if prev, ok := events[b.name]; ok {
			return fmt.Errorf("%s and %s both bind the %s event", prev, name, b.name)
		}
		events[b.name] = name
	}
	return nil
}

// flatten expands nested child slices into one ordered list and drops nil
// children.
func flatten(children []any) []any {
	out := make([]any, 0, len(children))
	var walk func([]any)
	walk = func(list []any) {
		for _, ch := range list {
			switch v := ch.(type) {
			case nil:
			case []any:
				walk(v)
			case []Element:
				for _, el := range v {
					out = append(out, el)
				}
			case []Node:
				for _, n := range v {
					out = append(out, n)
				}
			default:
				out = append(out, ch)
			}
		}
	}
	walk(children)
	return out
}

// checkTextLayout enforces the constraint that makes reactive text
// addressable in hydrate mode: markup does not keep text node boundaries,
// so in an element with reactive text no two text children may touch and no
// literal text may be empty.
func checkTextLayout(kids []any) error {
	hasCell := false
	for _, ch := range kids {
		if kindOf(ch) == valueCell {
			hasCell = true
			break
		}
	}
	if !hasCell {
		return nil
	}
	prevText := false
	for i, ch := range kids {
		k := kindOf(ch)
		isText := k == valueLiteral || k == valueCell
		if isText && prevText {
			return fmt.Errorf("text children %d and %d are adjacent", i-1, i)
		}
		if k == valueLiteral && textOf(ch) == "" {
			return fmt.Errorf("text child %d is empty", i)
		}
		prevText = isText
	}
	return nil
}
