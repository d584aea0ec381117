//go:build js && wasm

// Package browser is the lex host for the real DOM, reached through
// syscall/js. The client entry hydrates against Document() and keeps the
// program alive afterwards so handlers stay callable:
//
//	func main() {
//	    input, _ := browser.Input()
//	    if _, err := entry.Hydrate(browser.Document(), app.Entry, input); err != nil {
//	        browser.Console().Call("error", err.Error())
//	    }
//	    select {}
//	}
package browser

import (
	"syscall/js"

	"github.com/pthm/lex"
)

type document struct {
	v js.Value
}

// Document returns the global document.
func Document() lex.Document {
	return document{v: js.Global().Get("document")}
}

// Console returns the global console object.
func Console() js.Value {
	return js.Global().Get("console")
}

func (d document) CreateElement(tag string) lex.Element {
	return &element{v: d.v.Call("createElement", tag)}
}

func (d document) CreateText(data string) lex.Text {
	return text{v: d.v.Call("createTextNode", data)}
}

func (d document) Lookup(attr, value string) (lex.Element, bool) {
	v := d.v.Call("querySelector", "["+attr+"=\""+value+"\"]")
	if v.IsNull() {
		return nil, false
	}
	return &element{v: v}, true
}

func (d document) Body() (lex.Element, bool) {
	v := d.v.Get("body")
	if v.IsNull() || v.IsUndefined() {
		return nil, false
	}
	return &element{v: v}, true
}

// element keeps the js.Func values it hands to the DOM so the slot handler
// can be released when replaced.
type element struct {
	v     js.Value
	slots map[string]js.Func
}

func (e *element) NodeName() string {
	return e.v.Get("localName").String()
}

func (e *element) SetAttribute(name, value string) {
	e.v.Call("setAttribute", name, value)
}

func (e *element) AppendChild(child lex.Node) {
	switch c := child.(type) {
	case *element:
		e.v.Call("appendChild", c.v)
	case text:
		e.v.Call("appendChild", c.v)
	default:
		panic("browser: cannot append foreign node")
	}
}

func (e *element) ChildText(i int) (lex.Text, bool) {
	v := e.v.Get("childNodes").Index(i)
	if v.IsUndefined() || v.Get("nodeType").Int() != 3 {
		return nil, false
	}
	return text{v: v}, true
}

func (e *element) AddEventListener(event string, h lex.Handler) {
	if h == nil {
		return
	}
	e.v.Call("addEventListener", event, e.callback(event, h))
}

func (e *element) SetEventHandler(event string, h lex.Handler) {
	if old, ok := e.slots[event]; ok {
		old.Release()
		delete(e.slots, event)
	}
	if h == nil {
		e.v.Set("on"+event, js.Null())
		return
	}
	fn := e.callback(event, h)
	if e.slots == nil {
		e.slots = make(map[string]js.Func)
	}
	e.slots[event] = fn
	e.v.Set("on"+event, fn)
}

func (e *element) callback(event string, h lex.Handler) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		h(lex.Event{Type: event, Target: e})
		return nil
	})
}

type text struct {
	v js.Value
}

func (t text) NodeName() string {
	return "#text"
}

func (t text) SetData(data string) {
	t.v.Set("data", data)
}
