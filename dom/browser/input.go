//go:build js && wasm

package browser

import (
	"syscall/js"

	"github.com/pthm/lex"
	"github.com/pthm/lex/lib/encoding"
)

// Input decodes the page input the build pass embedded in the document. A
// page built without input yields empty props.
func Input(opts ...encoding.Option) (lex.Props, error) {
	el := js.Global().Get("document").Call("getElementById", encoding.ScriptID)
	if el.IsNull() {
		return lex.Props{}, nil
	}
	return encoding.New(opts...).Decode(el.Get("textContent").String())
}
