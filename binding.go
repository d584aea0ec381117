package lex

import "strings"

// bindingKind is how a property is applied to an element. It is resolved
// once per property.
type bindingKind uint8

const (
	bindAttribute bindingKind = iota
	bindEvent
	bindRef
)

func (k bindingKind) String() string {
	switch k {
	case bindAttribute:
		return "attribute"
	case bindEvent:
		return "event"
	case bindRef:
		return "ref"
	default:
		return "unknown"
	}
}

// binding is a resolved property.
type binding struct {
	kind bindingKind
	name string   // attribute or event name, normalized
	cell reactive // non-nil when the value is reactive
}

// resolveBinding classifies the property name/value pair.
func resolveBinding(name string, value any) binding {
	b := binding{kind: bindAttribute}
	current := value

	switch kindOf(value) {
	case valueCell:
		b.cell = value.(reactive)
		current = b.cell.current()
	case valueRef:
		if name == "ref" {
			b.kind = bindRef
			b.name = name
			return b
		}
	}

	if isEventName(name) && kindOf(current) == valueHandler {
		b.kind = bindEvent
		b.name = strings.ToLower(name[2:])
		return b
	}

	b.name = attributeName(name)
	return b
}

func isEventName(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "on")
}

// attributeName maps the camel-case aliases to their markup names and lower
// cases everything else.
func attributeName(name string) string {
	switch name {
	case "className":
		return "class"
	case "htmlFor":
		return "for"
	default:
		return strings.ToLower(name)
	}
}
