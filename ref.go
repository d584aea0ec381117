package lex

// Ref is a mutable box the constructor fills with the resolved element when
// it is passed as the "ref" property.
//
//	input := lex.UseRef(nil)
//	r.Element("input", lex.Props{"ref": input})
//	// input.Current is the element, in create and hydrate mode alike.
type Ref struct {
	Current Element
}

// UseRef returns a ref box holding initial.
func UseRef(initial Element) *Ref {
	return &Ref{Current: initial}
}
