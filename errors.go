package lex

import (
	"errors"
	"fmt"
)

// Sentinel errors for tree construction.
var (
	ErrDivergence     = errors.New("lex: hydrate pass diverged from markup")
	ErrAsyncComponent = errors.New("lex: async components are not supported")
	ErrNotCallable    = errors.New("lex: client effect must be a function")
	ErrInvalidTag     = errors.New("lex: tag must be a string or a component")
	ErrInvalidChild   = errors.New("lex: invalid child")
	ErrInvalidProp    = errors.New("lex: invalid property")
	ErrTextLayout     = errors.New("lex: reactive text needs isolated text positions")
	ErrMissingRoot    = errors.New("lex: document root not found")
	ErrInvalidRoot    = errors.New("lex: mount expects an element")
)

// DivergenceError reports a hydrate-mode lookup that found nothing where the
// build pass left an element (or a text node, when Child >= 0).
type DivergenceError struct {
	ID    int
	Tag   string
	Child int // index of the missing text child, -1 for the element itself
}

func (e *DivergenceError) Error() string {
	if e.Child >= 0 {
		return fmt.Sprintf("lex: no text node at child %d of <%s %s=%q>", e.Child, e.Tag, IdentityAttr, fmt.Sprint(e.ID))
	}
	return fmt.Sprintf("lex: no <%s> with %s=%q in document", e.Tag, IdentityAttr, fmt.Sprint(e.ID))
}

// Is makes errors.Is(err, ErrDivergence) match.
func (e *DivergenceError) Is(target error) bool {
	return target == ErrDivergence
}

// IsDivergence checks if err is a hydrate divergence.
func IsDivergence(err error) bool {
	return errors.Is(err, ErrDivergence)
}

// IsUsageError checks if err is caused by how the tree was authored rather
// than by the document.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrAsyncComponent) ||
		errors.Is(err, ErrNotCallable) ||
		errors.Is(err, ErrInvalidTag) ||
		errors.Is(err, ErrInvalidChild) ||
		errors.Is(err, ErrInvalidProp) ||
		errors.Is(err, ErrTextLayout)
}

// abort carries a construction error up to Renderer.Run.
type abort struct {
	err error
}

func (r *Renderer) abort(err error) {
	r.logger.Debug("tree construction aborted", "error", err, "counter", r.counter)
	panic(abort{err: err})
}
