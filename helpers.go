package lex

import (
	"net/http"

	"github.com/a-h/templ"
)

// Render writes a templ component to the HTTP response.
//
// Sets Content-Type to text/html and renders the component using the
// request's context. Headless documents and their elements are templ
// components, as is a built page wrapped with Page:
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    lex.Render(w, r, lex.Page(html))
//	}
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// Page wraps a built document so it can be served or embedded in other templ
// output unchanged. The markup is trusted; it must come from the build
// pipeline, not from user input.
func Page(html string) templ.Component {
	return templ.Raw(html)
}

// IsPageInputRequest reports whether the request asks for the encoded page
// input alone rather than the whole page.
//
// The client sends Accept: application/x-lex-input when it re-fetches the
// input of a page it already holds:
//
//	if lex.IsPageInputRequest(r) {
//	    w.Write([]byte(encoded))
//	    return
//	}
func IsPageInputRequest(r *http.Request) bool {
	return r.Header.Get("Accept") == InputContentType
}

// InputContentType is the media type of an encoded page input.
const InputContentType = "application/x-lex-input"
