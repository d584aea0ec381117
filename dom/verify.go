package dom

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/net/html"

	"github.com/pthm/lex"
)

var (
	ErrMalformedIdentity = errors.New("dom: malformed lexid")
	ErrDuplicateIdentity = errors.New("dom: duplicate lexid")
	ErrIdentityGap       = errors.New("dom: lexid values are not contiguous")
)

// Identity is one lexid occurrence in a document.
type Identity struct {
	ID   int
	Tag  string
	Path string // tag names from the root, joined by ">"
}

// Identities returns every lexid in document order. Malformed values are
// skipped; VerifyIdentities reports them.
func (d *Document) Identities() []Identity {
	var out []Identity
	var visit func(n *html.Node, path string)
	visit = func(n *html.Node, path string) {
		if n.Type == html.ElementNode {
			if path == "" {
				path = n.Data
			} else {
				path += ">" + n.Data
			}
			if v, ok := attribute(n, lex.IdentityAttr); ok {
				if id, err := strconv.Atoi(v); err == nil {
					out = append(out, Identity{ID: id, Tag: n.Data, Path: path})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c, path)
		}
	}
	visit(d.root, "")
	return out
}

// VerifyIdentities checks that the lexid values in d are decimal, unique and
// cover 0..n-1 with no gaps. It returns n.
func VerifyIdentities(d *Document) (int, error) {
	seen := mapset.NewThreadUnsafeSet[int]()
	var err error
	walk(d.root, func(n *html.Node) {
		if err != nil || n.Type != html.ElementNode {
			return
		}
		v, ok := attribute(n, lex.IdentityAttr)
		if !ok {
			return
		}
		id, convErr := strconv.Atoi(v)
		if convErr != nil || id < 0 || strconv.Itoa(id) != v {
			err = fmt.Errorf("%w: <%s %s=%q>", ErrMalformedIdentity, n.Data, lex.IdentityAttr, v)
			return
		}
		if !seen.Add(id) {
			err = fmt.Errorf("%w: %d on <%s>", ErrDuplicateIdentity, id, n.Data)
		}
	})
	if err != nil {
		return 0, err
	}

	want := mapset.NewThreadUnsafeSet[int]()
	for i := range seen.Cardinality() {
		want.Add(i)
	}
	if missing := want.Difference(seen); missing.Cardinality() > 0 {
		return 0, fmt.Errorf("%w: missing %v", ErrIdentityGap, sorted(missing))
	}
	return seen.Cardinality(), nil
}

func sorted(s mapset.Set[int]) []int {
	out := s.ToSlice()
	slices.Sort(out)
	return out
}
