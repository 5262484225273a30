// Package selection holds the set of picked street names and its compact
// string form used in shareable links.
//
// The encoded form is the members joined with ',' in sorted order. Names are
// not escaped, so a name containing ',' does not survive a round trip.
package selection

import (
	"net/url"
	"strings"

	"github.com/tidwall/btree"
)

// Param is the query parameter carrying the encoded selection
const Param = "r"

const separator = ","

// Set is an immutable, ordered set of street names. The zero value is an
// empty set. Operations that change membership return a new Set.
type Set struct {
	names *btree.Set[string]
}

// New returns a set holding the given names
func New(names ...string) Set {
	tree := &btree.Set[string]{}
	for _, n := range names {
		tree.Insert(n)
	}
	return Set{names: tree}
}

// Decode parses an encoded selection. An empty string is the empty set;
// anything else is split on ',' and every token, including empty ones, is
// kept verbatim.
func Decode(param string) Set {
	if param == "" {
		return Set{}
	}
	return New(strings.Split(param, separator)...)
}

// FromQuery decodes the selection parameter of a URL query. A missing
// parameter is the empty set.
func FromQuery(q url.Values) Set {
	return Decode(q.Get(Param))
}

// Encode joins the members with ',' in sorted order
func (s Set) Encode() string {
	return strings.Join(s.Names(), separator)
}

// Query returns url.Values carrying the encoded selection
func (s Set) Query() url.Values {
	q := url.Values{}
	if s.Len() > 0 {
		q.Set(Param, s.Encode())
	}
	return q
}

// Toggle returns a copy of s with name removed if present, otherwise added.
// s itself is left unchanged.
func (s Set) Toggle(name string) Set {
	next := s.clone()
	if next.Contains(name) {
		next.Delete(name)
	} else {
		next.Insert(name)
	}
	return Set{names: next}
}

// Has reports whether name is a member
func (s Set) Has(name string) bool {
	if s.names == nil {
		return false
	}
	return s.names.Contains(name)
}

// Len returns the number of members
func (s Set) Len() int {
	if s.names == nil {
		return 0
	}
	return s.names.Len()
}

// Names returns the members in sorted order
func (s Set) Names() []string {
	out := make([]string, 0, s.Len())
	if s.names == nil {
		return out
	}
	s.names.Scan(func(name string) bool {
		out = append(out, name)
		return true
	})
	return out
}

// Equal reports whether both sets have the same members
func (s Set) Equal(other Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	a, b := s.Names(), other.Names()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Filter splits the members into those accepted by keep and the rest
func (s Set) Filter(keep func(name string) bool) (kept, dropped []string) {
	kept, dropped = []string{}, []string{}
	for _, name := range s.Names() {
		if keep(name) {
			kept = append(kept, name)
		} else {
			dropped = append(dropped, name)
		}
	}
	return kept, dropped
}

func (s Set) clone() *btree.Set[string] {
	if s.names == nil {
		return &btree.Set[string]{}
	}
	return s.names.Copy()
}
