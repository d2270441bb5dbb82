/*
Package header provides the ordered header list used by fetch responses and
the name predicates that decide which headers a filtered view may expose.
*/
package header

import (
	"errors"
	"iter"
	"slices"
	"strings"
)

// ErrListFull is returned when an entry is appended to a List that already
// holds its maximum number of entries.
var ErrListFull = errors.New("header list is full")

// Header is a single name/value pair. The name is stored verbatim; comparisons
// against it are case-insensitive.
type Header struct {
	Name  string
	Value string
}

// Option is a type for functional options that can be used to configure a List.
type Option func(l *List)

// WithMaxEntries bounds the number of entries the List accepts. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(l *List) {
		l.maxEntries = n
	}
}

// List is an ordered sequence of headers. Duplicate names are legal and kept
// in insertion order.
type List struct {
	headers    []Header
	maxEntries int
}

// NewList creates an empty List.
func NewList(options ...Option) *List {
	l := &List{}

	for _, option := range options {
		option(l)
	}

	return l
}

// Append adds a header at the end of the list.
func (l *List) Append(name, value string) error {
	if l.maxEntries > 0 && len(l.headers) >= l.maxEntries {
		return ErrListFull
	}

	l.headers = append(l.headers, Header{Name: name, Value: value})

	return nil
}

// All returns the headers in insertion order. The sequence can be ranged over
// any number of times.
func (l *List) All() iter.Seq[Header] {
	return func(yield func(Header) bool) {
		if l == nil {
			return
		}

		for _, h := range l.headers {
			if !yield(h) {
				return
			}
		}
	}
}

// Len returns the number of entries, counting duplicates.
func (l *List) Len() int {
	if l == nil {
		return 0
	}

	return len(l.headers)
}

// IsEmpty reports whether the list holds no entries.
func (l *List) IsEmpty() bool {
	return l.Len() == 0
}

// Contains reports whether a header with the given name is present.
func (l *List) Contains(name string) bool {
	for h := range l.All() {
		if strings.EqualFold(h.Name, name) {
			return true
		}
	}

	return false
}

// Values returns every value stored under name, in insertion order.
func (l *List) Values(name string) []string {
	var values []string

	for h := range l.All() {
		if strings.EqualFold(h.Name, name) {
			values = append(values, h.Value)
		}
	}

	return values
}

// Get returns the last value stored under name.
func (l *List) Get(name string) (string, bool) {
	values := l.Values(name)
	if len(values) == 0 {
		return "", false
	}

	return values[len(values)-1], true
}

// Clone returns an independent copy of l with the same entry bound.
func (l *List) Clone() *List {
	if l == nil {
		return NewList()
	}

	return &List{
		headers:    slices.Clone(l.headers),
		maxEntries: l.maxEntries,
	}
}

// Filter builds a new List, configured by options, holding the entries of l
// whose name satisfies keep. The result shares no storage with l.
func (l *List) Filter(keep func(name string) bool, options ...Option) (*List, error) {
	filtered := NewList(options...)

	for h := range l.All() {
		if !keep(h.Name) {
			continue
		}

		if err := filtered.Append(h.Name, h.Value); err != nil {
			return nil, err
		}
	}

	return filtered, nil
}
