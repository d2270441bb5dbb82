package response

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/HRemonen/fetchview/internal/header"
)

// ErrUnknownKind is returned by ParseKind for names that do not denote a filtered view.
var ErrUnknownKind = errors.New("unknown filtered response kind")

// Kind selects one of the fixed view policies a Filtered applies.
type Kind uint8

const (
	KindBasic Kind = iota + 1
	KindCORS
	KindOpaque
	KindOpaqueRedirect
)

// Type returns the response type tag a view of kind k reports.
func (k Kind) Type() Type {
	switch k {
	case KindBasic:
		return TypeBasic
	case KindCORS:
		return TypeCORS
	case KindOpaque:
		return TypeOpaque
	case KindOpaqueRedirect:
		return TypeOpaqueRedirect
	default:
		panic(fmt.Sprintf("response: unknown filtered response kind %d", k))
	}
}

// String returns the type tag name of k, or "unknown".
func (k Kind) String() string {
	if k < KindBasic || k > KindOpaqueRedirect {
		return "unknown"
	}

	return k.Type().String()
}

// ParseKind maps a type tag such as "cors" to its Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindBasic, KindCORS, KindOpaque, KindOpaqueRedirect} {
		if k.String() == s {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Filtered is a read-only view over a raw Response. The view does not own
// the Response it was built from; the Response must stay valid and
// unmodified, apart from AppendURL, for as long as the view is in use.
//
// Status, status message, header list and body are captured when the view is
// created. URL queries read the Response each time they are called.
type Filtered struct {
	kind     Kind
	internal *Response

	status        int
	statusMessage string
	headerList    *header.List
	body          *Body
}

func mustInternal(internal *Response) {
	if internal == nil {
		panic("response: filtered response over a nil response")
	}
}

// NewBasic creates a view of type basic, which hides forbidden response-header
// names and passes every other field through. options configure the derived
// header list; an append failure on it is returned as is.
func NewBasic(internal *Response, options ...header.Option) (*Filtered, error) {
	mustInternal(internal)

	headerList, err := internal.headerList.Filter(func(name string) bool {
		return !header.IsForbiddenResponseHeaderName(name)
	}, options...)
	if err != nil {
		return nil, err
	}

	return newPassThrough(KindBasic, internal, headerList), nil
}

// NewCORS creates a view of type cors, which keeps only CORS-safelisted
// response-header names given the CORS-exposed header-name list of internal.
func NewCORS(internal *Response, options ...header.Option) (*Filtered, error) {
	mustInternal(internal)

	exposed := internal.corsExposedHeaderNames
	headerList, err := internal.headerList.Filter(func(name string) bool {
		return header.IsCORSSafelistedResponseHeaderName(name, exposed)
	}, options...)
	if err != nil {
		return nil, err
	}

	return newPassThrough(KindCORS, internal, headerList), nil
}

func newPassThrough(kind Kind, internal *Response, headerList *header.List) *Filtered {
	return &Filtered{
		kind:          kind,
		internal:      internal,
		status:        internal.status,
		statusMessage: internal.statusMessage,
		headerList:    headerList,
		body:          internal.body,
	}
}

// NewOpaque creates a view of type opaque: status 0, no headers, a null body
// and an empty URL list.
func NewOpaque(internal *Response) *Filtered {
	mustInternal(internal)

	return &Filtered{kind: KindOpaque, internal: internal}
}

// NewOpaqueRedirect creates a view of type opaqueredirect: status 0, no
// headers and a null body. The URL list stays visible so the redirect can
// still be followed.
func NewOpaqueRedirect(internal *Response) *Filtered {
	mustInternal(internal)

	return &Filtered{kind: KindOpaqueRedirect, internal: internal}
}

// Filter creates the view of the given kind over internal.
func Filter(internal *Response, kind Kind, options ...header.Option) (*Filtered, error) {
	switch kind {
	case KindBasic:
		return NewBasic(internal, options...)
	case KindCORS:
		return NewCORS(internal, options...)
	case KindOpaque:
		return NewOpaque(internal), nil
	case KindOpaqueRedirect:
		return NewOpaqueRedirect(internal), nil
	default:
		panic(fmt.Sprintf("response: unknown filtered response kind %d", kind))
	}
}

// Kind returns the view policy f applies.
func (f *Filtered) Kind() Kind { return f.kind }

// Type returns the type tag fixed by the kind of f.
func (f *Filtered) Type() Type { return f.kind.Type() }

// Internal returns the raw response behind the view, for fetch bookkeeping only.
func (f *Filtered) Internal() *Response { return f.internal }

// Status returns the status visible through the view, 0 for opaque views.
func (f *Filtered) Status() int { return f.status }

// StatusMessage returns the status message visible through the view.
func (f *Filtered) StatusMessage() string { return f.statusMessage }

// HeaderList returns a copy of the derived list; changes to it do not reach
// the view. Opaque views always return an empty list.
func (f *Filtered) HeaderList() *header.List {
	return f.headerList.Clone()
}

// Body returns the body visible through the view, nil when null.
func (f *Filtered) Body() *Body { return f.body }

// URLList returns a copy of the URL list of the underlying response, or nil
// for an opaque view.
func (f *Filtered) URLList() []*url.URL {
	if f.kind == KindOpaque {
		return nil
	}

	return f.internal.URLList()
}

// URL returns a copy of the current URL visible through the view.
func (f *Filtered) URL() (*url.URL, bool) {
	if f.kind == KindOpaque {
		return nil, false
	}

	return f.internal.URL()
}
