/*
Package response implements the response half of the fetch model: the raw
(internal) response produced by the network layer, the filtered views that
callers in different trust contexts may observe, and the redirect queries a
response answers.
*/
package response

import (
	"bytes"
	"io"
	"net/url"
	"slices"

	"github.com/HRemonen/fetchview/internal/header"
	"github.com/HRemonen/fetchview/internal/logging"
)

var log = logging.GetLogger("response")

// Type tags how a response may be observed.
type Type uint8

const (
	TypeBasic Type = iota
	TypeCORS
	TypeDefault
	TypeError
	TypeOpaque
	TypeOpaqueRedirect
)

// String returns the tag as the Fetch standard spells it.
func (t Type) String() string {
	switch t {
	case TypeBasic:
		return "basic"
	case TypeCORS:
		return "cors"
	case TypeDefault:
		return "default"
	case TypeError:
		return "error"
	case TypeOpaque:
		return "opaque"
	case TypeOpaqueRedirect:
		return "opaqueredirect"
	default:
		return "unknown"
	}
}

// Body is a response body handle. A nil *Body is the null body, which is a
// different state from a Body of length zero.
type Body struct {
	// Stream yields the body bytes.
	Stream io.ReadCloser
	// Source holds the bytes the body was created from, if known.
	Source []byte
	// Length is the total number of bytes, or -1 when unknown.
	Length int64
}

// NewBody returns a Body reading from b.
func NewBody(b []byte) *Body {
	return &Body{
		Stream: io.NopCloser(bytes.NewReader(b)),
		Source: b,
		Length: int64(len(b)),
	}
}

// Option is a type for functional options that can be used to configure a Response.
type Option func(r *Response)

// WithType sets the type of the Response.
func WithType(t Type) Option {
	return func(r *Response) {
		r.typ = t
	}
}

// WithStatus sets the status code of the Response.
func WithStatus(status int) Option {
	return func(r *Response) {
		r.status = status
	}
}

// WithStatusMessage sets the status message of the Response.
func WithStatusMessage(message string) Option {
	return func(r *Response) {
		r.statusMessage = message
	}
}

// WithHeaderList hands ownership of l to the Response.
func WithHeaderList(l *header.List) Option {
	return func(r *Response) {
		r.headerList = l
	}
}

// WithBody sets the body of the Response. A nil body is the null body.
func WithBody(body *Body) Option {
	return func(r *Response) {
		r.body = body
	}
}

// WithURLList sets the redirect history of the Response, earliest first.
func WithURLList(urls ...*url.URL) Option {
	return func(r *Response) {
		r.urlList = slices.Clone(urls)
	}
}

// WithCORSExposedHeaderNames sets the header names the server exposed to
// cross-origin script.
func WithCORSExposedHeaderNames(names ...string) Option {
	return func(r *Response) {
		r.corsExposedHeaderNames = slices.Clone(names)
	}
}

// WithWildcardExposure makes a wildcard in the CORS-exposed header-name list
// expose every header name of the response. Use it only for responses to
// requests sent without credentials.
func WithWildcardExposure() Option {
	return func(r *Response) {
		r.wildcardExposure = true
	}
}

// Response is the full, unfiltered response record. It owns its header list,
// URL list and body. After construction only AppendURL mutates it, and it
// must not be mutated while another goroutine reads it or a view of it.
type Response struct {
	typ                    Type
	aborted                bool
	status                 int
	statusMessage          string
	headerList             *header.List
	body                   *Body
	urlList                []*url.URL
	corsExposedHeaderNames []string
	wildcardExposure       bool
}

// New creates a Response of type default with status 200, an empty header
// list and a null body, then applies options.
func New(options ...Option) *Response {
	r := build(options...)

	if r.typ == TypeError {
		panic("response: use NetworkError to construct a response of type error")
	}

	return r
}

func build(options ...Option) *Response {
	r := &Response{
		typ:    TypeDefault,
		status: 200,
	}

	for _, option := range options {
		option(r)
	}

	if r.headerList == nil {
		r.headerList = header.NewList()
	}

	if r.wildcardExposure {
		r.corsExposedHeaderNames = header.ExpandExposedNames(r.corsExposedHeaderNames, r.headerList)
	}

	return r
}

// Type returns the type tag of r.
func (r *Response) Type() Type { return r.typ }

// Status returns the status code of r, 0 for a network error.
func (r *Response) Status() int { return r.status }

// StatusMessage returns the reason phrase of r, which may be empty.
func (r *Response) StatusMessage() string { return r.statusMessage }

// HeaderList returns the list owned by r.
func (r *Response) HeaderList() *header.List { return r.headerList }

// Body returns the body of r, nil when the body is null.
func (r *Response) Body() *Body { return r.body }

// Aborted reports whether the aborted flag is set. It only has meaning for
// network errors.
func (r *Response) Aborted() bool { return r.aborted }

// URLList returns a copy of the redirect history, earliest first. The URLs
// are copies too.
func (r *Response) URLList() []*url.URL {
	if r.urlList == nil {
		return nil
	}

	urls := make([]*url.URL, len(r.urlList))
	for i, u := range r.urlList {
		urls[i] = cloneURL(u)
	}

	return urls
}

// CORSExposedHeaderNames returns a copy of the names the server exposed.
func (r *Response) CORSExposedHeaderNames() []string {
	return slices.Clone(r.corsExposedHeaderNames)
}

// AppendURL records a redirect hop; u becomes the current URL of r.
func (r *Response) AppendURL(u *url.URL) {
	r.urlList = append(r.urlList, u)
}

// URL returns the current URL of r, which is the last entry of its URL list.
// It reports false when the list is empty.
func (r *Response) URL() (*url.URL, bool) {
	if len(r.urlList) == 0 {
		return nil, false
	}

	return cloneURL(r.urlList[len(r.urlList)-1]), true
}

func cloneURL(u *url.URL) *url.URL {
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}

	return &c
}
