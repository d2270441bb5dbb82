package response

// NetworkError returns a response representing a failed fetch: type error,
// status 0, an empty status message, an empty header list and a null body.
func NetworkError() *Response {
	r := build(WithType(TypeError), WithStatus(0))
	mustBeNetworkError(r)

	return r
}

// mustBeNetworkError panics unless r has the fields every network error has.
func mustBeNetworkError(r *Response) {
	switch {
	case r.typ != TypeError:
		panic("response: network error with type " + r.typ.String())
	case r.status != 0:
		panic("response: network error with a non-zero status")
	case r.statusMessage != "":
		panic("response: network error with a status message")
	case !r.headerList.IsEmpty():
		panic("response: network error with headers")
	case r.body != nil:
		panic("response: network error with a non-null body")
	}
}

// AbortedNetworkError returns a network error flagged as the result of a
// cancellation rather than a transport failure.
func AbortedNetworkError() *Response {
	r := NetworkError()
	r.aborted = true

	return r
}

// IsNetworkError reports whether r is a network error.
func (r *Response) IsNetworkError() bool {
	return r.typ == TypeError
}

// IsAbortedNetworkError reports whether r is a network error caused by cancellation.
func (r *Response) IsAbortedNetworkError() bool {
	return r.typ == TypeError && r.aborted
}
