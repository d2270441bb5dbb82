package response

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidLocationURL is matched by every error LocationURL returns.
var ErrInvalidLocationURL = errors.New("invalid Location header URL")

// LocationError describes a Location value that does not parse as a URL.
type LocationError struct {
	Value string
	Err   error
}

func (e *LocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v %q: %v", ErrInvalidLocationURL, e.Value, e.Err)
	}

	return fmt.Sprintf("%v %q", ErrInvalidLocationURL, e.Value)
}

func (e *LocationError) Unwrap() error {
	return e.Err
}

func (e *LocationError) Is(target error) bool {
	return target == ErrInvalidLocationURL
}

// LocationURL returns the URL r redirects to. It returns nil and no error
// when the status of r is not a redirect status.
//
// The last Location header wins; a missing header is treated as an empty
// value. The value is resolved against the current URL of r, and when it has
// no fragment of its own the result takes requestFragment. r is not modified.
func (r *Response) LocationURL(requestFragment string) (*url.URL, error) {
	if !IsRedirectStatus(r.status) {
		return nil, nil
	}

	values := r.headerList.Values("Location")

	var location string
	switch len(values) {
	case 0:
		log.WithField("status", r.status).Debug("redirect response without a Location header")
	case 1:
		location = values[0]
	default:
		location = values[len(values)-1]
		log.WithField("count", len(values)).Debug("multiple Location headers, using the last one")
	}

	parsed, err := r.parseLocation(location)
	if err != nil {
		return nil, err
	}

	if !strings.Contains(location, "#") {
		parsed.Fragment = requestFragment
		parsed.RawFragment = ""
	}

	return parsed, nil
}

func (r *Response) parseLocation(location string) (*url.URL, error) {
	ref, err := url.Parse(location)
	if err != nil {
		return nil, &LocationError{Value: location, Err: err}
	}

	if base, ok := r.URL(); ok {
		ref = base.ResolveReference(ref)
	}

	if !ref.IsAbs() {
		return nil, &LocationError{Value: location}
	}

	return ref, nil
}
