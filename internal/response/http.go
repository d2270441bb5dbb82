package response

import (
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/HRemonen/fetchview/internal/header"
)

// FromHTTP builds a raw Response of type default from res, then applies
// options. Unless an option sets one, the URL list is the URL of res.Request.
//
// net/http does not keep the order in which headers were received, so names
// are appended in sorted order with each name's values in receipt order.
// Pairs that are not valid HTTP field names or values are dropped.
func FromHTTP(res *http.Response, options ...Option) (*Response, error) {
	headerList := header.NewList()

	for _, name := range slices.Sorted(maps.Keys(res.Header)) {
		if !httpguts.ValidHeaderFieldName(name) {
			log.WithField("name", name).Debug("dropping header with an invalid name")
			continue
		}

		for _, value := range res.Header[name] {
			if !httpguts.ValidHeaderFieldValue(value) {
				log.WithField("name", name).Debug("dropping header with an invalid value")
				continue
			}

			if err := headerList.Append(name, value); err != nil {
				return nil, fmt.Errorf("append header %s: %w", name, err)
			}
		}
	}

	var exposed []string
	for _, value := range headerList.Values("Access-Control-Expose-Headers") {
		exposed = append(exposed, header.ParseNameList(value)...)
	}

	var body *Body
	if res.Body != nil && !IsNullBodyStatus(res.StatusCode) {
		body = &Body{Stream: res.Body, Length: res.ContentLength}
	}

	var urlList []*url.URL
	if res.Request != nil && res.Request.URL != nil {
		urlList = []*url.URL{res.Request.URL}
	}

	defaults := []Option{
		WithStatus(res.StatusCode),
		WithStatusMessage(statusMessage(res)),
		WithHeaderList(headerList),
		WithBody(body),
		WithURLList(urlList...),
		WithCORSExposedHeaderNames(exposed...),
	}

	return New(append(defaults, options...)...), nil
}

// statusMessage strips the leading code from res.Status ("200 OK" becomes "OK").
func statusMessage(res *http.Response) string {
	code := strconv.Itoa(res.StatusCode)
	if res.Status == code {
		return ""
	}

	return strings.TrimPrefix(res.Status, code+" ")
}
