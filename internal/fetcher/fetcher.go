/*
Copyright 2024 Henri Remonen

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package fetcher runs the part of the fetch algorithm that surrounds a raw
response: it sends the request, turns the outcome into a response.Response
(or a network error) and follows redirects through the response's location URL.
*/
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	"github.com/HRemonen/fetchview/internal/logging"
	"github.com/HRemonen/fetchview/internal/response"
)

var (
	// ErrForbiddenURL is returned when a URL is excluded by the AllowedURLs or DisallowedURLs settings.
	ErrForbiddenURL = errors.New("URL is forbidden")
	// ErrRobotsDisallowed is returned when a URL is disallowed by robots.txt.
	ErrRobotsDisallowed = errors.New("URL is disallowed by robots.txt")
	// ErrRedirectMode is returned by ParseRedirectMode for an unknown mode name.
	ErrRedirectMode = errors.New("unknown redirect mode")
)

// DefaultMaxRedirects is the number of redirects followed before the fetch
// becomes a network error.
const DefaultMaxRedirects = 20

// DefaultUserAgent is sent with every request and matched against robots.txt.
const DefaultUserAgent = "fetchview"

var log = logging.GetLogger("fetcher")

// RedirectMode tells Fetch what to do with a redirect response.
type RedirectMode uint8

const (
	// RedirectFollow fetches the location URL of each redirect.
	RedirectFollow RedirectMode = iota
	// RedirectManual returns the redirect response itself.
	RedirectManual
	// RedirectError turns a redirect into a network error.
	RedirectError
)

func (m RedirectMode) String() string {
	switch m {
	case RedirectFollow:
		return "follow"
	case RedirectManual:
		return "manual"
	case RedirectError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseRedirectMode maps "follow", "manual" or "error" to its RedirectMode.
func ParseRedirectMode(s string) (RedirectMode, error) {
	for _, m := range []RedirectMode{RedirectFollow, RedirectManual, RedirectError} {
		if m.String() == s {
			return m, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrRedirectMode, s)
}

// Options is a type for functional options that can be used to configure a Fetcher.
type Options func(f *Fetcher)

// Fetcher produces raw responses over an http.Client.
type Fetcher struct {
	// Client is the http.Client used to send requests. New makes a copy that never follows redirects itself.
	Client *http.Client
	// AllowedURLs is a list of URL prefixes that are allowed to be fetched. Can be set with the WithAllowedURLs functional option.
	AllowedURLs []string
	// DisallowedURLs is a list of URL prefixes that are disallowed to be fetched. Can be set with the WithDisallowedURLs functional option.
	DisallowedURLs []string
	// UserAgent is sent with each request and used for robots.txt matching. Can be set with the WithUserAgent functional option.
	UserAgent string
	// maxRedirects bounds the number of redirects followed. Can be set with the WithMaxRedirects functional option.
	maxRedirects int
	// credentials marks requests as credentialed, which disables the Access-Control-Expose-Headers wildcard.
	credentials bool
	// ignoreRobots is a flag that determines whether robots.txt should be ignored, defaults to false.
	ignoreRobots bool
	// store caches robots.txt rules per host.
	store Storer
	// robotsClient is the client as configured by the caller, following redirects of robots.txt.
	robotsClient *http.Client
}

// New creates a new Fetcher.
func New(options ...Options) *Fetcher {
	f := &Fetcher{
		Client:         http.DefaultClient,
		AllowedURLs:    []string{},
		DisallowedURLs: []string{},
		UserAgent:      DefaultUserAgent,
		maxRedirects:   DefaultMaxRedirects,
		store:          NewInMemoryStore(),
	}

	for _, option := range options {
		option(f)
	}

	f.robotsClient = f.Client

	client := *f.Client
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	f.Client = &client

	return f
}

// WithClient is a functional option that sets the http.Client for the Fetcher.
func WithClient(client *http.Client) Options {
	return func(f *Fetcher) {
		f.Client = client
	}
}

// WithStore is a functional option that sets the robots.txt cache for the Fetcher.
func WithStore(store Storer) Options {
	return func(f *Fetcher) {
		f.store = store
	}
}

// WithAllowedURLs is a functional option that sets the allowed URLs for the Fetcher.
func WithAllowedURLs(urls []string) Options {
	return func(f *Fetcher) {
		f.AllowedURLs = urls
	}
}

// WithDisallowedURLs is a functional option that sets the disallowed URLs for the Fetcher.
func WithDisallowedURLs(urls []string) Options {
	return func(f *Fetcher) {
		f.DisallowedURLs = urls
	}
}

// WithIgnoreRobots is a functional option that sets the ignoreRobots flag for the Fetcher.
func WithIgnoreRobots(ignore bool) Options {
	return func(f *Fetcher) {
		f.ignoreRobots = ignore
	}
}

// WithMaxRedirects is a functional option that sets how many redirects are followed.
func WithMaxRedirects(n int) Options {
	return func(f *Fetcher) {
		f.maxRedirects = n
	}
}

// WithUserAgent is a functional option that sets the User-Agent of the Fetcher.
func WithUserAgent(agent string) Options {
	return func(f *Fetcher) {
		f.UserAgent = agent
	}
}

// WithCredentials is a functional option that marks requests as credentialed.
func WithCredentials(credentials bool) Options {
	return func(f *Fetcher) {
		f.credentials = credentials
	}
}

// Fetch requests rawURL and returns the raw response, following redirects
// according to mode.
//
// Failures of the exchange itself are reported as network errors, not as
// errors: a cancelled ctx yields an aborted network error. The returned error
// is reserved for URLs the Fetcher refuses to request. The caller must close
// the body stream of the returned response.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, mode RedirectMode) (*response.Response, error) {
	current, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	requestFragment := current.Fragment

	var history []*url.URL
	for {
		if err := f.check(ctx, current); err != nil {
			if errors.Is(err, context.Canceled) {
				log.WithField("url", current.String()).Debug("fetch aborted during robots.txt check")
				return response.AbortedNetworkError(), nil
			}

			return nil, err
		}

		res := f.fetch(ctx, current, history)
		if res.IsNetworkError() || !response.IsRedirectStatus(res.Status()) {
			return res, nil
		}

		switch mode {
		case RedirectManual:
			return res, nil
		case RedirectError:
			closeBody(res)
			log.WithField("url", current.String()).Warn("redirect received in error mode")
			return response.NetworkError(), nil
		}

		closeBody(res)

		location, err := res.LocationURL(requestFragment)
		if err != nil {
			log.WithError(err).WithField("url", current.String()).Warn("cannot follow redirect")
			return response.NetworkError(), nil
		}

		if location.Scheme != "http" && location.Scheme != "https" {
			log.WithField("location", location.String()).Warn("redirect to a non-HTTP(S) URL")
			return response.NetworkError(), nil
		}

		if len(history) >= f.maxRedirects {
			log.WithField("max", f.maxRedirects).Warn("too many redirects")
			return response.NetworkError(), nil
		}

		log.WithFields(logrus.Fields{"from": current.String(), "to": location.String()}).Debug("following redirect")

		history = res.URLList()
		current = location
	}
}

// fetch performs a single exchange. The response's URL list is history
// followed by u.
func (f *Fetcher) fetch(ctx context.Context, u *url.URL, history []*url.URL) *response.Response {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		log.WithError(err).WithField("url", u.String()).Warn("cannot build request")
		return response.NetworkError()
	}
	req.Header.Set("User-Agent", f.UserAgent)

	res, err := f.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.WithField("url", u.String()).Debug("fetch aborted")
			return response.AbortedNetworkError()
		}

		log.WithError(err).WithField("url", u.String()).Warn("fetch failed")
		return response.NetworkError()
	}

	options := []response.Option{response.WithURLList(history...)}
	if !f.credentials {
		options = append(options, response.WithWildcardExposure())
	}

	raw, err := response.FromHTTP(res, options...)
	if err != nil {
		log.WithError(err).WithField("url", u.String()).Warn("cannot convert response")
		res.Body.Close() //nolint: errcheck // the response is discarded
		return response.NetworkError()
	}
	raw.AppendURL(u)

	if raw.Body() == nil {
		res.Body.Close() //nolint: errcheck // a null body is never read
	}

	log.WithFields(logrus.Fields{"url": u.String(), "status": raw.Status()}).Debug("fetched")

	return raw
}

func closeBody(res *response.Response) {
	body := res.Body()
	if body == nil || body.Stream == nil {
		return
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, body.Stream)
	if err := body.Stream.Close(); err != nil {
		log.WithError(err).Debug("error closing response body")
	}
}

func (f *Fetcher) check(ctx context.Context, u *url.URL) error {
	if !f.isURLAllowed(u.String()) {
		return ErrForbiddenURL
	}

	return f.checkRobots(ctx, u)
}

func (f *Fetcher) checkRobots(ctx context.Context, u *url.URL) error {
	if f.ignoreRobots {
		return nil
	}

	robot, ok := f.store.Robots(u.Host)
	if !ok {
		robotURL := u.Scheme + "://" + u.Host + "/robots.txt"
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotURL, http.NoBody)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", f.UserAgent)

		res, err := f.robotsClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetch robots.txt: %w", err)
		}

		defer res.Body.Close() //nolint: errcheck // because we don't care about the error here

		robot, err = robotstxt.FromResponse(res)
		if err != nil {
			return fmt.Errorf("parse robots.txt: %w", err)
		}

		f.store.StoreRobots(u.Host, robot)
	}

	if !robot.TestAgent(u.EscapedPath(), f.UserAgent) {
		return ErrRobotsDisallowed
	}

	return nil
}

// isURLAllowed checks if the given URL is allowed to be fetched.
func (f *Fetcher) isURLAllowed(u string) bool {
	for _, disallowed := range f.DisallowedURLs {
		if strings.HasPrefix(u, disallowed) {
			return false
		}
	}

	if len(f.AllowedURLs) == 0 {
		return true
	}

	for _, allowed := range f.AllowedURLs {
		if strings.HasPrefix(u, allowed) {
			return true
		}
	}

	return false
}
