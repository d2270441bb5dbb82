package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HRemonen/fetchview/internal/response"
)

func newUnstartedTestServer() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Hello, client\n"))
	})

	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	mux.HandleFunc("/redirect_twice", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/redirect", http.StatusMovedPermanently)
	})

	mux.HandleFunc("/redirect_fragment", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/#section2")
		w.WriteHeader(http.StatusFound)
	})

	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusTemporaryRedirect)
	})

	mux.HandleFunc("/bad_location", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "http://[::1")
		w.WriteHeader(http.StatusFound)
	})

	mux.HandleFunc("/ftp_location", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "ftp://example.com/file")
		w.WriteHeader(http.StatusFound)
	})

	mux.HandleFunc("/to_disallowed", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/disallowed", http.StatusFound)
	})

	mux.HandleFunc("/cors", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Access-Control-Expose-Headers", "*")
		w.Header().Set("X-Secret", "42")
		w.Header().Add("Set-Cookie", "session=1")
		w.WriteHeader(http.StatusOK)
	})

	mux.Handle("/allowed", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Allowed"))
	}))

	mux.Handle("/disallowed", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Disallowed"))
	}))

	mux.Handle("/robots.txt", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User-agent: *\nDisallow: /disallowed"))
	}))

	mux.Handle("/user_agent", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(r.Header.Get("User-Agent")))
	}))

	return httptest.NewUnstartedServer(mux)
}

func newTestServer() *httptest.Server {
	server := newUnstartedTestServer()
	server.Start()

	return server
}

func newTestFetcher(options ...Options) *Fetcher {
	client := &http.Client{
		Timeout: time.Second * 10,
	}

	return New(
		append([]Options{WithClient(client)}, options...)...,
	)
}

func readBody(t *testing.T, res *response.Response) string {
	t.Helper()

	require.NotNil(t, res.Body())
	defer res.Body().Stream.Close()

	b, err := io.ReadAll(res.Body().Stream)
	require.NoError(t, err)

	return string(b)
}

func TestFetcher_FetchHomePage(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	f := newTestFetcher()
	res, err := f.Fetch(context.Background(), server.URL+"/", RedirectFollow)
	require.NoError(t, err)

	assert.Equal(t, response.TypeDefault, res.Type())
	assert.Equal(t, http.StatusOK, res.Status())
	assert.Equal(t, "OK", res.StatusMessage())
	assert.Len(t, res.URLList(), 1)
	assert.Equal(t, "Hello, client\n", readBody(t, res))
}

func TestFetcher_FollowRedirects(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	f := newTestFetcher()
	res, err := f.Fetch(context.Background(), server.URL+"/redirect_twice", RedirectFollow)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.Status())

	var urls []string
	for _, u := range res.URLList() {
		urls = append(urls, u.String())
	}
	assert.Equal(t, []string{
		server.URL + "/redirect_twice",
		server.URL + "/redirect",
		server.URL + "/",
	}, urls)
	assert.Equal(t, "Hello, client\n", readBody(t, res))
}

func TestFetcher_RequestFragmentSurvivesRedirect(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	f := newTestFetcher()

	res, err := f.Fetch(context.Background(), server.URL+"/redirect#orig", RedirectFollow)
	require.NoError(t, err)
	current, ok := res.URL()
	require.True(t, ok)
	assert.Equal(t, "orig", current.Fragment)

	res, err = f.Fetch(context.Background(), server.URL+"/redirect_fragment#orig", RedirectFollow)
	require.NoError(t, err)
	current, ok = res.URL()
	require.True(t, ok)
	assert.Equal(t, "section2", current.Fragment)
}

func TestFetcher_ManualRedirect(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	f := newTestFetcher()
	res, err := f.Fetch(context.Background(), server.URL+"/redirect", RedirectManual)
	require.NoError(t, err)
	defer res.Body().Stream.Close()

	assert.Equal(t, http.StatusSeeOther, res.Status())
	location, ok := res.HeaderList().Get("Location")
	assert.True(t, ok)
	assert.Equal(t, "/", location)

	view := response.NewOpaqueRedirect(res)
	assert.Equal(t, 0, view.Status())
	assert.True(t, view.HeaderList().IsEmpty())

	next, err := view.Internal().LocationURL("")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/", next.String())
}

func TestFetcher_ErrorRedirect(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	f := newTestFetcher()
	res, err := f.Fetch(context.Background(), server.URL+"/redirect", RedirectError)
	require.NoError(t, err)
	assert.True(t, res.IsNetworkError())
	assert.False(t, res.IsAbortedNetworkError())
}

func TestFetcher_TooManyRedirects(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	f := newTestFetcher(WithMaxRedirects(3))
	res, err := f.Fetch(context.Background(), server.URL+"/loop", RedirectFollow)
	require.NoError(t, err)
	assert.True(t, res.IsNetworkError())
}

func TestFetcher_InvalidLocationIsNetworkError(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	f := newTestFetcher()

	for _, path := range []string{"/bad_location", "/ftp_location"} {
		res, err := f.Fetch(context.Background(), server.URL+path, RedirectFollow)
		require.NoError(t, err)
		assert.True(t, res.IsNetworkError(), path)
	}
}

func TestFetcher_CORSWildcardExposure(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	res, err := newTestFetcher().Fetch(context.Background(), server.URL+"/cors", RedirectFollow)
	require.NoError(t, err)

	view, err := response.NewCORS(res)
	require.NoError(t, err)
	assert.True(t, view.HeaderList().Contains("X-Secret"))
	assert.True(t, view.HeaderList().Contains("Content-Type"))
	assert.False(t, view.HeaderList().Contains("Set-Cookie"))

	res, err = newTestFetcher(WithCredentials(true)).Fetch(context.Background(), server.URL+"/cors", RedirectFollow)
	require.NoError(t, err)

	view, err = response.NewCORS(res)
	require.NoError(t, err)
	assert.False(t, view.HeaderList().Contains("X-Secret"))
	assert.True(t, view.HeaderList().Contains("Content-Type"))
}

func TestFetcher_CancelledContextIsAborted(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newTestFetcher(WithIgnoreRobots(true))
	res, err := f.Fetch(ctx, server.URL+"/", RedirectFollow)
	require.NoError(t, err)
	assert.True(t, res.IsAbortedNetworkError())
}

func TestFetcher_TransportFailureIsNetworkError(t *testing.T) {
	server := newTestServer()
	serverURL := server.URL
	server.Close()

	f := newTestFetcher(WithIgnoreRobots(true))
	res, err := f.Fetch(context.Background(), serverURL+"/", RedirectFollow)
	require.NoError(t, err)
	assert.True(t, res.IsNetworkError())
	assert.False(t, res.IsAbortedNetworkError())
}

func TestFetcher_FetchWithRobotsDisallowed(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), server.URL+"/disallowed", RedirectFollow)
	assert.ErrorIs(t, err, ErrRobotsDisallowed)

	_, err = f.Fetch(context.Background(), server.URL+"/to_disallowed", RedirectFollow)
	assert.ErrorIs(t, err, ErrRobotsDisallowed)

	res, err := newTestFetcher(WithIgnoreRobots(true)).Fetch(context.Background(), server.URL+"/disallowed", RedirectFollow)
	require.NoError(t, err)
	assert.Equal(t, "Disallowed", readBody(t, res))
}

func TestFetcher_RobotsCached(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	store := NewInMemoryStore()
	f := newTestFetcher(WithStore(store))

	res, err := f.Fetch(context.Background(), server.URL+"/allowed", RedirectFollow)
	require.NoError(t, err)
	assert.Equal(t, "Allowed", readBody(t, res))

	_, ok := store.Robots(res.URLList()[0].Host)
	assert.True(t, ok)
}

func TestFetcher_UserAgent(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	f := newTestFetcher(WithUserAgent("custom-agent"))
	res, err := f.Fetch(context.Background(), server.URL+"/user_agent", RedirectFollow)
	require.NoError(t, err)
	assert.Equal(t, "custom-agent", readBody(t, res))
}

func TestFetcher_AllowedURLs(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	allowed := []string{
		server.URL + "/allowed",
		server.URL + "/user_agent",
	}

	f := newTestFetcher(WithAllowedURLs(allowed))

	res, err := f.Fetch(context.Background(), server.URL+"/allowed", RedirectFollow)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status())

	res, err = f.Fetch(context.Background(), server.URL+"/user_agent", RedirectFollow)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status())

	_, err = f.Fetch(context.Background(), server.URL+"/", RedirectFollow)
	assert.ErrorIs(t, err, ErrForbiddenURL)
}

func TestFetcher_DisallowedURLs(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	disallowed := []string{
		server.URL + "/allowed",
	}

	f := newTestFetcher(WithDisallowedURLs(disallowed))

	_, err := f.Fetch(context.Background(), server.URL+"/allowed", RedirectFollow)
	assert.ErrorIs(t, err, ErrForbiddenURL)

	res, err := f.Fetch(context.Background(), server.URL+"/", RedirectFollow)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status())
}

func TestParseRedirectMode(t *testing.T) {
	mode, err := ParseRedirectMode("manual")
	require.NoError(t, err)
	assert.Equal(t, RedirectManual, mode)

	_, err = ParseRedirectMode("sideways")
	assert.ErrorIs(t, err, ErrRedirectMode)
}

func TestFetcher_RobotsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Hello, client\n"))
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/real-robots.txt", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/real-robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User-agent: *\nDisallow: /private"))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	f := newTestFetcher()

	res, err := f.Fetch(context.Background(), server.URL+"/", RedirectFollow)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status())
	assert.Equal(t, "Hello, client\n", readBody(t, res))

	_, err = f.Fetch(context.Background(), server.URL+"/private", RedirectFollow)
	assert.ErrorIs(t, err, ErrRobotsDisallowed)
}

func TestFetcher_CancelledDuringRobotsCheckIsAborted(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestFetcher().Fetch(ctx, server.URL+"/", RedirectFollow)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.IsAbortedNetworkError())
}
