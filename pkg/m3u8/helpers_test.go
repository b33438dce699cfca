package m3u8

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func textResponse(req *http.Request, status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

// routes serves fixed bodies per URL and counts requests per URL.
type routes struct {
	mu     sync.Mutex
	bodies map[string]string
	hits   map[string]int
}

func newRoutes(bodies map[string]string) *routes {
	return &routes{bodies: bodies, hits: make(map[string]int)}
}

func (r *routes) RoundTrip(req *http.Request) (*http.Response, error) {
	u := req.URL.String()
	r.mu.Lock()
	r.hits[u]++
	body, ok := r.bodies[u]
	r.mu.Unlock()
	if !ok {
		return textResponse(req, http.StatusNotFound, "not found", nil), nil
	}
	return textResponse(req, http.StatusOK, body, nil), nil
}

func (r *routes) count(u string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits[u]
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Retry.Backoff = 0
	opts.Retry.Timeout = 5 * time.Second
	nop := zerolog.Nop()
	opts.Logger = &nop
	return opts
}

func newTestDownloader(t *testing.T, rt http.RoundTripper, mutate func(*Options)) *Downloader {
	t.Helper()
	opts := testOptions()
	if mutate != nil {
		mutate(&opts)
	}
	return NewDownloader(opts, rt)
}
