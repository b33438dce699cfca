package m3u8

import "net/http"

// HeaderMapTransport implements custom header injection
type HeaderMapTransport struct {
	Headers   map[string]string
	UserAgent string
	Base      http.RoundTripper
}

func (t *HeaderMapTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.UserAgent != "" || len(t.Headers) > 0 {
		req = req.Clone(req.Context())
	}
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
