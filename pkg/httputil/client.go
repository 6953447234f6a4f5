package httputil

import (
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/annograph/pkg/observability"
)

// DefaultTimeout bounds every request made by a client from [NewClient] when
// no timeout is configured.
const DefaultTimeout = 30 * time.Second

// NewClient creates an HTTP client with the given per-request timeout.
// A zero timeout disables the deadline. Every request carries userAgent (when
// non-empty) and reports to the registered [observability.HTTPHooks].
func NewClient(timeout time.Duration, userAgent string) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &Transport{UserAgent: userAgent},
	}
}

// Transport is an [http.RoundTripper] that sets the User-Agent header and
// emits HTTP hooks around the wrapped transport.
type Transport struct {
	Base      http.RoundTripper // nil means http.DefaultTransport
	UserAgent string
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.UserAgent)
	}

	hooks := observability.HTTP()
	ctx, host, path := req.Context(), req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := base.RoundTrip(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, err
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))
	return resp, nil
}

// MediaType returns the primary media type token of a Content-Type header
// value: the text before the first ";", trimmed. Case is preserved.
func MediaType(contentType string) string {
	token, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(token)
}

// IsSuccess reports whether code is a 2xx status.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}
