package fetch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/httputil"
	"github.com/matzehuels/annograph/pkg/resource"
)

// Defaults applied by [New] for zero-valued options.
const (
	DefaultAccept       = "application/ld+json"
	DefaultMaxBodyBytes = 10 << 20
)

// Options configures a Fetcher.
type Options struct {
	// Accept is sent with every GET. Defaults to [DefaultAccept].
	Accept string
	// MaxBodyBytes bounds decoded document size. Defaults to [DefaultMaxBodyBytes].
	MaxBodyBytes int64
	// Logger receives debug output. Nil uses log.Default().
	Logger *log.Logger
}

// Fetcher retrieves linked-data documents and probes content types.
// It is safe for concurrent use. Probe results are remembered for the
// lifetime of the Fetcher, which is one traversal.
type Fetcher struct {
	client  *http.Client
	accept  string
	maxBody int64
	logger  *log.Logger

	probes singleflight.Group
	mu     sync.RWMutex
	probed map[string]string
}

// New creates a Fetcher using client for all requests.
// A nil client uses [httputil.NewClient] with the default timeout.
func New(client *http.Client, opts Options) *Fetcher {
	if client == nil {
		client = httputil.NewClient(httputil.DefaultTimeout, "")
	}
	if opts.Accept == "" {
		opts.Accept = DefaultAccept
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Fetcher{
		client:  client,
		accept:  opts.Accept,
		maxBody: opts.MaxBodyBytes,
		logger:  opts.Logger,
		probed:  make(map[string]string),
	}
}

// Fetch GETs uri with content negotiation, following redirects, and decodes
// the body as JSON.
//
// Errors carry ErrCodeNetwork for transport failures, ErrCodeHTTP for
// non-2xx responses and ErrCodeParse for bodies that are too large or not
// JSON.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (*resource.RawDocument, error) {
	resp, err := f.do(ctx, http.MethodGet, uri)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read %s", uri)
	}
	if int64(len(data)) > f.maxBody {
		return nil, errors.New(errors.ErrCodeParse, "%s: body exceeds %d bytes", uri, f.maxBody)
	}

	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode %s", uri)
	}
	f.logger.Debug("fetched", "uri", uri, "bytes", len(data), "final", resp.Request.URL.String())

	return &resource.RawDocument{
		URI:         uri,
		ContentType: httputil.MediaType(resp.Header.Get("Content-Type")),
		Body:        body,
	}, nil
}

// Probe issues a HEAD request for uri and returns the primary media type of
// the response. Concurrent probes of the same uri share one request.
func (f *Fetcher) Probe(ctx context.Context, uri string) (string, error) {
	f.mu.RLock()
	ct, ok := f.probed[uri]
	f.mu.RUnlock()
	if ok {
		return ct, nil
	}

	v, err, _ := f.probes.Do(uri, func() (any, error) {
		resp, err := f.do(ctx, http.MethodHead, uri)
		if err != nil {
			return "", err
		}
		resp.Body.Close()

		ct := httputil.MediaType(resp.Header.Get("Content-Type"))
		f.mu.Lock()
		f.probed[uri] = ct
		f.mu.Unlock()
		return ct, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (f *Fetcher) do(ctx context.Context, method, uri string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, uri, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedURI, err, "%s %s", method, uri)
	}
	if method == http.MethodGet {
		req.Header.Set("Accept", f.accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, uri)
	}
	if !httputil.IsSuccess(resp.StatusCode) {
		resp.Body.Close()
		return nil, errors.HTTPStatus(resp.StatusCode, "%s %s: status %d", method, uri, resp.StatusCode)
	}
	return resp, nil
}
