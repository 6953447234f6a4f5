package sink

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/registry"
	"github.com/matzehuels/annograph/pkg/resource"
)

// Sink receives the snapshot of a finished traversal.
type Sink interface {
	Write(ctx context.Context, snap *registry.Snapshot) error
	Close() error
}

// Options configures sinks created by [Open].
type Options struct {
	// TTL bounds how long stores with expiry (Redis) keep a run.
	// Zero keeps it forever.
	TTL time.Duration
}

// Open creates the sink described by rawURL:
//
//	""                          NullSink
//	"out.json", "file:///out"   FileSink
//	"redis://host:6379/0"       RedisSink
//	"mongodb://host/annograph"  MongoSink
func Open(ctx context.Context, rawURL string, opts Options) (Sink, error) {
	if rawURL == "" {
		return NewNullSink(), nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "sink URL %q", rawURL)
	}
	switch u.Scheme {
	case "":
		return NewFileSink(rawURL), nil
	case "file":
		return NewFileSink(u.Path), nil
	case "redis", "rediss":
		return NewRedisSink(rawURL, opts.TTL)
	case "mongodb", "mongodb+srv":
		return NewMongoSink(ctx, rawURL)
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "unsupported sink scheme %q", u.Scheme)
	}
}

// Multi writes every snapshot to all of its sinks concurrently.
type Multi []Sink

// Write implements [Sink]. The group has no context, so a failing sink does
// not stop the others. The errors of all failed sinks are joined.
func (m Multi) Write(ctx context.Context, snap *registry.Snapshot) error {
	errs := make([]error, len(m))
	var g errgroup.Group
	for i, s := range m {
		g.Go(func() error {
			errs[i] = s.Write(ctx, snap)
			return errs[i]
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}
	return errors.Join(errs...)
}

// Close implements [Sink].
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// RunKey returns the key a run is stored under in key-value stores.
func RunKey(runID string) string {
	return "annograph:run:" + runID
}

// targetRecord is the storage form of a merged target, usable in stores
// that disallow URLs as field names.
type targetRecord struct {
	URI       string   `json:"uri" bson:"uri"`
	Kind      string   `json:"kind" bson:"kind"`
	Fragments []string `json:"fragments" bson:"fragments"`
}

func targetRecords(kind resource.MediaKind, m map[string]resource.FragmentSet) []targetRecord {
	uris := make([]string, 0, len(m))
	for uri := range m {
		uris = append(uris, uri)
	}
	slices.Sort(uris)
	out := make([]targetRecord, len(uris))
	for i, uri := range uris {
		out[i] = targetRecord{URI: uri, Kind: string(kind), Fragments: m[uri].Sorted()}
	}
	return out
}

// bodyTexts returns the text of every textual body in the snapshot.
func bodyTexts(snap *registry.Snapshot) []string {
	var out []string
	for _, b := range snap.TextualBodies {
		if t := strings.TrimSpace(b.Text()); t != "" {
			out = append(out, t)
		}
	}
	return out
}
