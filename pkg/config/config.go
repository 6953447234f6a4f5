package config

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/httputil"
	"github.com/matzehuels/annograph/pkg/resource"
	"github.com/matzehuels/annograph/pkg/vocab"
)

// Defaults.
const (
	DefaultAccept           = "application/ld+json"
	DefaultMaxBodyBytes     = 10 << 20
	DefaultProbeConcurrency = 8
	DefaultServerAddr       = ":8080"
	DefaultServerMaxRuns    = 100
	DefaultServerRunTTL     = time.Hour
	DefaultSinkTTL          = 24 * time.Hour
)

// Config is the effective configuration of a run.
type Config struct {
	Fetch      Fetch             `toml:"fetch"`
	Classify   Classify          `toml:"classify"`
	Namespaces map[string]string `toml:"namespaces"`
	Sink       Sink              `toml:"sink"`
	Server     Server            `toml:"server"`
}

// Fetch configures the HTTP side of the fetcher.
type Fetch struct {
	Accept       string   `toml:"accept"`
	Timeout      Duration `toml:"timeout"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
	UserAgent    string   `toml:"user_agent,omitempty"`
}

// Classify holds the heuristics tables used to sort outbound references.
type Classify struct {
	TraverseContentTypes []string    `toml:"traverse_content_types"`
	ProbeConcurrency     int         `toml:"probe_concurrency"`
	Media                []MediaRule `toml:"media"`
}

// MediaRule recognizes one media kind by path suffix or probed content type.
// Suffixes are matched case-sensitively against the fragment-free path.
type MediaRule struct {
	Kind         string   `toml:"kind"`
	Suffixes     []string `toml:"suffixes"`
	ContentTypes []string `toml:"content_types,omitempty"`
}

// Sink selects where snapshots are written after a run.
type Sink struct {
	URL string   `toml:"url,omitempty"`
	TTL Duration `toml:"ttl"`
}

// Server configures the serve command.
type Server struct {
	Addr        string   `toml:"addr"`
	FixturesDir string   `toml:"fixtures_dir,omitempty"`
	MaxRuns     int      `toml:"max_runs"`
	RunTTL      Duration `toml:"run_ttl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Fetch: Fetch{
			Accept:       DefaultAccept,
			Timeout:      Duration(httputil.DefaultTimeout),
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		Classify: Classify{
			TraverseContentTypes: []string{
				"application/ld+json",
				"application/json",
				"text/turtle",
				"application/rdf+xml",
				"text/n3",
				"application/n-triples",
			},
			ProbeConcurrency: DefaultProbeConcurrency,
			Media: []MediaRule{
				{Kind: string(resource.KindMusicNotation), Suffixes: []string{".mei"}},
				{
					Kind:         string(resource.KindAudio),
					Suffixes:     []string{".mp3", ".wav", ".ogg"},
					ContentTypes: []string{"audio/mpeg", "audio/wav", "audio/ogg"},
				},
			},
		},
		Namespaces: vocab.DefaultNamespaces(),
		Sink:       Sink{TTL: Duration(DefaultSinkTTL)},
		Server: Server{
			Addr:    DefaultServerAddr,
			MaxRuns: DefaultServerMaxRuns,
			RunTTL:  Duration(DefaultServerRunTTL),
		},
	}
}

// Load reads the TOML file at path over the defaults and validates the result.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if err := cfg.decode(string(data)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults and validates the result.
func Parse(text string) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(text); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(text string) error {
	// Tables given in the file replace the defaults rather than merging
	// element by element.
	var probe struct {
		Classify struct {
			Media []MediaRule `toml:"media"`
		} `toml:"classify"`
	}
	md, err := toml.Decode(text, &probe)
	if err != nil {
		return err
	}
	if md.IsDefined("classify", "media") {
		c.Classify.Media = nil
	}
	if md.IsDefined("classify", "traverse_content_types") {
		c.Classify.TraverseContentTypes = nil
	}
	if md.IsDefined("namespaces") {
		c.Namespaces = nil
	}
	md, err = toml.Decode(text, c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Fetch.Accept == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "fetch.accept must not be empty")
	}
	if c.Fetch.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "fetch.timeout must not be negative")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "fetch.max_body_bytes must be positive")
	}
	if c.Classify.ProbeConcurrency <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "classify.probe_concurrency must be positive")
	}
	if len(c.Classify.TraverseContentTypes) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "classify.traverse_content_types must not be empty")
	}
	seen := make(map[resource.MediaKind]bool)
	for i, r := range c.Classify.Media {
		kind, ok := resource.ParseMediaKind(r.Kind)
		if !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "classify.media[%d]: unknown kind %q", i, r.Kind)
		}
		if seen[kind] {
			return errors.New(errors.ErrCodeInvalidConfig, "classify.media[%d]: duplicate kind %q", i, r.Kind)
		}
		seen[kind] = true
		if len(r.Suffixes) == 0 && len(r.ContentTypes) == 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "classify.media[%d]: needs suffixes or content_types", i)
		}
		if slices.Contains(r.Suffixes, "") {
			return errors.New(errors.ErrCodeInvalidConfig, "classify.media[%d]: empty suffix", i)
		}
	}
	if _, err := vocab.NewNamespaces(c.Namespaces); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "namespaces")
	}
	if c.Sink.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "sink.ttl must not be negative")
	}
	if c.Server.MaxRuns <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_runs must be positive")
	}
	if c.Server.RunTTL <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.run_ttl must be positive")
	}
	return nil
}

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.Indent = "  "
	return enc.Encode(c)
}

// Duration is a time.Duration that reads and writes "30s"-style strings.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
