package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/registry"
	"github.com/matzehuels/annograph/pkg/resource"
)

// MetaField is the hash field holding everything except the resources.
const MetaField = "_meta"

// runMeta is the run summary stored next to the resources.
type runMeta struct {
	RunID         string             `json:"run_id" bson:"_id"`
	Root          string             `json:"root" bson:"root"`
	Generated     time.Time          `json:"generated" bson:"generated"`
	Resources     int                `json:"resources" bson:"resources"`
	MusicTargets  []targetRecord     `json:"music_targets" bson:"music_targets"`
	AudioTargets  []targetRecord     `json:"audio_targets" bson:"audio_targets"`
	TextualBodies []string           `json:"textual_bodies" bson:"textual_bodies"`
	Failures      []registry.Failure `json:"failures" bson:"failures"`
}

func newRunMeta(snap *registry.Snapshot) runMeta {
	return runMeta{
		RunID:         snap.RunID,
		Root:          snap.Root,
		Generated:     snap.Generated,
		Resources:     len(snap.Resources),
		MusicTargets:  targetRecords(resource.KindMusicNotation, snap.MusicTargets),
		AudioTargets:  targetRecords(resource.KindAudio, snap.AudioTargets),
		TextualBodies: bodyTexts(snap),
		Failures:      snap.Failures,
	}
}

// RedisSink stores each run as one hash under [RunKey]: a field per
// resource URI holding its JSON, plus [MetaField].
type RedisSink struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSink creates a sink for the redis:// URL. The connection is made
// lazily on the first write.
func NewRedisSink(rawURL string, ttl time.Duration) (*RedisSink, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "redis URL")
	}
	return &RedisSink{client: redis.NewClient(opts), ttl: ttl}, nil
}

// Write implements [Sink]. The run's hash is replaced atomically.
func (s *RedisSink) Write(ctx context.Context, snap *registry.Snapshot) error {
	fields := make(map[string]any, len(snap.Resources)+1)
	for uri, res := range snap.Resources {
		data, err := json.Marshal(res)
		if err != nil {
			return err
		}
		fields[uri] = data
	}
	meta, err := json.Marshal(newRunMeta(snap))
	if err != nil {
		return err
	}
	fields[MetaField] = meta

	key := RunKey(snap.RunID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	return err
}

// Close releases the connection pool.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

var _ Sink = (*RedisSink)(nil)
