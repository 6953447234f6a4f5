package sink

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	apperrors "github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/registry"
	"github.com/matzehuels/annograph/pkg/resource"
)

// Collection names used by MongoSink.
const (
	ResourcesCollection = "resources"
	RunsCollection      = "runs"

	defaultMongoDatabase = "annograph"
)

// resourceDoc is one registered resource. Expanded and compacted forms are
// kept as JSON text because their keys are IRIs.
type resourceDoc struct {
	RunID     string         `bson:"run_id"`
	URI       string         `bson:"uri"`
	Types     []string       `bson:"types"`
	Expanded  string         `bson:"expanded"`
	Compacted string         `bson:"compacted,omitempty"`
	Targets   []targetRecord `bson:"targets,omitempty"`
	Blanks    []string       `bson:"blanks,omitempty"`
}

// MongoSink upserts one document per (run_id, uri) into the resources
// collection and one run summary into the runs collection.
type MongoSink struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoSink connects to the mongodb:// URL. The database is taken from
// the URL path and defaults to "annograph".
func NewMongoSink(ctx context.Context, rawURL string) (*MongoSink, error) {
	cs, err := connstring.ParseAndValidate(rawURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "mongodb URL")
	}
	name := cs.Database
	if name == "" {
		name = defaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(rawURL))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeNetwork, err, "connect mongodb")
	}
	return &MongoSink{client: client, db: client.Database(name)}, nil
}

// Write implements [Sink].
func (s *MongoSink) Write(ctx context.Context, snap *registry.Snapshot) error {
	var models []mongo.WriteModel
	for _, uri := range snap.URIs() {
		doc, err := newResourceDoc(snap, snap.Resources[uri])
		if err != nil {
			return err
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"run_id": snap.RunID, "uri": uri}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	if len(models) > 0 {
		_, err := s.db.Collection(ResourcesCollection).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeNetwork, err, "write resources")
		}
	}

	_, err := s.db.Collection(RunsCollection).ReplaceOne(ctx,
		bson.M{"_id": snap.RunID}, newRunMeta(snap), options.Replace().SetUpsert(true))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeNetwork, err, "write run")
	}
	return nil
}

func newResourceDoc(snap *registry.Snapshot, res *resource.Resource) (*resourceDoc, error) {
	expanded, err := json.Marshal(res.Expanded)
	if err != nil {
		return nil, err
	}
	doc := &resourceDoc{
		RunID:    snap.RunID,
		URI:      res.URI,
		Types:    slices.Clone(res.Node.Types),
		Expanded: string(expanded),
		Blanks:   snap.Blanks[res.URI],
	}
	if res.Compacted != nil {
		compacted, err := json.Marshal(res.Compacted)
		if err != nil {
			return nil, err
		}
		doc.Compacted = string(compacted)
	}
	for _, kind := range []resource.MediaKind{resource.KindMusicNotation, resource.KindAudio} {
		for _, t := range res.TargetsOf(kind) {
			doc.Targets = append(doc.Targets, targetRecord{URI: t.URI, Kind: string(kind), Fragments: t.Fragments.Sorted()})
		}
	}
	return doc, nil
}

// Close disconnects the client.
func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Sink = (*MongoSink)(nil)
