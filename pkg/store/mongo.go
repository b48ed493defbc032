// Package store persists indexed collections in MongoDB.
//
// Each collection is saved under a set name. Documents carry the set name,
// a run id shared by every document written in one Save, and the indexed
// fields of one node. Save writes the new run first and then removes older
// runs of the same set, so a failed write never loses the previous data.
//
//	st, err := store.Open(ctx, store.Options{URI: "mongodb://localhost:27017"})
//	if err != nil {
//	    return err
//	}
//	defer st.Close(ctx)
//	runID, err := st.Save(ctx, "products", res.Nodes)
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/nestree/pkg/errors"
	"github.com/matzehuels/nestree/pkg/nestedset"
)

// Defaults for [Options].
const (
	DefaultDatabase   = "nestree"
	DefaultCollection = "sets"
	DefaultTimeout    = 10 * time.Second
)

// Options configures a MongoDB connection.
type Options struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Store is a MongoDB-backed sink for indexed collections.
type Store struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// document is the stored form of one indexed node.
type document struct {
	Set      string    `bson:"set"`
	RunID    string    `bson:"run_id"`
	PID      int       `bson:"pid"`
	ID       string    `bson:"classification"`
	Label    string    `bson:"classification_label"`
	Origin   *string   `bson:"classification_origin"`
	Parent   *string   `bson:"classification_parent"`
	ParentID *int      `bson:"parent_id"`
	Leaf     bool      `bson:"leaf"`
	Left     int       `bson:"lft"`
	Right    int       `bson:"rgt"`
	Count    int       `bson:"count"`
	SavedAt  time.Time `bson:"saved_at"`
}

// Open connects to MongoDB and ensures the set index exists.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo uri is required")
	}
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI).SetConnectTimeout(opts.Timeout))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongo")
	}

	coll := client.Database(opts.Database).Collection(opts.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "set", Value: 1}, {Key: "run_id", Value: 1}, {Key: "pid", Value: 1}},
		Options: options.Index().SetName("set_run_pid"),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create index")
	}

	return &Store{client: client, coll: coll, timeout: opts.Timeout}, nil
}

// Save writes nodes under set and returns the run id. Older runs of the
// same set are removed once the new run is stored.
func (s *Store) Save(ctx context.Context, set string, nodes []nestedset.Node) (string, error) {
	if err := errors.ValidateSetName(set); err != nil {
		return "", err
	}
	runID := uuid.NewString()
	docs := toDocuments(set, runID, nodes, time.Now().UTC())

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if len(docs) > 0 {
		if _, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false)); err != nil {
			return "", errors.Wrap(errors.ErrCodeStorage, err, "insert set %s", set)
		}
	}
	filter := bson.M{"set": set, "run_id": bson.M{"$ne": runID}}
	if _, err := s.coll.DeleteMany(ctx, filter); err != nil {
		return runID, errors.Wrap(errors.ErrCodeStorage, err, "remove previous runs of %s", set)
	}
	return runID, nil
}

// Load returns the most recently saved collection for set in pid order.
func (s *Store) Load(ctx context.Context, set string) ([]nestedset.Node, error) {
	if err := errors.ValidateSetName(set); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var latest document
	err := s.coll.FindOne(ctx, bson.M{"set": set},
		options.FindOne().SetSort(bson.D{{Key: "saved_at", Value: -1}})).Decode(&latest)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeFileNotFound, "set %s not found", set)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "find set %s", set)
	}

	cur, err := s.coll.Find(ctx, bson.M{"set": set, "run_id": latest.RunID},
		options.Find().SetSort(bson.D{{Key: "pid", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load set %s", set)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode set %s", set)
	}
	return fromDocuments(docs), nil
}

// Delete removes every run of set and reports how many documents went.
func (s *Store) Delete(ctx context.Context, set string) (int64, error) {
	if err := errors.ValidateSetName(set); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.DeleteMany(ctx, bson.M{"set": set})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "delete set %s", set)
	}
	return res.DeletedCount, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toDocuments(set, runID string, nodes []nestedset.Node, now time.Time) []any {
	docs := make([]any, len(nodes))
	for i, n := range nodes {
		d := document{
			Set:     set,
			RunID:   runID,
			PID:     n.PositionID,
			ID:      n.ID,
			Label:   n.Label,
			Leaf:    n.Leaf,
			Left:    n.Left,
			Right:   n.Right,
			Count:   n.Count,
			SavedAt: now,
		}
		if n.Origin != "" {
			origin := n.Origin
			d.Origin = &origin
		}
		if n.Parent != "" {
			parent := n.Parent
			d.Parent = &parent
		}
		if n.ParentPositionID != 0 {
			ppid := n.ParentPositionID
			d.ParentID = &ppid
		}
		docs[i] = d
	}
	return docs
}

func fromDocuments(docs []document) []nestedset.Node {
	nodes := make([]nestedset.Node, len(docs))
	for i, d := range docs {
		n := nestedset.Node{
			ID:         d.ID,
			Label:      d.Label,
			Leaf:       d.Leaf,
			PositionID: d.PID,
			Left:       d.Left,
			Right:      d.Right,
			Count:      d.Count,
		}
		if d.Origin != nil {
			n.Origin = *d.Origin
		}
		if d.Parent != nil {
			n.Parent = *d.Parent
		}
		if d.ParentID != nil {
			n.ParentPositionID = *d.ParentID
		}
		nodes[i] = n
	}
	return nodes
}
