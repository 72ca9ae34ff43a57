package state

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/stackwright/pkg/errors"
)

const mongoCollection = "assembly_states"

// MongoStore keeps one document per part instance.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDoc struct {
	ID        string    `bson:"_id"`
	Part      string    `bson:"part"`
	Instance  string    `bson:"instance"`
	State     State     `bson:"state"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore connects to uri and uses the named database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongo")
	}
	coll := client.Database(database).Collection(mongoCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "part", Value: 1}, {Key: "updated_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create mongo index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func mongoID(part, instance string) string { return part + "/" + instance }

// Load reads a state document.
func (s *MongoStore) Load(ctx context.Context, part, instance string) (State, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": mongoID(part, instance)}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return State{}, errors.New(errors.ErrCodeNotFound, "no state for %s/%s", part, instance)
	}
	if err != nil {
		return State{}, errors.Wrap(errors.ErrCodeStorage, err, "load %s/%s", part, instance)
	}
	return doc.State, doc.State.Validate()
}

// Save upserts a state document.
func (s *MongoStore) Save(ctx context.Context, instance string, st State) error {
	if err := errors.ValidateName("instance", instance); err != nil {
		return err
	}
	if err := st.Validate(); err != nil {
		return err
	}
	doc := mongoDoc{
		ID:        mongoID(st.Part, instance),
		Part:      st.Part,
		Instance:  instance,
		State:     st,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save %s", doc.ID)
	}
	return nil
}

// Delete removes a state document.
func (s *MongoStore) Delete(ctx context.Context, part, instance string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": mongoID(part, instance)}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete %s/%s", part, instance)
	}
	return nil
}

// Instances lists instance names saved for part, most recent first.
func (s *MongoStore) Instances(ctx context.Context, part string) ([]string, error) {
	cur, err := s.coll.Find(ctx, bson.M{"part": part},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}).SetProjection(bson.M{"instance": 1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list %s", part)
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var doc struct {
			Instance string `bson:"instance"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "list %s", part)
		}
		names = append(names, doc.Instance)
	}
	return names, cur.Err()
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
