package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoDefaultDatabase = "atelier"

// Mongo maps collections straight onto MongoDB collections. Selected when
// the connection string is a mongodb:// or mongodb+srv:// URL.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects and pings the deployment. The database name comes from
// the URL path, falling back to "atelier".
func OpenMongo(uri string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &Mongo{client: client, db: client.Database(databaseName(uri))}, nil
}

func databaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return mongoDefaultDatabase
	}
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		return name
	}
	return mongoDefaultDatabase
}

func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

func (m *Mongo) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	res, err := m.db.Collection(collection).InsertOne(ctx, bson.M(doc))
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

func (m *Mongo) Find(ctx context.Context, collection string, filter map[string]any, limit int) ([]Document, error) {
	query := bson.M{}
	for field, value := range filter {
		query[field] = value
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.db.Collection(collection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("read %s cursor: %w", collection, err)
	}

	docs := make([]Document, 0, len(raw))
	for _, r := range raw {
		doc := Document{}
		for k, v := range r {
			doc[k] = fromBSON(v)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (m *Mongo) CountByField(ctx context.Context, collection, field string) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := m.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s by %s: %w", collection, field, err)
	}

	var groups []struct {
		ID    any `bson:"_id"`
		Count int `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("read aggregate cursor: %w", err)
	}

	counts := map[string]int{}
	for _, g := range groups {
		key, _ := g.ID.(string)
		counts[key] += g.Count
	}

	return counts, nil
}

func (m *Mongo) CollectionNames(ctx context.Context) ([]string, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return names, nil
}

func (m *Mongo) Status() Status {
	return Status{Connected: true, Name: m.db.Name()}
}

// fromBSON rewrites driver-specific values into plain Go ones so documents
// look the same no matter which backend produced them.
func fromBSON(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time()
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromBSON(e)
		}
		return out
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = fromBSON(e)
		}
		return out
	default:
		return v
	}
}
