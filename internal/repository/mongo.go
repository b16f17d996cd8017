package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	mongoIDField     = "_id"
	mongoParentField = "_parent"
)

// MongoStore maps each collection id to a Mongo collection; _id holds the full
// document path and _parent the parent document path.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to uri and verifies the connection
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// Find runs q against the collection named q.Collection
func (r *MongoStore) Find(ctx context.Context, q Query) ([]Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	filter := bson.D{}
	if !q.Group {
		filter = append(filter, bson.E{Key: mongoParentField, Value: strings.Trim(q.Parent, "/")})
	}
	for _, f := range q.Filters {
		switch f.Op {
		case OpEq, OpArrayContains:
			// Mongo matches array elements by plain equality.
			filter = append(filter, bson.E{Key: f.Field, Value: f.Value})
		case OpLte:
			filter = append(filter, bson.E{Key: f.Field, Value: bson.D{{Key: "$lte", Value: f.Value}}})
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: mongoIDField, Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := r.db.Collection(q.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", q.Collection, err)
	}

	docs := make([]Document, 0, len(raw))
	for _, m := range raw {
		doc, err := fromBSON(m)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Get retrieves a document by path
func (r *MongoStore) Get(ctx context.Context, path string) (*Document, error) {
	_, collection, _, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	var m bson.M
	err = r.db.Collection(collection).FindOne(ctx, bson.D{{Key: mongoIDField, Value: path}}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	doc, err := fromBSON(m)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Set creates or replaces a document
func (r *MongoStore) Set(ctx context.Context, path string, data map[string]any) error {
	parent, collection, _, err := splitPath(path)
	if err != nil {
		return err
	}

	doc := bson.M{mongoIDField: path, mongoParentField: parent}
	for k, v := range data {
		doc[k] = v
	}
	_, err = r.db.Collection(collection).ReplaceOne(ctx,
		bson.D{{Key: mongoIDField, Value: path}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}
	return nil
}

// Update merges fields into an existing document
func (r *MongoStore) Update(ctx context.Context, path string, fields map[string]any) error {
	_, collection, _, err := splitPath(path)
	if err != nil {
		return err
	}

	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	result, err := r.db.Collection(collection).UpdateOne(ctx,
		bson.D{{Key: mongoIDField, Value: path}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document if present
func (r *MongoStore) Delete(ctx context.Context, path string) error {
	_, collection, _, err := splitPath(path)
	if err != nil {
		return err
	}
	if _, err := r.db.Collection(collection).DeleteOne(ctx, bson.D{{Key: mongoIDField, Value: path}}); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// DeleteBatch removes all paths inside a multi-document transaction
func (r *MongoStore) DeleteBatch(ctx context.Context, paths []string) error {
	if err := validateBatch(paths); err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}

	byCollection := make(map[string][]string)
	for _, path := range paths {
		_, collection, _, err := splitPath(path)
		if err != nil {
			return err
		}
		byCollection[collection] = append(byCollection[collection], path)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		for collection, ids := range byCollection {
			filter := bson.D{{Key: mongoIDField, Value: bson.D{{Key: "$in", Value: ids}}}}
			if _, err := r.db.Collection(collection).DeleteMany(ctx, filter); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Add stores data under a generated id
func (r *MongoStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	path := DocPath(collection, uuid.New().String())
	if err := r.Set(ctx, path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Close disconnects the client
func (r *MongoStore) Close() error {
	return r.client.Disconnect(context.Background())
}

func fromBSON(m bson.M) (Document, error) {
	path, _ := m[mongoIDField].(string)
	_, _, id, err := splitPath(path)
	if err != nil {
		return Document{}, err
	}
	data := make(map[string]any, len(m))
	for k, v := range m {
		if k == mongoIDField || k == mongoParentField {
			continue
		}
		data[k] = normalizeBSON(v)
	}
	return Document{Path: path, ID: id, Data: data}, nil
}

// normalizeBSON converts driver types into plain Go values
func normalizeBSON(v any) any {
	switch t := v.(type) {
	case bson.DateTime:
		return t.Time().UTC()
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeBSON(e)
		}
		return out
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeBSON(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalizeBSON(e.Value)
		}
		return out
	}
	return v
}

var _ Store = (*MongoStore)(nil)
