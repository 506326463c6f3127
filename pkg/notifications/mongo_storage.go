package notifications

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection is the collection MongoStorage writes to.
const DefaultCollection = "notifications"

// MongoStorage persists notifications in a MongoDB collection.
type MongoStorage struct {
	coll *mongo.Collection
}

// NewMongoStorage uses the given collection name, or DefaultCollection
// when empty.
func NewMongoStorage(db *mongo.Database, collection string) *MongoStorage {
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoStorage{coll: db.Collection(collection)}
}

type notificationDoc struct {
	ID            string         `bson:"_id"`
	Type          Type           `bson:"type"`
	Title         string         `bson:"title"`
	Message       string         `bson:"message"`
	Data          map[string]any `bson:"data,omitempty"`
	RecipientsAll bool           `bson:"recipientsAll"`
	Recipients    []string       `bson:"recipients"`
	ReadBy        []string       `bson:"readBy"`
	CreatedAt     time.Time      `bson:"createdAt"`
}

func toDoc(n Notification) notificationDoc {
	readBy := n.ReadBy
	if readBy == nil {
		readBy = []string{}
	}
	return notificationDoc{
		ID:            n.ID,
		Type:          n.Type,
		Title:         n.Title,
		Message:       n.Message,
		Data:          n.Data,
		RecipientsAll: n.Recipients.IsAll(),
		Recipients:    n.Recipients.IDs(),
		ReadBy:        readBy,
		CreatedAt:     n.CreatedAt,
	}
}

func (d notificationDoc) notification() Notification {
	recipients := Users(d.Recipients...)
	if d.RecipientsAll {
		recipients = All()
	}
	return Notification{
		ID:         d.ID,
		Type:       d.Type,
		Title:      d.Title,
		Message:    d.Message,
		Data:       d.Data,
		Recipients: recipients,
		ReadBy:     d.ReadBy,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

func (m *MongoStorage) Insert(ctx context.Context, n Notification) error {
	if _, err := m.coll.InsertOne(ctx, toDoc(n)); err != nil {
		return fmt.Errorf("notifications: insert %s: %w", n.ID, err)
	}
	return nil
}

func (m *MongoStorage) AddReader(ctx context.Context, userID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := m.coll.UpdateMany(ctx,
		bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}},
		bson.D{{Key: "$addToSet", Value: bson.D{{Key: "readBy", Value: userID}}}},
	)
	if err != nil {
		return fmt.Errorf("notifications: mark read: %w", err)
	}
	return nil
}

func (m *MongoStorage) Clear(ctx context.Context) error {
	if _, err := m.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("notifications: clear: %w", err)
	}
	return nil
}

func (m *MongoStorage) Recent(ctx context.Context, limit int) ([]Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := m.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("notifications: load recent: %w", err)
	}
	var docs []notificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("notifications: decode recent: %w", err)
	}
	out := make([]Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.notification())
	}
	return out, nil
}

// EnsureIndexes creates the index backing Recent.
func (m *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("notifications: create indexes: %w", err)
	}
	return nil
}
