package directory

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/daoboard/notifier/pkg/dao"
)

const (
	usersCollection   = "users"
	recordsCollection = "daos"
)

// MongoUsers reads and writes the users collection.
type MongoUsers struct {
	coll *mongo.Collection
}

func NewMongoUsers(db *mongo.Database) *MongoUsers {
	return &MongoUsers{coll: db.Collection(usersCollection)}
}

func (m *MongoUsers) User(ctx context.Context, id string) (User, error) {
	return m.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (m *MongoUsers) ByEmail(ctx context.Context, email string) (User, error) {
	pattern := "^" + regexp.QuoteMeta(email) + "$"
	return m.findOne(ctx, bson.D{{Key: "email", Value: bson.Regex{Pattern: pattern, Options: "i"}}})
}

func (m *MongoUsers) ActiveUsers(ctx context.Context) ([]User, error) {
	cur, err := m.coll.Find(ctx, bson.D{{Key: "isActive", Value: true}},
		options.Find().SetSort(bson.D{{Key: "displayName", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("directory: list active users: %w", err)
	}
	var users []User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("directory: decode users: %w", err)
	}
	return users, nil
}

func (m *MongoUsers) Create(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if _, err := m.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("directory: create user: %w", err)
	}
	return u, nil
}

func (m *MongoUsers) Activate(ctx context.Context, id string) (User, error) {
	res := m.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "isActive", Value: true}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var u User
	if err := res.Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("directory: activate user: %w", err)
	}
	return u, nil
}

func (m *MongoUsers) findOne(ctx context.Context, filter bson.D) (User, error) {
	var u User
	if err := m.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("directory: find user: %w", err)
	}
	return u, nil
}

// MongoRecords reads case files from the daos collection.
type MongoRecords struct {
	coll *mongo.Collection
}

func NewMongoRecords(db *mongo.Database) *MongoRecords {
	return &MongoRecords{coll: db.Collection(recordsCollection)}
}

func (m *MongoRecords) Record(ctx context.Context, id string) (dao.Record, error) {
	var r dao.Record
	if err := m.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return dao.Record{}, ErrRecordNotFound
		}
		return dao.Record{}, fmt.Errorf("directory: find record: %w", err)
	}
	return r, nil
}
