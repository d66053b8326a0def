package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blogapi/config"
)

// Mongo bundles the client and the named collections used by the app.
type Mongo struct {
	Client   *mongo.Client
	DB       *mongo.Database
	Users    *mongo.Collection
	Posts    *mongo.Collection
	Comments *mongo.Collection
	Images   *mongo.Collection
}

// Connect dials MongoDB, pings it and prepares collection handles and
// indexes. The caller owns the returned handle and must Disconnect it.
func Connect(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(dialCtx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.MongoDBName)
	m := &Mongo{
		Client:   client,
		DB:       db,
		Users:    db.Collection("users"),
		Posts:    db.Collection("posts"),
		Comments: db.Collection("comments"),
		Images:   db.Collection("images"),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// ensureIndexes creates the unique constraints the write paths rely on:
// duplicate slug/email inserts must fail at the storage boundary.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	idxCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := m.Users.Indexes().CreateOne(idxCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = m.Posts.Indexes().CreateOne(idxCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = m.Comments.Indexes().CreateMany(idxCtx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author", Value: 1}}},
		{Keys: bson.D{{Key: "post", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

// Disconnect closes the underlying client.
func (m *Mongo) Disconnect(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return nil
	}
	closeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.Client.Disconnect(closeCtx)
}
