// Package store implements persistence for users, posts, comments and images
// plus the cross-entity mutation protocols: comment/post linkage, like
// toggling and the user-deletion cascade. Multi-writer fields (views, likes,
// comments) are only ever mutated through atomic field-level operators,
// never by rewriting whole documents.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"blogapi/database"
)

type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	posts    *mongo.Collection
	comments *mongo.Collection
	images   *mongo.Collection
}

func New(m *database.Mongo) *Store {
	return &Store{
		client:   m.Client,
		users:    m.Users,
		posts:    m.Posts,
		comments: m.Comments,
		images:   m.Images,
	}
}

// withTransaction runs fn inside a single commit/abort boundary. Any error
// from fn aborts the transaction, rolling back all partial writes, and is
// returned unchanged.
func (s *Store) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
