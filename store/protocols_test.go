package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"blogapi/database"
	"blogapi/models"
)

// The cross-entity protocols (comment/post linkage, like toggle, deletion
// cascade) are exercised against mtest's mocked deployment: responses are
// queued per wire command and the recorded command stream is asserted, so
// the exact filters and operators each protocol sends are pinned down.

const mockDB = "blogapi_test"

func newMockStore(mt *mtest.T) *Store {
	db := mt.Client.Database(mockDB)
	return New(&database.Mongo{
		Client:   mt.Client,
		DB:       db,
		Users:    db.Collection("users"),
		Posts:    db.Collection("posts"),
		Comments: db.Collection("comments"),
		Images:   db.Collection("images"),
	})
}

// countResponse mocks the aggregate reply CountDocuments reads its total from.
func countResponse(coll string, n int32) bson.D {
	return mtest.CreateCursorResponse(0, mockDB+"."+coll, mtest.FirstBatch,
		bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: n}})
}

func updateResponse(matched, modified int32) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: modified})
}

// updateStatement extracts the first {q, u, multi} statement of a recorded
// update command.
func updateStatement(mt *mtest.T, evt *event.CommandStartedEvent) bson.Raw {
	mt.Helper()
	vals, err := evt.Command.Lookup("updates").Array().Values()
	require.NoError(mt, err)
	require.NotEmpty(mt, vals)
	return vals[0].Document()
}

func TestAddCommentAbortsWhenPostVanishes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert rolls back", func(mt *mtest.T) {
		s := newMockStore(mt)
		postID := primitive.NewObjectID()
		author := primitive.NewObjectID()

		mt.AddMockResponses(
			countResponse("posts", 1),     // post exists at resolution time
			mtest.CreateSuccessResponse(), // comment insert inside the txn
			updateResponse(0, 0),          // $push matches nothing, post gone
			mtest.CreateSuccessResponse(), // abortTransaction
		)

		comment, err := s.AddComment(context.Background(), postID.Hex(), "a perfectly fine comment", author, false)
		assert.True(mt, errors.Is(err, ErrNotFound))
		assert.Nil(mt, comment)

		// The insert and the failed $push share one transaction; the driver
		// must have aborted it so the comment never becomes visible.
		require.Equal(mt, "aggregate", mt.GetStartedEvent().CommandName)
		insert := mt.GetStartedEvent()
		require.Equal(mt, "insert", insert.CommandName)
		assert.Equal(mt, "comments", insert.Command.Lookup("insert").StringValue())
		require.Equal(mt, "update", mt.GetStartedEvent().CommandName)
		require.Equal(mt, "abortTransaction", mt.GetStartedEvent().CommandName)
	})
}

func TestToggleLikeLegs(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	postDoc := func(postID primitive.ObjectID, likes bson.A) bson.D {
		return bson.D{
			{Key: "_id", Value: postID},
			{Key: "title", Value: "Concurrency in practice"},
			{Key: "slug", Value: "concurrency-in-practice"},
			{Key: "author", Value: nil},
			{Key: "likes", Value: likes},
		}
	}

	mt.Run("unlike when already a member", func(mt *mtest.T) {
		s := newMockStore(mt)
		postID := primitive.NewObjectID()
		userID := primitive.NewObjectID()

		mt.AddMockResponses(
			countResponse("posts", 1),
			updateResponse(1, 1), // conditional $pull hits
			mtest.CreateCursorResponse(0, mockDB+".posts", mtest.FirstBatch, postDoc(postID, bson.A{})),
		)

		state, err := s.ToggleLike(context.Background(), postID.Hex(), userID)
		require.NoError(mt, err)
		assert.False(mt, state.Liked)
		assert.Equal(mt, postID, state.Post.ID)
		assert.Empty(mt, state.Post.Likes)

		require.Equal(mt, "aggregate", mt.GetStartedEvent().CommandName)
		pull := mt.GetStartedEvent()
		require.Equal(mt, "update", pull.CommandName)
		stmt := updateStatement(mt, pull)
		// The remove leg is conditional on membership, making the whole
		// toggle a single atomic update with no read in between.
		q := stmt.Lookup("q").Document()
		assert.Equal(mt, userID, q.Lookup("likes").ObjectID())
		_, err = stmt.Lookup("u").Document().LookupErr("$pull")
		assert.NoError(mt, err)
	})

	mt.Run("like when absent", func(mt *mtest.T) {
		s := newMockStore(mt)
		postID := primitive.NewObjectID()
		userID := primitive.NewObjectID()

		mt.AddMockResponses(
			countResponse("posts", 1),
			updateResponse(0, 0), // $pull finds no membership
			updateResponse(1, 1), // $addToSet adds the like
			mtest.CreateCursorResponse(0, mockDB+".posts", mtest.FirstBatch, postDoc(postID, bson.A{userID})),
		)

		state, err := s.ToggleLike(context.Background(), postID.Hex(), userID)
		require.NoError(mt, err)
		assert.True(mt, state.Liked)
		assert.Contains(mt, state.Post.Likes, userID)

		require.Equal(mt, "aggregate", mt.GetStartedEvent().CommandName)
		require.Equal(mt, "update", mt.GetStartedEvent().CommandName)
		add := mt.GetStartedEvent()
		require.Equal(mt, "update", add.CommandName)
		stmt := updateStatement(mt, add)
		_, err = stmt.Lookup("u").Document().LookupErr("$addToSet")
		assert.NoError(mt, err)
		// The add leg filters on _id alone; $addToSet itself guarantees the
		// set stays duplicate free.
		_, err = stmt.Lookup("q").Document().LookupErr("likes")
		assert.Error(mt, err)
	})
}

func TestDeleteUserCascade(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("anonymizes content and strips likes", func(mt *mtest.T) {
		s := newMockStore(mt)
		userID := primitive.NewObjectID()

		mt.AddMockResponses(
			countResponse("users", 1),
			updateResponse(2, 2),          // anonymize posts
			updateResponse(3, 3),          // anonymize comments
			updateResponse(1, 1),          // strip likes
			mtest.CreateSuccessResponse(), // delete the account
		)

		require.NoError(mt, s.DeleteUser(context.Background(), userID))

		require.Equal(mt, "aggregate", mt.GetStartedEvent().CommandName)

		assertAnonymize := func(evt *event.CommandStartedEvent, coll string) {
			mt.Helper()
			require.Equal(mt, "update", evt.CommandName)
			assert.Equal(mt, coll, evt.Command.Lookup("update").StringValue())
			stmt := updateStatement(mt, evt)
			assert.True(mt, stmt.Lookup("multi").Boolean())
			assert.Equal(mt, userID, stmt.Lookup("q").Document().Lookup("author").ObjectID())
			set := stmt.Lookup("u").Document().Lookup("$set").Document()
			assert.True(mt, set.Lookup("anonymous").Boolean())
			assert.Equal(mt, models.AnonymousAuthorName, set.Lookup("anonymousAuthor").StringValue())
		}
		assertAnonymize(mt.GetStartedEvent(), "posts")
		assertAnonymize(mt.GetStartedEvent(), "comments")

		pull := mt.GetStartedEvent()
		require.Equal(mt, "update", pull.CommandName)
		assert.Equal(mt, "posts", pull.Command.Lookup("update").StringValue())
		stmt := updateStatement(mt, pull)
		assert.True(mt, stmt.Lookup("multi").Boolean())
		assert.Equal(mt, userID, stmt.Lookup("q").Document().Lookup("likes").ObjectID())
		_, err := stmt.Lookup("u").Document().LookupErr("$pull")
		assert.NoError(mt, err)

		del := mt.GetStartedEvent()
		require.Equal(mt, "delete", del.CommandName)
		assert.Equal(mt, "users", del.Command.Lookup("delete").StringValue())
	})
}
