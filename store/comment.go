package store

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blogapi/models"
)

func validateCommentText(text string) error {
	if n := utf8.RuneCountInString(text); n < models.CommentMinLen || n > models.CommentMaxLen {
		return newValidationError("text",
			fmt.Sprintf("text must be %d-%d characters", models.CommentMinLen, models.CommentMaxLen))
	}
	return nil
}

func anonymousName(anonymous bool) *string {
	if !anonymous {
		return nil
	}
	name := models.AnonymousDisplayName
	return &name
}

// AddComment creates a comment on the post named by slug or id and appends
// its id to the post's comments list. Both writes share one transaction:
// either both become visible or neither does.
func (s *Store) AddComment(ctx context.Context, postSlugOrID, text string, author primitive.ObjectID, anonymous bool) (*models.CommentWithRefs, error) {
	text = sanitizer.Sanitize(text)
	if err := validateCommentText(text); err != nil {
		return nil, err
	}

	postID, err := s.resolvePostID(ctx, postSlugOrID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	comment := &models.Comment{
		ID:              primitive.NewObjectID(),
		Text:            text,
		Author:          &author,
		Post:            postID,
		Anonymous:       anonymous,
		AnonymousAuthor: anonymousName(anonymous),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.comments.InsertOne(sc, comment); err != nil {
			return err
		}
		res, err := s.posts.UpdateOne(sc,
			bson.M{"_id": postID},
			bson.M{"$push": bson.M{"comments": comment.ID}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			// Post vanished between resolution and the write; abort so the
			// comment insert rolls back too.
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.joinCommentRefs(ctx, comment)
}

// EditComment updates text and anonymity in place, scoped to the comment's
// author. The parent post's comments list is untouched.
func (s *Store) EditComment(ctx context.Context, commentID, userID primitive.ObjectID, text string, anonymous bool) (*models.CommentWithRefs, error) {
	text = sanitizer.Sanitize(text)
	if err := validateCommentText(text); err != nil {
		return nil, err
	}

	var updated models.Comment
	err := s.comments.FindOneAndUpdate(ctx,
		bson.M{"_id": commentID, "author": userID},
		bson.M{"$set": bson.M{
			"text":            text,
			"anonymous":       anonymous,
			"anonymousAuthor": anonymousName(anonymous),
			"updatedAt":       time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		// Either no such comment or not the caller's; existence is not
		// disclosed.
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.joinCommentRefs(ctx, &updated)
}

// DeleteComment removes an author's comment and pulls its id from the
// parent post's comments list in the same transaction.
func (s *Store) DeleteComment(ctx context.Context, commentID, userID primitive.ObjectID) error {
	var comment models.Comment
	err := s.comments.FindOne(ctx, bson.M{"_id": commentID, "author": userID}).Decode(&comment)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.comments.DeleteOne(sc, bson.M{"_id": commentID, "author": userID})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		_, err = s.posts.UpdateOne(sc,
			bson.M{"_id": comment.Post},
			bson.M{"$pull": bson.M{"comments": commentID}})
		return err
	})
}

// ListComments returns the comments of one post, newest first, with authors
// resolved.
func (s *Store) ListComments(ctx context.Context, postSlugOrID string) ([]models.CommentWithRefs, error) {
	postID, err := s.resolvePostID(ctx, postSlugOrID)
	if err != nil {
		return nil, err
	}
	return s.aggregateComments(ctx, bson.M{"post": postID}, 0, 0)
}

// ListAllComments returns a page of all comments across posts, newest first.
func (s *Store) ListAllComments(ctx context.Context, page, limit int64) ([]models.CommentWithRefs, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return s.aggregateComments(ctx, bson.M{}, (page-1)*limit, limit)
}

// LatestComments returns the most recent comments across all posts.
func (s *Store) LatestComments(ctx context.Context, limit int64) ([]models.CommentWithRefs, error) {
	if limit < 1 {
		limit = 5
	}
	return s.aggregateComments(ctx, bson.M{}, 0, limit)
}

func (s *Store) aggregateComments(ctx context.Context, match bson.M, skip, limit int64) ([]models.CommentWithRefs, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	if skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: skip}})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "author"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "authorUser"},
		}}},
		bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$authorUser"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "posts"},
			{Key: "localField", Value: "post"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "postRef"},
		}}},
		bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$postRef"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	)

	cursor, err := s.comments.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []models.CommentWithRefs{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *Store) joinCommentRefs(ctx context.Context, comment *models.Comment) (*models.CommentWithRefs, error) {
	out := &models.CommentWithRefs{Comment: *comment}

	if comment.Author != nil {
		var author models.UserPublic
		err := s.users.FindOne(ctx, bson.M{"_id": *comment.Author},
			options.FindOne().SetProjection(bson.M{"fullname": 1, "avatar": 1})).Decode(&author)
		if err != nil && err != mongo.ErrNoDocuments {
			return nil, err
		}
		if err == nil {
			out.AuthorUser = &author
		}
	}

	var post models.PostRef
	err := s.posts.FindOne(ctx, bson.M{"_id": comment.Post},
		options.FindOne().SetProjection(bson.M{"title": 1, "slug": 1})).Decode(&post)
	if err != nil && err != mongo.ErrNoDocuments {
		return nil, err
	}
	if err == nil {
		out.PostRef = &post
	}
	return out, nil
}
