package store

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blogapi/models"
)

// sanitizer strips dangerous markup from user supplied rich text before it
// is persisted.
var sanitizer = bluemonday.UGCPolicy()

const (
	titleMinLen       = 6
	titleMaxLen       = 255
	descriptionMinLen = 6
	descriptionMaxLen = 10000
)

type PostInput struct {
	Title       string
	Description string
	Photo       []string
	Tags        []string
	IsPublished bool
	Anonymous   bool
}

func validatePostInput(in PostInput) error {
	if n := utf8.RuneCountInString(in.Title); n < titleMinLen || n > titleMaxLen {
		return newValidationError("title", fmt.Sprintf("title must be %d-%d characters", titleMinLen, titleMaxLen))
	}
	if n := utf8.RuneCountInString(in.Description); n < descriptionMinLen || n > descriptionMaxLen {
		return newValidationError("description", fmt.Sprintf("description must be %d-%d characters", descriptionMinLen, descriptionMaxLen))
	}
	return nil
}

// slugFromTitle derives the URL slug. A title made entirely of
// untransliterable characters would slugify to the empty string and leave
// the post unreachable, so it is rejected up front.
func slugFromTitle(title string) (string, error) {
	s := Slugify(title)
	if s == "" {
		return "", newValidationError("title", "title must contain letters or digits")
	}
	return s, nil
}

// CreatePost stores a new post for author. The slug is derived from the
// title; a duplicate slug is rejected by the unique index and surfaced as
// ErrConflict.
func (s *Store) CreatePost(ctx context.Context, author primitive.ObjectID, in PostInput) (*models.Post, error) {
	if err := validatePostInput(in); err != nil {
		return nil, err
	}
	tags, err := NormalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}
	postSlug, err := slugFromTitle(in.Title)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	post := &models.Post{
		ID:          primitive.NewObjectID(),
		Title:       in.Title,
		Slug:        postSlug,
		Description: sanitizer.Sanitize(in.Description),
		Photo:       in.Photo,
		Author:      &author,
		Tags:        tags,
		Likes:       []primitive.ObjectID{},
		IsPublished: in.IsPublished,
		Anonymous:   in.Anonymous,
		Comments:    []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if post.Photo == nil {
		post.Photo = []string{}
	}
	if post.Anonymous {
		name := models.AnonymousDisplayName
		post.AnonymousAuthor = &name
	}

	if _, err := s.posts.InsertOne(ctx, post); err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("slug %q already taken: %w", post.Slug, ErrConflict)
		}
		return nil, err
	}
	return post, nil
}

// UpdatePost applies an author-only edit. The slug is recomputed from the
// new title so it always matches; a resulting collision is ErrConflict.
func (s *Store) UpdatePost(ctx context.Context, postID, userID primitive.ObjectID, in PostInput) (*models.Post, error) {
	if err := validatePostInput(in); err != nil {
		return nil, err
	}
	tags, err := NormalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}
	postSlug, err := slugFromTitle(in.Title)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"title":       in.Title,
		"slug":        postSlug,
		"description": sanitizer.Sanitize(in.Description),
		"tags":        tags,
		"isPublished": in.IsPublished,
		"anonymous":   in.Anonymous,
		"updatedAt":   time.Now().UTC(),
	}
	if in.Anonymous {
		set["anonymousAuthor"] = models.AnonymousDisplayName
	} else {
		set["anonymousAuthor"] = nil
	}
	if in.Photo != nil {
		set["photo"] = in.Photo
	}

	var updated models.Post
	err = s.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": postID, "author": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		// Distinguish a missing post from somebody else's post.
		n, cerr := s.posts.CountDocuments(ctx, bson.M{"_id": postID})
		if cerr == nil && n > 0 {
			return nil, ErrForbidden
		}
		return nil, ErrNotFound
	}
	if err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("slug already taken: %w", ErrConflict)
		}
		return nil, err
	}
	return &updated, nil
}

// DeletePost removes an author's post together with its comments inside one
// transaction, so no comment can survive pointing at a deleted post.
func (s *Store) DeletePost(ctx context.Context, postID, userID primitive.ObjectID) error {
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.posts.DeleteOne(sc, bson.M{"_id": postID, "author": userID})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			n, cerr := s.posts.CountDocuments(sc, bson.M{"_id": postID})
			if cerr == nil && n > 0 {
				return ErrForbidden
			}
			return ErrNotFound
		}
		_, err = s.comments.DeleteMany(sc, bson.M{"post": postID})
		return err
	})
}

// resolvePostID accepts either a hex object id or a slug and returns the
// post's id.
func (s *Store) resolvePostID(ctx context.Context, slugOrID string) (primitive.ObjectID, error) {
	if id, err := primitive.ObjectIDFromHex(slugOrID); err == nil {
		n, err := s.posts.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return primitive.NilObjectID, err
		}
		if n == 0 {
			return primitive.NilObjectID, ErrNotFound
		}
		return id, nil
	}

	var doc struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := s.posts.FindOne(ctx, bson.M{"slug": slugOrID},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return primitive.NilObjectID, ErrNotFound
	}
	if err != nil {
		return primitive.NilObjectID, err
	}
	return doc.ID, nil
}

func postFilter(slugOrID string) bson.M {
	if id, err := primitive.ObjectIDFromHex(slugOrID); err == nil {
		return bson.M{"_id": id}
	}
	return bson.M{"slug": slugOrID}
}

// GetPost fetches one post by slug or id, atomically bumping its view
// counter, and resolves the author for display.
func (s *Store) GetPost(ctx context.Context, slugOrID string) (*models.PostWithAuthor, error) {
	var post models.Post
	err := s.posts.FindOneAndUpdate(ctx,
		postFilter(slugOrID),
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.joinAuthor(ctx, &post)
}

func (s *Store) joinAuthor(ctx context.Context, post *models.Post) (*models.PostWithAuthor, error) {
	out := &models.PostWithAuthor{Post: *post}
	if post.Author == nil {
		return out, nil
	}
	var author models.UserPublic
	err := s.users.FindOne(ctx, bson.M{"_id": *post.Author},
		options.FindOne().SetProjection(bson.M{"fullname": 1, "avatar": 1})).Decode(&author)
	if err != nil && err != mongo.ErrNoDocuments {
		return nil, err
	}
	if err == nil {
		out.AuthorUser = &author
	}
	return out, nil
}

// ListPosts returns all posts with authors joined, newest first, or most
// viewed first when sortBy is "views".
func (s *Store) ListPosts(ctx context.Context, sortBy string) ([]models.PostWithAuthor, error) {
	sort := bson.D{{Key: "createdAt", Value: -1}}
	if sortBy == "views" {
		sort = bson.D{{Key: "views", Value: -1}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: sort}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "author"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "authorUser"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$authorUser"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}

	cursor, err := s.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.PostWithAuthor{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// LastTags returns the distinct tags of the five most recent posts, capped
// at five.
func (s *Store) LastTags(ctx context.Context) ([]string, error) {
	cursor, err := s.posts.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(5).
			SetProjection(bson.M{"tags": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		Tags []string `bson:"tags"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	tags := []string{}
	for _, d := range docs {
		for _, t := range d.Tags {
			if seen[t] {
				continue
			}
			seen[t] = true
			tags = append(tags, t)
			if len(tags) == 5 {
				return tags, nil
			}
		}
	}
	return tags, nil
}

// LikeState reports the outcome of a toggle.
type LikeState struct {
	Liked bool                   `json:"liked"`
	Post  *models.PostWithAuthor `json:"post"`
}

// ToggleLike flips userID's membership in the post's likes set. Both legs
// are single atomic conditional updates, so concurrent toggles by distinct
// users cannot lose each other's writes; two concurrent toggles by the same
// user resolve as last write wins.
func (s *Store) ToggleLike(ctx context.Context, slugOrID string, userID primitive.ObjectID) (*LikeState, error) {
	postID, err := s.resolvePostID(ctx, slugOrID)
	if err != nil {
		return nil, err
	}

	liked := false
	// Remove-if-present first; $pull only matches when the user is in the set.
	res, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": postID, "likes": userID},
		bson.M{"$pull": bson.M{"likes": userID}})
	if err != nil {
		return nil, err
	}
	if res.ModifiedCount == 0 {
		// Add-if-absent; $addToSet keeps the set free of duplicates.
		res, err = s.posts.UpdateOne(ctx,
			bson.M{"_id": postID},
			bson.M{"$addToSet": bson.M{"likes": userID}})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, ErrNotFound
		}
		liked = true
	}

	var post models.Post
	if err := s.posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	joined, err := s.joinAuthor(ctx, &post)
	if err != nil {
		return nil, err
	}
	return &LikeState{Liked: liked, Post: joined}, nil
}
