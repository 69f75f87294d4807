// Package repository implements MongoDB persistence for the portal.
package repository

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vecindario/models"
)

// PostFilter is the resolved filter for a post listing. All fields are
// optional; the zero value matches every active post.
type PostFilter struct {
	Category string
	Search   string
	Author   *primitive.ObjectID
	From     *time.Time
	To       *time.Time
}

type PostRepository struct {
	posts *mongo.Collection
}

func NewPostRepository(posts *mongo.Collection) *PostRepository {
	return &PostRepository{posts: posts}
}

// authorLookup expands the author reference into authorInfo, projected down
// to the three public fields.
var authorLookup = mongo.Pipeline{
	{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: "users"},
		{Key: "localField", Value: "author"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "authorInfo"},
	}}},
	{{Key: "$unwind", Value: bson.D{
		{Key: "path", Value: "$authorInfo"},
		{Key: "preserveNullAndEmptyArrays", Value: true},
	}}},
	{{Key: "$set", Value: bson.D{
		{Key: "authorInfo", Value: bson.D{
			{Key: "name", Value: "$authorInfo.name"},
			{Key: "email", Value: "$authorInfo.email"},
			{Key: "perfil_photo", Value: "$authorInfo.perfil_photo"},
		}},
	}}},
}

func buildFilter(f PostFilter) bson.M {
	filter := bson.M{"isActive": true}

	if f.Category != "" {
		filter["category"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Category), Options: "i"}
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"description": rx},
		}
	}
	if f.Author != nil {
		filter["author"] = *f.Author
	}

	created := bson.M{}
	if f.From != nil {
		created["$gte"] = *f.From
	}
	if f.To != nil {
		created["$lte"] = *f.To
	}
	if len(created) > 0 {
		filter["createdAt"] = created
	}

	return filter
}

// Count returns how many active posts match the filter.
func (r *PostRepository) Count(ctx context.Context, f PostFilter) (int64, error) {
	return r.posts.CountDocuments(ctx, buildFilter(f))
}

// FindPage returns one page of matching posts with authors expanded, newest
// first and tie-broken by _id so pagination stays stable across inserts.
func (r *PostRepository) FindPage(ctx context.Context, f PostFilter, skip, limit int) ([]models.Post, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildFilter(f)}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: skip}},
		{{Key: "$limit", Value: limit}},
	}
	pipeline = append(pipeline, authorLookup...)

	cursor, err := r.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// FindActiveByID returns one active post with its author expanded.
func (r *PostRepository) FindActiveByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: id}, {Key: "isActive", Value: true}}}},
	}
	pipeline = append(pipeline, authorLookup...)

	cursor, err := r.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &posts[0], nil
}

// FindByID returns a post regardless of state, without author expansion.
// Used by the mutation paths for the ownership check.
func (r *PostRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	if err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

// FindActiveByCategory returns all active posts of a category, unpaginated.
func (r *PostRepository) FindActiveByCategory(ctx context.Context, category string) ([]models.Post, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildFilter(PostFilter{Category: category})}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	pipeline = append(pipeline, authorLookup...)

	cursor, err := r.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Insert stores a new post.
func (r *PostRepository) Insert(ctx context.Context, post *models.Post) error {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	_, err := r.posts.InsertOne(ctx, post)
	return err
}

// UpdateFields applies the provided text fields and returns the updated
// post with its author expanded.
func (r *PostRepository) UpdateFields(ctx context.Context, id primitive.ObjectID, upd models.PostUpdate) (*models.Post, error) {
	set := bson.M{"updatedAt": time.Now()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}

	res, err := r.posts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return r.FindActiveByID(ctx, id)
}

// SoftDelete marks the post inactive. The record itself is kept.
func (r *PostRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.posts.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
