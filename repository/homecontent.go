package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vecindario/models"
)

// pointerKey is the _id of the singleton document naming the active version.
const pointerKey = "current"

type pointerDoc struct {
	ID        string             `bson:"_id"`
	ContentID primitive.ObjectID `bson:"contentId"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type HomeContentRepository struct {
	contents *mongo.Collection
	items    *mongo.Collection
	pointer  *mongo.Collection
}

func NewHomeContentRepository(contents, items, pointer *mongo.Collection) *HomeContentRepository {
	return &HomeContentRepository{contents: contents, items: items, pointer: pointer}
}

// ActiveID returns the content ID the pointer currently targets.
func (r *HomeContentRepository) ActiveID(ctx context.Context) (primitive.ObjectID, bool, error) {
	var p pointerDoc
	err := r.pointer.FindOne(ctx, bson.M{"_id": pointerKey}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return primitive.NilObjectID, false, nil
	}
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	return p.ContentID, true, nil
}

// SetActive points the singleton at the given version. One atomic upsert:
// there is never a window with zero or two active versions.
func (r *HomeContentRepository) SetActive(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.pointer.UpdateOne(ctx,
		bson.M{"_id": pointerKey},
		bson.M{"$set": bson.M{"contentId": id, "updatedAt": time.Now()}},
		options.Update().SetUpsert(true),
	)
	return err
}

// FindByID loads one version document, child items not included.
func (r *HomeContentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.HomeContent, error) {
	var content models.HomeContent
	if err := r.contents.FindOne(ctx, bson.M{"_id": id}).Decode(&content); err != nil {
		return nil, err
	}
	return &content, nil
}

// Insert stores a new version document.
func (r *HomeContentRepository) Insert(ctx context.Context, content *models.HomeContent) error {
	if content.ID.IsZero() {
		content.ID = primitive.NewObjectID()
	}
	_, err := r.contents.InsertOne(ctx, content)
	return err
}

// ReplaceSections overwrites every section of an existing version in place.
func (r *HomeContentRepository) ReplaceSections(ctx context.Context, id primitive.ObjectID, content *models.HomeContent) error {
	res, err := r.contents.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"hero":      content.Hero,
			"features":  content.Features,
			"downloads": content.Downloads,
			"info":      content.Info,
			"gallery":   content.Gallery,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetInfoMainImage is a targeted partial write that deliberately skips the
// full document shape: only the one field moves.
func (r *HomeContentRepository) SetInfoMainImage(ctx context.Context, id primitive.ObjectID, url string) error {
	res, err := r.contents.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"info.mainImage": url, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// FindPage returns one page of version documents, newest first.
func (r *HomeContentRepository) FindPage(ctx context.Context, skip, limit int) ([]models.HomeContent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.contents.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	versions := []models.HomeContent{}
	if err := cursor.All(ctx, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// Count returns the number of stored versions.
func (r *HomeContentRepository) Count(ctx context.Context) (int64, error) {
	return r.contents.CountDocuments(ctx, bson.M{})
}

// Delete permanently removes a version document.
func (r *HomeContentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.contents.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ItemsByContent returns all child items of a version.
func (r *HomeContentRepository) ItemsByContent(ctx context.Context, contentID primitive.ObjectID) ([]models.HomeItem, error) {
	cursor, err := r.items.Find(ctx, bson.M{"contentId": contentID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []models.HomeItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpsertItem replaces the item matching (contentId, section, itemId) or
// appends it when absent.
func (r *HomeContentRepository) UpsertItem(ctx context.Context, item models.HomeItem) error {
	_, err := r.items.ReplaceOne(ctx,
		bson.M{"contentId": item.ContentID, "section": item.Section, "itemId": item.ItemID},
		item,
		options.Replace().SetUpsert(true),
	)
	return err
}

// ReplaceSectionItems swaps out every item of one section of a version.
func (r *HomeContentRepository) ReplaceSectionItems(ctx context.Context, contentID primitive.ObjectID, section string, items []models.HomeItem) error {
	if _, err := r.items.DeleteMany(ctx, bson.M{"contentId": contentID, "section": section}); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	docs := make([]interface{}, len(items))
	for i := range items {
		items[i].ContentID = contentID
		items[i].Section = section
		docs[i] = items[i]
	}
	_, err := r.items.InsertMany(ctx, docs)
	return err
}

// DeleteItemsByContent removes every child item of a version.
func (r *HomeContentRepository) DeleteItemsByContent(ctx context.Context, contentID primitive.ObjectID) error {
	_, err := r.items.DeleteMany(ctx, bson.M{"contentId": contentID})
	return err
}
