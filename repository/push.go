package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vecindario/models"
)

type PushRepository struct {
	subs *mongo.Collection
}

func NewPushRepository(subs *mongo.Collection) *PushRepository {
	return &PushRepository{subs: subs}
}

// Upsert keeps one subscription per user, replaced on re-subscribe.
func (r *PushRepository) Upsert(ctx context.Context, sub models.PushSubscription) error {
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	_, err := r.subs.UpdateOne(ctx,
		bson.M{"userId": sub.UserID},
		bson.M{"$set": bson.M{"userId": sub.UserID, "sub": sub.Sub}},
		options.Update().SetUpsert(true),
	)
	return err
}

// All returns every stored subscription.
func (r *PushRepository) All(ctx context.Context) ([]models.PushSubscription, error) {
	cursor, err := r.subs.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := []models.PushSubscription{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// DeleteByEndpoint drops a subscription the push service reported as gone.
func (r *PushRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.subs.DeleteOne(ctx, bson.M{"sub.endpoint": endpoint})
	return err
}
