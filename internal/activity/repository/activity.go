package repository

import (
	"context"
	"fmt"
	"time"

	mongotx "deskbook/pkg/db/mongo"
	"deskbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type ActivityRepository interface {
	// Record stores the activity and reports false when an activity with the
	// same event id is already present.
	Record(ctx context.Context, activity *model.Activity) (bool, error)
}

type mongoActivityRepository struct {
	collection   *mongo.Collection
	writeTimeout time.Duration
}

func NewMongoActivityRepository(db *mongo.Database, writeTimeout time.Duration) ActivityRepository {
	return &mongoActivityRepository{
		collection:   db.Collection(mongotx.CollectionActivity),
		writeTimeout: writeTimeout,
	}
}

func (r *mongoActivityRepository) Record(ctx context.Context, activity *model.Activity) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, activity); err != nil {
		if mongotx.IsDuplicateKeyOn(err, "") {
			return false, nil
		}
		return false, fmt.Errorf("failed to record activity: %w", err)
	}
	return true, nil
}
