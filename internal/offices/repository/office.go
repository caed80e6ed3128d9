package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	officeserrors "deskbook/internal/offices/errors"
	"deskbook/pkg/config"
	mongotx "deskbook/pkg/db/mongo"
	"deskbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OfficeRepository interface {
	Create(ctx context.Context, office *model.Office) error
	Upsert(ctx context.Context, id, name string) (*model.Office, error)
	UpdateName(ctx context.Context, id, name string) (*model.Office, error)
	FindByID(ctx context.Context, id string) (*model.Office, error)
	FindAll(ctx context.Context) ([]*model.Office, error)
	// Delete removes the office and its bookings and reports how many bookings
	// went with it. Must run inside a transaction.
	Delete(ctx context.Context, id string) (deleted bool, bookings int64, err error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoOfficeRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	bookings   *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoOfficeRepository(cfg *config.Config) OfficeRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoOfficeRepository{
		cfg:        cfg,
		collection: db.Collection(mongotx.CollectionOffices),
		bookings:   db.Collection(mongotx.CollectionBookings),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (r *mongoOfficeRepository) Create(ctx context.Context, office *model.Office) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	office.CreatedAt = now()
	office.UpdatedAt = office.CreatedAt
	if _, err := r.collection.InsertOne(ctx, office); err != nil {
		return fmt.Errorf("failed to create office: %w", err)
	}
	return nil
}

func (r *mongoOfficeRepository) Upsert(ctx context.Context, id, name string) (*model.Office, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ts := now()
	update := bson.M{
		"$set":         bson.M{"name": name, "updated_at": ts},
		"$setOnInsert": bson.M{"created_at": ts, mongotx.FieldLockRev: int64(0)},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var office model.Office
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&office); err != nil {
		return nil, fmt.Errorf("failed to upsert office: %w", err)
	}
	return &office, nil
}

func (r *mongoOfficeRepository) UpdateName(ctx context.Context, id, name string) (*model.Office, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"name": name, "updated_at": now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var office model.Office
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&office)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, officeserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update office: %w", err)
	}
	return &office, nil
}

func (r *mongoOfficeRepository) FindByID(ctx context.Context, id string) (*model.Office, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var office model.Office
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&office)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, officeserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find office: %w", err)
	}
	return &office, nil
}

func (r *mongoOfficeRepository) FindAll(ctx context.Context) ([]*model.Office, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find offices: %w", err)
	}
	defer cursor.Close(ctx)

	offices := make([]*model.Office, 0)
	if err = cursor.All(ctx, &offices); err != nil {
		return nil, fmt.Errorf("failed to decode offices: %w", err)
	}
	return offices, nil
}

func (r *mongoOfficeRepository) Delete(ctx context.Context, id string) (bool, int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	removed, err := r.bookings.DeleteMany(ctx, bson.M{"office_id": id})
	if err != nil {
		return false, 0, fmt.Errorf("failed to delete office bookings: %w", err)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, 0, fmt.Errorf("failed to delete office: %w", err)
	}

	return result.DeletedCount > 0, removed.DeletedCount, nil
}

func (r *mongoOfficeRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
