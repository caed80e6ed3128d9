package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "deskbook/internal/bookings/errors"
	"deskbook/pkg/config"
	mongotx "deskbook/pkg/db/mongo"
	"deskbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookingQuery selects bookings for listing. A nil UserIDs means any owner;
// an empty non-nil slice matches nothing.
type BookingQuery struct {
	UserIDs  []string
	Date     string
	OfficeID string
	After    *model.BookingCursor
	Limit    int
}

type BookingRepository interface {
	Insert(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindOwned(ctx context.Context, id, userID string) (*model.Booking, error)
	UpdateOwned(ctx context.Context, id, userID, officeID, date string) (*model.Booking, error)
	DeleteOwned(ctx context.Context, id, userID string) (*model.Booking, error)
	Find(ctx context.Context, query BookingQuery) ([]*model.Booking, error)
	// ClaimOffice and ClaimUser touch the referenced document so that a
	// concurrent delete of it conflicts with the running transaction.
	ClaimOffice(ctx context.Context, officeID string) error
	ClaimUser(ctx context.Context, userID string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	offices    *mongo.Collection
	users      *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(mongotx.CollectionBookings),
		offices:    db.Collection(mongotx.CollectionOffices),
		users:      db.Collection(mongotx.CollectionUsers),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func translateWriteError(err error) error {
	switch {
	case mongotx.IsDuplicateKeyOn(err, mongotx.IndexUserDate):
		return fmt.Errorf("%w: %v", bookingserrors.ErrDuplicateDate, err)
	case mongotx.IsDuplicateKeyOn(err, "_id_"):
		return fmt.Errorf("%w: %v", bookingserrors.ErrDuplicateID, err)
	default:
		return err
	}
}

func (r *mongoBookingRepository) Insert(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	booking.UpdatedAt = booking.CreatedAt
	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		if err = translateWriteError(err); errors.Is(err, bookingserrors.ErrDuplicateDate) || errors.Is(err, bookingserrors.ErrDuplicateID) {
			return err
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) findOne(ctx context.Context, filter bson.M) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	if err := r.collection.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoBookingRepository) FindOwned(ctx context.Context, id, userID string) (*model.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": id, "user_id": userID})
}

func (r *mongoBookingRepository) UpdateOwned(ctx context.Context, id, userID, officeID, date string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"office_id":  officeID,
			"date":       date,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		if err = translateWriteError(err); errors.Is(err, bookingserrors.ErrDuplicateDate) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) DeleteOwned(ctx context.Context, id, userID string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) Find(ctx context.Context, query BookingQuery) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	bookings := make([]*model.Booking, 0)
	if query.UserIDs != nil && len(query.UserIDs) == 0 {
		return bookings, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}

	cursor, err := r.collection.Find(ctx, buildFilter(query), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func buildFilter(query BookingQuery) bson.M {
	filter := bson.M{}
	if query.UserIDs != nil {
		filter["user_id"] = bson.M{"$in": query.UserIDs}
	}
	if query.OfficeID != "" {
		filter["office_id"] = query.OfficeID
	}

	switch {
	case query.After != nil && query.Date != "":
		if query.After.Date != query.Date {
			// A cursor from a different date filter cannot point into this result.
			filter["date"] = query.Date
			filter["_id"] = bson.M{"$in": bson.A{}}
			return filter
		}
		filter["date"] = query.Date
		filter["_id"] = bson.M{"$gt": query.After.ID}
	case query.After != nil:
		filter["$or"] = bson.A{
			bson.M{"date": bson.M{"$gt": query.After.Date}},
			bson.M{"date": query.After.Date, "_id": bson.M{"$gt": query.After.ID}},
		}
	case query.Date != "":
		filter["date"] = query.Date
	}

	return filter
}

func (r *mongoBookingRepository) claim(ctx context.Context, collection *mongo.Collection, id string, notFound error) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{mongotx.FieldLockRev: 1}})
	if err != nil {
		return fmt.Errorf("failed to claim %s: %w", collection.Name(), err)
	}
	if result.MatchedCount == 0 {
		return notFound
	}
	return nil
}

func (r *mongoBookingRepository) ClaimOffice(ctx context.Context, officeID string) error {
	return r.claim(ctx, r.offices, officeID, bookingserrors.ErrOfficeNotFound)
}

func (r *mongoBookingRepository) ClaimUser(ctx context.Context, userID string) error {
	return r.claim(ctx, r.users, userID, bookingserrors.ErrUserNotFound)
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
