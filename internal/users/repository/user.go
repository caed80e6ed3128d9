package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	userserrors "deskbook/internal/users/errors"
	"deskbook/pkg/config"
	mongotx "deskbook/pkg/db/mongo"
	"deskbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindAll(ctx context.Context) ([]*model.User, error)
	FindIDsBySquad(ctx context.Context, squad string) ([]string, error)
	// Delete removes the user with their bookings and sessions and reports how
	// many bookings went with them. Must run inside a transaction.
	Delete(ctx context.Context, id string) (deleted bool, bookings int64, err error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	// FindSession ignores sessions past their expiry even if the TTL monitor
	// has not removed them yet.
	FindSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Store serves both users and their sessions.
type Store interface {
	UserRepository
	SessionRepository
}

type mongoUserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	sessions   *mongo.Collection
	bookings   *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoUserRepository(cfg *config.Config) Store {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		collection: db.Collection(mongotx.CollectionUsers),
		sessions:   db.Collection(mongotx.CollectionSessions),
		bookings:   db.Collection(mongotx.CollectionBookings),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	user.CreatedAt = now()
	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		switch {
		case mongotx.IsDuplicateKeyOn(err, mongotx.IndexUsername):
			return userserrors.ErrUsernameTaken
		case mongotx.IsDuplicateKeyOn(err, mongotx.IndexEmail):
			return userserrors.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var user model.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *mongoUserRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]*model.User, 0)
	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (r *mongoUserRepository) FindIDsBySquad(ctx context.Context, squad string) ([]string, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"squad": squad}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find squad members: %w", err)
	}
	defer cursor.Close(ctx)

	ids := make([]string, 0)
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode squad member: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate squad members: %w", err)
	}
	return ids, nil
}

func (r *mongoUserRepository) Delete(ctx context.Context, id string) (bool, int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	bookings, err := r.bookings.DeleteMany(ctx, bson.M{"user_id": id})
	if err != nil {
		return false, 0, fmt.Errorf("failed to delete user bookings: %w", err)
	}
	if _, err := r.sessions.DeleteMany(ctx, bson.M{"user_id": id}); err != nil {
		return false, 0, fmt.Errorf("failed to delete user sessions: %w", err)
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, 0, fmt.Errorf("failed to delete user: %w", err)
	}
	return result.DeletedCount > 0, bookings.DeletedCount, nil
}

func (r *mongoUserRepository) CreateSession(ctx context.Context, session *model.Session) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	session.CreatedAt = now()
	if _, err := r.sessions.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) FindSession(ctx context.Context, id string) (*model.Session, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "expires_at": bson.M{"$gt": now()}}
	var session model.Session
	if err := r.sessions.FindOne(ctx, filter).Decode(&session); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &session, nil
}

func (r *mongoUserRepository) DeleteSession(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.sessions.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
