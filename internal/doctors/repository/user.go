package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	doctorserrors "medibuddy/internal/doctors/errors"
	"medibuddy/pkg/config"
	mongotx "medibuddy/pkg/db/mongo"
	"medibuddy/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Users"
)

type mongoUserRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindDoctor(ctx context.Context, id string) (*model.User, error)

	Search(ctx context.Context, filter model.DoctorFilter, limit int, offset int64) ([]*model.User, error)
	Count(ctx context.Context, filter model.DoctorFilter) (int64, error)

	ReplaceAvailability(ctx context.Context, id string, windows []model.AvailabilityWindow) error
	SetAvailabilityForAll(ctx context.Context, windows []model.AvailabilityWindow) (int64, error)
	SetOnline(ctx context.Context, id string, online bool) error
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout leaves a SessionContext untouched so transaction semantics hold.
func (r *mongoUserRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	if remaining := time.Until(deadline); remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoUserRepository) Create(ctx context.Context, u *model.User) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	u.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, u)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", doctorserrors.ErrDuplicateEmail, u.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid.Hex()
	}

	return nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", doctorserrors.ErrInvalidID, id)
	}

	var u model.User
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", doctorserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

func (r *mongoUserRepository) FindDoctor(ctx context.Context, id string) (*model.User, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsDoctor() {
		return nil, fmt.Errorf("%w: %s", doctorserrors.ErrNotDoctor, id)
	}
	return u, nil
}

func doctorQuery(filter model.DoctorFilter) bson.M {
	query := bson.M{"role": model.RoleDoctor}

	if filter.Name != "" {
		query["name"] = containsIgnoreCase(filter.Name)
	}
	if filter.Specialization != "" {
		query["doctor.specialization"] = containsIgnoreCase(filter.Specialization)
	}
	if filter.Query != "" {
		pattern := containsIgnoreCase(filter.Query)
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"doctor.specialization": pattern},
			bson.M{"doctor.clinic_name": pattern},
		}
	}
	return query
}

// containsIgnoreCase matches s literally; user input never reaches the regex engine as syntax.
func containsIgnoreCase(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func (r *mongoUserRepository) Search(ctx context.Context, filter model.DoctorFilter, limit int, offset int64) ([]*model.User, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, doctorQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer cursor.Close(ctx)

	doctors := []*model.User{}
	if err = cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("failed to decode doctors: %w", err)
	}

	return doctors, nil
}

func (r *mongoUserRepository) Count(ctx context.Context, filter model.DoctorFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, doctorQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return count, nil
}

func (r *mongoUserRepository) ReplaceAvailability(ctx context.Context, id string, windows []model.AvailabilityWindow) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", doctorserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "role": model.RoleDoctor}
	update := bson.M{"$set": bson.M{"doctor.availability": windows}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to replace availability: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", doctorserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoUserRepository) SetAvailabilityForAll(ctx context.Context, windows []model.AvailabilityWindow) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"role": model.RoleDoctor, "doctor": bson.M{"$exists": true}}
	update := bson.M{"$set": bson.M{"doctor.availability": windows}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to set sample availability: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoUserRepository) SetOnline(ctx context.Context, id string, online bool) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", doctorserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "role": model.RoleDoctor}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"doctor.online": online}})
	if err != nil {
		return fmt.Errorf("failed to update online status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", doctorserrors.ErrNotFound, id)
	}
	return nil
}
