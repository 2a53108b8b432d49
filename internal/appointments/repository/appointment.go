package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmentserrors "medibuddy/internal/appointments/errors"
	"medibuddy/pkg/config"
	mongotx "medibuddy/pkg/db/mongo"
	"medibuddy/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Appointments"

	ByDoctor  = "doctor_id"
	ByPatient = "patient_id"
)

type mongoAppointmentRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	FindActive(ctx context.Context, doctorID string, at time.Time) (*model.Appointment, error)
	// FindBookedInRange returns scheduled entries with from <= date_time < to, ascending.
	FindBookedInRange(ctx context.Context, doctorID string, from, to time.Time) ([]model.BookedSlot, error)

	FindByParticipant(ctx context.Context, field, userID string, limit int, offset int64) ([]*model.Appointment, error)
	CountByParticipant(ctx context.Context, field, userID string) (int64, error)
	FindUpcomingByDoctor(ctx context.Context, doctorID string, from time.Time, limit int, offset int64) ([]*model.Appointment, error)
	CountUpcomingByDoctor(ctx context.Context, doctorID string, from time.Time) (int64, error)
	CountByStatusSince(ctx context.Context, doctorID string, since time.Time) (model.StatusCounts, error)

	UpdateStatus(ctx context.Context, id string, expected, next model.AppointmentStatus) (*model.Appointment, error)
	Reschedule(ctx context.Context, id string, from, to time.Time) (*model.Appointment, error)
	UpdateNotes(ctx context.Context, id string, update *model.NotesUpdate) (*model.Appointment, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoAppointmentRepository(cfg *config.Config) AppointmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo, cfg.MongoTransactions),
	}
}

// withTimeout leaves a SessionContext untouched so transaction semantics hold.
func (r *mongoAppointmentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

// storedTime matches the precision BSON dates keep, so equality filters and
// the unique index see the same value the caller passed in.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}
	return oid, nil
}

func (r *mongoAppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := storedTime(time.Now())
	a.DateTime = storedTime(a.DateTime)
	a.CreatedAt = now
	a.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, a)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: doctor %s at %s", appointmentserrors.ErrSlotTaken, a.DoctorID, a.DateTime.Format(time.RFC3339))
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var a model.Appointment
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}
	return &a, nil
}

func (r *mongoAppointmentRepository) FindActive(ctx context.Context, doctorID string, at time.Time) (*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"doctor_id": doctorID,
		"date_time": storedTime(at),
		"status":    model.Scheduled,
	}

	var a model.Appointment
	if err := r.collection.FindOne(ctx, filter).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	return &a, nil
}

func (r *mongoAppointmentRepository) FindBookedInRange(ctx context.Context, doctorID string, from, to time.Time) ([]model.BookedSlot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"doctor_id": doctorID,
		"status":    model.Scheduled,
		"date_time": bson.M{"$gte": storedTime(from), "$lt": storedTime(to)},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date_time", Value: 1}}).
		SetProjection(bson.M{"date_time": 1, "duration": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query booked slots: %w", err)
	}
	defer cursor.Close(ctx)

	booked := []model.BookedSlot{}
	if err := cursor.All(ctx, &booked); err != nil {
		return nil, fmt.Errorf("failed to decode booked slots: %w", err)
	}
	return booked, nil
}

func (r *mongoAppointmentRepository) find(ctx context.Context, filter bson.M, sort int, limit int, offset int64) ([]*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "date_time", Value: sort}, {Key: "_id", Value: sort}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer cursor.Close(ctx)

	appointments := []*model.Appointment{}
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appointments, nil
}

func (r *mongoAppointmentRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return n, nil
}

func (r *mongoAppointmentRepository) FindByParticipant(ctx context.Context, field, userID string, limit int, offset int64) ([]*model.Appointment, error) {
	return r.find(ctx, bson.M{field: userID}, -1, limit, offset)
}

func (r *mongoAppointmentRepository) CountByParticipant(ctx context.Context, field, userID string) (int64, error) {
	return r.count(ctx, bson.M{field: userID})
}

func upcomingFilter(doctorID string, from time.Time) bson.M {
	return bson.M{
		"doctor_id": doctorID,
		"status":    model.Scheduled,
		"date_time": bson.M{"$gte": storedTime(from)},
	}
}

func (r *mongoAppointmentRepository) FindUpcomingByDoctor(ctx context.Context, doctorID string, from time.Time, limit int, offset int64) ([]*model.Appointment, error) {
	return r.find(ctx, upcomingFilter(doctorID, from), 1, limit, offset)
}

func (r *mongoAppointmentRepository) CountUpcomingByDoctor(ctx context.Context, doctorID string, from time.Time) (int64, error) {
	return r.count(ctx, upcomingFilter(doctorID, from))
}

func (r *mongoAppointmentRepository) CountByStatusSince(ctx context.Context, doctorID string, since time.Time) (model.StatusCounts, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"doctor_id": doctorID,
			"date_time": bson.M{"$gte": storedTime(since)},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate appointment stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status model.AppointmentStatus `bson:"_id"`
		Count  int64                   `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode appointment stats: %w", err)
	}

	counts := model.StatusCounts{}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// UpdateStatus moves id from expected to next in one conditional write. A
// concurrent change of status makes the filter miss and yields ErrStaleState.
func (r *mongoAppointmentRepository) UpdateStatus(ctx context.Context, id string, expected, next model.AppointmentStatus) (*model.Appointment, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid, "status": expected}
	update := bson.M{"$set": bson.M{"status": next, "updated_at": storedTime(time.Now())}}
	return r.findAndUpdate(ctx, id, filter, update)
}

func (r *mongoAppointmentRepository) Reschedule(ctx context.Context, id string, from, to time.Time) (*model.Appointment, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid, "status": model.Scheduled, "date_time": storedTime(from)}
	update := bson.M{"$set": bson.M{"date_time": storedTime(to), "updated_at": storedTime(time.Now())}}
	return r.findAndUpdate(ctx, id, filter, update)
}

func (r *mongoAppointmentRepository) UpdateNotes(ctx context.Context, id string, notes *model.NotesUpdate) (*model.Appointment, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": storedTime(time.Now())}
	if notes.Diagnosis != nil {
		set["diagnosis"] = *notes.Diagnosis
	}
	if notes.Prescription != nil {
		set["prescription"] = *notes.Prescription
	}
	if notes.Notes != nil {
		set["notes"] = *notes.Notes
	}
	if notes.FollowUp != nil {
		set["follow_up"] = notes.FollowUp
	}
	return r.findAndUpdate(ctx, id, bson.M{"_id": oid}, bson.M{"$set": set})
}

func (r *mongoAppointmentRepository) findAndUpdate(ctx context.Context, id string, filter, update bson.M) (*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var a model.Appointment
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&a)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrSlotTaken, id)
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrStaleState, id)
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return &a, nil
}

func (r *mongoAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
