package repository

import (
	"context"
	"fmt"
	"time"

	"local-electrician/internal/domain/entity"
	"local-electrician/internal/domain/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var terminalStatuses = []entity.Status{
	entity.StatusSuccess,
	entity.StatusCancelled,
	entity.StatusDeclined,
}

// MongoRequestRepository implements the RequestStore interface. It is the
// primary store: its single-document conditional update is the serialization
// point for concurrent accept/decline/complete/cancel attempts.
type MongoRequestRepository struct {
	requests *mongo.Collection
	logs     *mongo.Collection
}

// NewMongoRequestRepository creates a new MongoDB request repository
func NewMongoRequestRepository(db *mongo.Database) repository.RequestStore {
	requests := db.Collection("service_requests")
	logs := db.Collection("status_logs")

	// Create indexes for better performance
	ctx := context.Background()

	customerIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "customerRef", Value: 1},
			{Key: "status", Value: 1},
		},
	}

	electricianIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "electricianRef", Value: 1},
			{Key: "status", Value: 1},
		},
	}

	createdAtIndex := mongo.IndexModel{
		Keys: bson.M{"createdAt": -1},
	}

	requests.Indexes().CreateMany(ctx, []mongo.IndexModel{
		customerIndex,
		electricianIndex,
		createdAtIndex,
	})

	logIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "requestId", Value: 1},
			{Key: "createdAt", Value: 1},
		},
	}
	logs.Indexes().CreateMany(ctx, []mongo.IndexModel{logIndex})

	return &MongoRequestRepository{
		requests: requests,
		logs:     logs,
	}
}

// Insert persists a newly created request
func (r *MongoRequestRepository) Insert(ctx context.Context, req *entity.ServiceRequest) error {
	_, err := r.requests.InsertOne(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

// Upsert writes a full request row, replacing any existing one. Used by the
// ledger backfill path, never by the transition path.
func (r *MongoRequestRepository) Upsert(ctx context.Context, req *entity.ServiceRequest) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.requests.ReplaceOne(ctx, bson.M{"_id": req.RequestID}, req, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert request: %w", err)
	}
	return nil
}

// FindByID finds a request by id, returning (nil, nil) on a clean miss
func (r *MongoRequestRepository) FindByID(ctx context.Context, requestID string) (*entity.ServiceRequest, error) {
	var req entity.ServiceRequest
	err := r.requests.FindOne(ctx, bson.M{"_id": requestID}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// FindActiveByCustomer returns the customer's single non-terminal request
func (r *MongoRequestRepository) FindActiveByCustomer(ctx context.Context, customerRef string) (*entity.ServiceRequest, error) {
	filter := bson.M{
		"customerRef": customerRef,
		"status":      bson.M{"$nin": terminalStatuses},
	}

	var req entity.ServiceRequest
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := r.requests.FindOne(ctx, filter, opts).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// FindByElectrician returns every request assigned to the electrician
func (r *MongoRequestRepository) FindByElectrician(ctx context.Context, electricianID string) ([]*entity.ServiceRequest, error) {
	filter := bson.M{"electricianRef": electricianID}

	cursor, err := r.requests.Find(ctx, filter, &options.FindOptions{
		Sort: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reqs []*entity.ServiceRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// FindOpenBroadcast returns broadcast requests still waiting for a taker
func (r *MongoRequestRepository) FindOpenBroadcast(ctx context.Context) ([]*entity.ServiceRequest, error) {
	filter := bson.M{
		"electricianRef": entity.BroadcastWire,
		"status":         entity.StatusNew,
	}

	cursor, err := r.requests.Find(ctx, filter, &options.FindOptions{
		Sort: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reqs []*entity.ServiceRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// ApplyTransition performs the single-document conditional update. The filter
// carries the expected status and the actor predicate so that losing a race
// matches zero documents instead of overwriting the winner.
func (r *MongoRequestRepository) ApplyTransition(ctx context.Context, upd repository.TransitionUpdate) (bool, error) {
	filter := bson.M{
		"_id":    upd.RequestID,
		"status": upd.ExpectedStatus,
	}

	switch upd.ActorRole {
	case entity.RoleCustomer:
		filter["customerRef"] = upd.ActorCustomerRef
	default:
		filter["$or"] = []bson.M{
			{"electricianRef": upd.ActorElectricianID},
			{"electricianRef": entity.BroadcastWire},
		}
	}

	set := bson.M{
		"status":    upd.NextStatus,
		"updatedAt": upd.Now,
	}
	if upd.AssignElectrician {
		set["electricianRef"] = upd.ActorElectricianID
		if upd.Snapshot != nil {
			set["electricianName"] = upd.Snapshot.Name
			set["electricianPhone"] = upd.Snapshot.Phone
			set["electricianCity"] = upd.Snapshot.City
		}
	}
	if upd.SetCompletedAt {
		set["completedAt"] = upd.Now
	}

	result, err := r.requests.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to apply transition: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

// SetRatingOnce records a rating only while the request is completed and
// unrated
func (r *MongoRequestRepository) SetRatingOnce(ctx context.Context, requestID string, rating int, comment string, now time.Time) (bool, error) {
	filter := bson.M{
		"_id":    requestID,
		"status": entity.StatusSuccess,
		"$or": []bson.M{
			{"rating": bson.M{"$exists": false}},
			{"rating": 0},
		},
	}

	update := bson.M{
		"$set": bson.M{
			"rating":        rating,
			"reviewComment": comment,
			"updatedAt":     now,
		},
	}

	result, err := r.requests.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to set rating: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

// AppendLog appends one status log entry
func (r *MongoRequestRepository) AppendLog(ctx context.Context, e *entity.StatusLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.logs.InsertOne(ctx, e)
	if err != nil {
		return fmt.Errorf("failed to append status log: %w", err)
	}
	return nil
}

// LogsForRequest returns the transition trail oldest first
func (r *MongoRequestRepository) LogsForRequest(ctx context.Context, requestID string) ([]*entity.StatusLogEntry, error) {
	cursor, err := r.logs.Find(ctx, bson.M{"requestId": requestID}, &options.FindOptions{
		Sort: bson.D{{Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*entity.StatusLogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
