package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/microtask/microtask_backend/models"
)

type WithdrawalRepository struct {
	collection *mongo.Collection
}

func NewWithdrawalRepository(db *mongo.Database) *WithdrawalRepository {
	return &WithdrawalRepository{collection: db.Collection(WithdrawalsCollection)}
}

func (r *WithdrawalRepository) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, req)
	return translate(err)
}

func (r *WithdrawalRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *WithdrawalRepository) List(ctx context.Context, filter models.WithdrawalFilter) ([]models.WithdrawalRequest, error) {
	query := bson.M{}
	if filter.WorkerEmail != "" {
		query["worker_email"] = filter.WorkerEmail
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "withdraw_date", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reqs := []models.WithdrawalRequest{}
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *WithdrawalRepository) Approve(ctx context.Context, id primitive.ObjectID, adminName string) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.WithdrawalPending},
		bson.M{"$set": bson.M{
			"status":       models.WithdrawalApproved,
			"approved_by":  adminName,
			"processed_at": time.Now(),
		}},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}
