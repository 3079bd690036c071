package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/microtask/microtask_backend/models"
)

type SubmissionRepository struct {
	collection *mongo.Collection
}

func NewSubmissionRepository(db *mongo.Database) *SubmissionRepository {
	return &SubmissionRepository{collection: db.Collection(SubmissionsCollection)}
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, sub)
	return translate(err)
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Submission, error) {
	var sub models.Submission
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sub); err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int64, error) {
	query := bson.M{}
	if filter.WorkerEmail != "" {
		query["worker_email"] = filter.WorkerEmail
	}
	if filter.BuyerEmail != "" {
		query["buyer_email"] = filter.BuyerEmail
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "current_date", Value: -1}})
	if filter.Skip > 0 {
		opts.SetSkip(filter.Skip)
	}
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	subs := []models.Submission{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (r *SubmissionRepository) HasLive(ctx context.Context, taskID primitive.ObjectID, workerEmail string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{
		"task_id":      taskID,
		"worker_email": workerEmail,
		"status":       bson.M{"$in": bson.A{models.SubmissionPending, models.SubmissionApproved}},
	})
	return n > 0, err
}

func (r *SubmissionRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}
