package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/microtask/microtask_backend/models"
)

type TaskRepository struct {
	collection *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{collection: db.Collection(TasksCollection)}
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, task)
	return translate(err)
}

func (r *TaskRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task); err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := bson.M{}
	if filter.BuyerEmail != "" {
		query["buyer_email"] = filter.BuyerEmail
	}
	if filter.AvailableOnly {
		query["required_workers"] = bson.M{"$gt": 0}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, id primitive.ObjectID, req models.UpdateTaskRequest) (bool, error) {
	fields := bson.M{}
	if req.TaskTitle != "" {
		fields["task_title"] = req.TaskTitle
	}
	if req.TaskDetail != "" {
		fields["task_detail"] = req.TaskDetail
	}
	if req.SubmissionInfo != "" {
		fields["submission_info"] = req.SubmissionInfo
	}
	if len(fields) == 0 {
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		return n > 0, err
	}
	return r.update(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
}

func (r *TaskRepository) SetRequiredWorkers(ctx context.Context, id primitive.ObjectID, count int64) (bool, error) {
	return r.update(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"required_workers": count}})
}

func (r *TaskRepository) ClaimSlot(ctx context.Context, id primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": id, "required_workers": bson.M{"$gt": 0}}
	return r.update(ctx, filter, bson.M{"$inc": bson.M{"required_workers": -1}})
}

func (r *TaskRepository) ReleaseSlot(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return r.update(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"required_workers": 1}})
}

func (r *TaskRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (r *TaskRepository) update(ctx context.Context, filter, update bson.M) (bool, error) {
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}
