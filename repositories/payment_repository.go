package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/microtask/microtask_backend/models"
)

type PaymentRepository struct {
	collection *mongo.Collection
	intents    *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{
		collection: db.Collection(PaymentsCollection),
		intents:    db.Collection(PaymentIntentsCollection),
	}
}

// Create relies on the unique transactionId index for replay protection
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, p)
	return translate(err)
}

func (r *PaymentRepository) ListByEmail(ctx context.Context, email string) ([]models.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"email": email}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) CreateIntent(ctx context.Context, intent *models.PaymentIntentRecord) error {
	if intent.ID.IsZero() {
		intent.ID = primitive.NewObjectID()
	}
	_, err := r.intents.InsertOne(ctx, intent)
	return translate(err)
}

func (r *PaymentRepository) FindIntent(ctx context.Context, transactionID string) (*models.PaymentIntentRecord, error) {
	var intent models.PaymentIntentRecord
	err := r.intents.FindOne(ctx, bson.M{"transactionId": transactionID}).Decode(&intent)
	if err != nil {
		return nil, translate(err)
	}
	return &intent, nil
}
