package repositories

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/microtask/microtask_backend/models"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection(UsersCollection),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, user)
	return translate(err)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.Name != "" {
		query["name"] = bson.M{"$regex": regexp.QuoteMeta(filter.Name), "$options": "i"}
	}

	cursor, err := r.collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, email, role string) (bool, error) {
	return r.set(ctx, email, bson.M{"role": role})
}

func (r *UserRepository) UpdateProfile(ctx context.Context, email string, req models.UpdateProfileRequest) (bool, error) {
	fields := bson.M{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Photo != "" {
		fields["photo"] = req.Photo
	}
	if req.FCMToken != "" {
		fields["fcmToken"] = req.FCMToken
	}
	return r.set(ctx, email, fields)
}

func (r *UserRepository) SetCoins(ctx context.Context, email string, value int64) (bool, error) {
	return r.set(ctx, email, bson.M{"coins": value})
}

// numericCoins reads the stored balance the same way models.Coins decodes
// it: numbers truncate to a long, numeric strings are parsed, and anything
// else (missing, null, junk, bool) counts as 0.
var numericCoins = bson.M{"$switch": bson.M{
	"branches": bson.A{
		bson.M{
			"case": bson.M{"$isNumber": "$coins"},
			"then": bson.M{"$convert": bson.M{"input": "$coins", "to": "long", "onError": 0, "onNull": 0}},
		},
		bson.M{
			"case": bson.M{"$eq": bson.A{bson.M{"$type": "$coins"}, "string"}},
			"then": bson.M{"$convert": bson.M{
				"input":   bson.M{"$convert": bson.M{"input": "$coins", "to": "double", "onError": 0}},
				"to":      "long",
				"onError": 0,
			}},
		},
	},
	"default": 0,
}}

// AddCoins uses an update pipeline so that a legacy balance is normalised
// rather than failing the $inc.
func (r *UserRepository) AddCoins(ctx context.Context, email string, delta int64) (bool, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"coins":     bson.M{"$add": bson.A{numericCoins, delta}},
			"updatedAt": time.Now(),
		}}},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// DebitCoins matches only while the balance, read as numericCoins, covers
// amount, so a string balance the service layer sees as sufficient is
// debitable here too.
func (r *UserRepository) DebitCoins(ctx context.Context, email string, amount int64) (bool, error) {
	filter := bson.M{
		"email": email,
		"$expr": bson.M{"$gte": bson.A{numericCoins, amount}},
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"coins":     bson.M{"$subtract": bson.A{numericCoins, amount}},
			"updatedAt": time.Now(),
		}}},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

func (r *UserRepository) set(ctx context.Context, email string, fields bson.M) (bool, error) {
	fields["updatedAt"] = time.Now()
	result, err := r.collection.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": fields})
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}
