package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/microtask/microtask_backend/models"
)

func updated(matched, modified int) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: modified},
	)
}

// lastUpdate returns the filter and update of the single update statement sent
func lastUpdate(mt *mtest.T) (bson.Raw, bson.RawValue) {
	mt.Helper()
	evt := mt.GetStartedEvent()
	require.NotNil(mt, evt)
	require.Equal(mt, "update", evt.CommandName)
	return evt.Command.Lookup("updates", "0", "q").Document(), evt.Command.Lookup("updates", "0", "u")
}

func TestMongoStores_GuardedTransitions(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	id := primitive.NewObjectID()

	mt.Run("submission transition filters on current status", func(mt *mtest.T) {
		repo := NewSubmissionRepository(mt.DB)
		mt.AddMockResponses(updated(1, 1))

		ok, err := repo.TransitionStatus(ctx, id, models.SubmissionPending, models.SubmissionApproved)
		require.NoError(mt, err)
		assert.True(mt, ok)

		filter, update := lastUpdate(mt)
		assert.Equal(mt, id, filter.Lookup("_id").ObjectID())
		assert.Equal(mt, models.SubmissionPending, filter.Lookup("status").StringValue())
		assert.Equal(mt, models.SubmissionApproved, update.Document().Lookup("$set", "status").StringValue())
	})

	mt.Run("submission transition lost race", func(mt *mtest.T) {
		repo := NewSubmissionRepository(mt.DB)
		mt.AddMockResponses(updated(0, 0))

		ok, err := repo.TransitionStatus(ctx, id, models.SubmissionPending, models.SubmissionRejected)
		require.NoError(mt, err)
		assert.False(mt, ok)
	})

	mt.Run("withdrawal approve only from pending", func(mt *mtest.T) {
		repo := NewWithdrawalRepository(mt.DB)
		mt.AddMockResponses(updated(1, 1), updated(0, 0))

		ok, err := repo.Approve(ctx, id, "Ada")
		require.NoError(mt, err)
		assert.True(mt, ok)

		filter, update := lastUpdate(mt)
		assert.Equal(mt, models.WithdrawalPending, filter.Lookup("status").StringValue())
		set := update.Document().Lookup("$set").Document()
		assert.Equal(mt, models.WithdrawalApproved, set.Lookup("status").StringValue())
		assert.Equal(mt, "Ada", set.Lookup("approved_by").StringValue())

		ok, err = repo.Approve(ctx, id, "Ada")
		require.NoError(mt, err)
		assert.False(mt, ok)
	})

	mt.Run("claim slot only while positive", func(mt *mtest.T) {
		repo := NewTaskRepository(mt.DB)
		mt.AddMockResponses(updated(0, 0))

		ok, err := repo.ClaimSlot(ctx, id)
		require.NoError(mt, err)
		assert.False(mt, ok)

		filter, update := lastUpdate(mt)
		assert.EqualValues(mt, 0, filter.Lookup("required_workers", "$gt").AsInt64())
		assert.EqualValues(mt, -1, update.Document().Lookup("$inc", "required_workers").AsInt64())
	})
}

func TestMongoStores_CoinUpdates(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("debit compares the normalised balance", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(updated(1, 1))

		ok, err := repo.DebitCoins(ctx, "w@x.io", 20)
		require.NoError(mt, err)
		assert.True(mt, ok)

		filter, update := lastUpdate(mt)
		assert.Equal(mt, "w@x.io", filter.Lookup("email").StringValue())
		_, plainCompare := filter.Lookup("coins").DocumentOK()
		assert.False(mt, plainCompare, "debit must not compare the raw field")

		gte := filter.Lookup("$expr", "$gte").Array()
		assert.NotEmpty(mt, gte.Index(0).Value().Document().Lookup("$switch").String())
		assert.EqualValues(mt, 20, gte.Index(1).Value().AsInt64())

		stage := update.Array().Index(0).Value().Document()
		sub := stage.Lookup("$set", "coins", "$subtract").Array()
		assert.EqualValues(mt, 20, sub.Index(1).Value().AsInt64())
	})

	mt.Run("debit refused when balance short", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(updated(0, 0))

		ok, err := repo.DebitCoins(ctx, "w@x.io", 20)
		require.NoError(mt, err)
		assert.False(mt, ok)
	})

	mt.Run("credit parses string balances", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(updated(1, 1))

		ok, err := repo.AddCoins(ctx, "w@x.io", 30)
		require.NoError(mt, err)
		assert.True(mt, ok)

		_, update := lastUpdate(mt)
		add := update.Array().Index(0).Value().Document().Lookup("$set", "coins", "$add").Array()
		branches := add.Index(0).Value().Document().Lookup("$switch", "branches").Array()
		stringBranch := branches.Index(1).Value().Document()
		assert.Equal(mt, "string", stringBranch.Lookup("case", "$eq").Array().Index(1).Value().StringValue())
		assert.Equal(mt, "long", stringBranch.Lookup("then", "$convert", "to").StringValue())
		assert.EqualValues(mt, 30, add.Index(1).Value().AsInt64())
	})

	mt.Run("credit unknown user", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(updated(0, 0))

		ok, err := repo.AddCoins(ctx, "ghost@x.io", 30)
		require.NoError(mt, err)
		assert.False(mt, ok)
	})
}

func TestMongoStores_TranslateErrors(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("missing document", func(mt *mtest.T) {
		repo := NewSubmissionRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.submissions", mtest.FirstBatch))

		_, err := repo.FindByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("replayed transaction", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key"}))

		err := repo.Create(ctx, &models.Payment{Email: "b@x.io", TransactionID: "tx-1"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("intent lookup", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.payment_intents", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "transactionId", Value: "tx-1"},
			{Key: "email", Value: "b@x.io"},
			{Key: "coins", Value: int64(10)},
			{Key: "amountMinor", Value: int64(100)},
		}))

		intent, err := repo.FindIntent(ctx, "tx-1")
		require.NoError(mt, err)
		assert.Equal(mt, int64(10), intent.Coins)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, PaymentIntentsCollection, evt.Command.Lookup("find").StringValue())
		assert.Equal(mt, "tx-1", evt.Command.Lookup("filter", "transactionId").StringValue())
	})
}
