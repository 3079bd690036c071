package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microtask/microtask_backend/models"
)

func TestCreateTask_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, buyer, 50)
	ctx := context.Background()

	cases := map[string]models.CreateTaskRequest{
		"missing title": {PayableAmount: 5, RequiredWorkers: 1},
		"zero pay":      {TaskTitle: "t", RequiredWorkers: 1},
		"no slots":      {TaskTitle: "t", PayableAmount: 5},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.tasks.CreateTask(ctx, buyer, req)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}

	_, err := env.tasks.CreateTask(ctx, alice, models.CreateTaskRequest{TaskTitle: "t", PayableAmount: 1, RequiredWorkers: 1})
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestCreateTask_OwnerFromIdentity(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, buyer, 50)

	task := env.seedTask(t, buyer, 3, 5)
	assert.Equal(t, buyer.Email, task.BuyerEmail)
	assert.Equal(t, "buyer", task.BuyerName)
	assert.False(t, task.ID.IsZero())
}

func TestUpdateRequiredWorkers(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, buyer, 50)
	task := env.seedTask(t, buyer, 3, 5)
	ctx := context.Background()

	assert.Equal(t, KindValidation, KindOf(env.tasks.UpdateRequiredWorkers(ctx, buyer, task.ID.Hex(), -1)))
	assert.Equal(t, KindForbidden, KindOf(env.tasks.UpdateRequiredWorkers(ctx, other, task.ID.Hex(), 9)))

	require.NoError(t, env.tasks.UpdateRequiredWorkers(ctx, buyer, task.ID.Hex(), 7))
	assert.Equal(t, int64(7), env.slots(t, task))
	require.NoError(t, env.tasks.UpdateRequiredWorkers(ctx, admin, task.ID.Hex(), 0))
	assert.Equal(t, int64(0), env.slots(t, task))
}

func TestUpdateTask_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, buyer, 50)
	task := env.seedTask(t, buyer, 3, 5)
	ctx := context.Background()

	_, err := env.tasks.UpdateTask(ctx, other, task.ID.Hex(), models.UpdateTaskRequest{TaskTitle: "x"})
	assert.Equal(t, KindForbidden, KindOf(err))

	got, err := env.tasks.UpdateTask(ctx, buyer, task.ID.Hex(), models.UpdateTaskRequest{TaskTitle: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.TaskTitle)
	assert.Equal(t, "Tag every cat", got.TaskDetail)
}

func TestDeleteTask_OwnerOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, buyer, 50)
	ctx := context.Background()

	first := env.seedTask(t, buyer, 1, 5)
	second := env.seedTask(t, buyer, 1, 5)

	assert.Equal(t, KindForbidden, KindOf(env.tasks.DeleteTask(ctx, other, first.ID.Hex())))
	assert.Equal(t, KindForbidden, KindOf(env.tasks.DeleteTask(ctx, alice, first.ID.Hex())))
	require.NoError(t, env.tasks.DeleteTask(ctx, buyer, first.ID.Hex()))
	require.NoError(t, env.tasks.DeleteTask(ctx, admin, second.ID.Hex()))

	_, err := env.tasks.GetTask(ctx, first.ID.Hex())
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestClaimSlot_NoSlotsLeft(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, buyer, 50)
	task := env.seedTask(t, buyer, 1, 5)
	ctx := context.Background()

	require.NoError(t, env.tasks.ClaimSlot(ctx, task.ID))
	assert.ErrorIs(t, env.tasks.ClaimSlot(ctx, task.ID), ErrNoSlotsLeft)
	require.NoError(t, env.tasks.ReleaseSlot(ctx, task.ID))
	assert.Equal(t, int64(1), env.slots(t, task))
}
