package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microtask/microtask_backend/models"
)

func TestCreateUser_StartingCoinsByRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	w, err := env.users.CreateUser(ctx, models.CreateUserRequest{Name: "W", Email: "W@Example.com", Role: models.RoleWorker})
	require.NoError(t, err)
	assert.Equal(t, "w@example.com", w.Email)
	assert.Equal(t, models.Coins(10), w.Coins)

	b, err := env.users.CreateUser(ctx, models.CreateUserRequest{Name: "B", Email: "b@example.com", Role: models.RoleBuyer})
	require.NoError(t, err)
	assert.Equal(t, models.Coins(50), b.Coins)

	a, err := env.users.CreateAdmin(ctx, "Root", "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.Coins(0), a.Coins)
	assert.Equal(t, models.RoleAdmin, a.Role)
}

func TestCreateUser_RejectsAdminSelfSignUp(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.users.CreateUser(context.Background(), models.CreateUserRequest{Name: "X", Email: "x@example.com", Role: models.RoleAdmin})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := models.CreateUserRequest{Name: "W", Email: "w@example.com", Role: models.RoleWorker}
	_, err := env.users.CreateUser(ctx, req)
	require.NoError(t, err)

	_, err = env.users.CreateUser(ctx, req)
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestGetUser_SelfOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, alice, 10)
	ctx := context.Background()

	_, err := env.users.GetUser(ctx, alice, alice.Email)
	assert.NoError(t, err)
	_, err = env.users.GetUser(ctx, admin, alice.Email)
	assert.NoError(t, err)
	_, err = env.users.GetUser(ctx, bob, alice.Email)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestUpdateRole_AdminOnlyAndKeepsCoins(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, alice, 42)
	ctx := context.Background()

	err := env.users.UpdateRole(ctx, buyer, alice.Email, models.RoleBuyer)
	assert.Equal(t, KindForbidden, KindOf(err))
	u, _ := env.stores.Users.FindByEmail(ctx, alice.Email)
	assert.Equal(t, models.RoleWorker, u.Role)

	require.NoError(t, env.users.UpdateRole(ctx, admin, alice.Email, models.RoleBuyer))
	u, _ = env.stores.Users.FindByEmail(ctx, alice.Email)
	assert.Equal(t, models.RoleBuyer, u.Role)
	assert.Equal(t, int64(42), env.coins(t, alice.Email))

	err = env.users.UpdateRole(ctx, admin, alice.Email, "Overlord")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestSetCoins(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, alice, 10)
	ctx := context.Background()

	assert.Equal(t, KindValidation, KindOf(env.users.SetCoins(ctx, admin, alice.Email, -1)))
	assert.Equal(t, KindForbidden, KindOf(env.users.SetCoins(ctx, alice, alice.Email, 1000)))
	assert.Equal(t, KindNotFound, KindOf(env.users.SetCoins(ctx, admin, "ghost@example.com", 5)))

	require.NoError(t, env.users.SetCoins(ctx, admin, alice.Email, 77))
	assert.Equal(t, int64(77), env.coins(t, alice.Email))
}

func TestModifyCoins(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, buyer, 50)
	env.seedUser(t, alice, 10)
	ctx := context.Background()

	// spending own coins
	require.NoError(t, env.users.ModifyCoins(ctx, buyer, "", -20))
	assert.Equal(t, int64(30), env.coins(t, buyer.Email))

	// never below zero
	assert.ErrorIs(t, env.users.ModifyCoins(ctx, buyer, buyer.Email, -31), ErrInsufficientFunds)
	assert.Equal(t, int64(30), env.coins(t, buyer.Email))

	// non-admins cannot mint or touch others
	assert.Equal(t, KindForbidden, KindOf(env.users.ModifyCoins(ctx, buyer, buyer.Email, 5)))
	assert.Equal(t, KindForbidden, KindOf(env.users.ModifyCoins(ctx, buyer, alice.Email, -1)))

	require.NoError(t, env.users.ModifyCoins(ctx, admin, alice.Email, 90))
	assert.Equal(t, int64(100), env.coins(t, alice.Email))
}

func TestListUsers_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, alice, 10)
	env.seedUser(t, buyer, 50)
	ctx := context.Background()

	_, err := env.users.ListUsers(ctx, alice, models.UserFilter{})
	assert.Equal(t, KindForbidden, KindOf(err))

	users, err := env.users.ListUsers(ctx, admin, models.UserFilter{Role: models.RoleWorker})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, alice.Email, users[0].Email)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, alice, 10)
	ctx := context.Background()
	u, _ := env.stores.Users.FindByEmail(ctx, alice.Email)

	assert.Equal(t, KindValidation, KindOf(env.users.DeleteUser(ctx, admin, "nope")))
	assert.Equal(t, KindForbidden, KindOf(env.users.DeleteUser(ctx, buyer, u.ID.Hex())))
	require.NoError(t, env.users.DeleteUser(ctx, admin, u.ID.Hex()))
	assert.Equal(t, KindNotFound, KindOf(env.users.DeleteUser(ctx, admin, u.ID.Hex())))
}
