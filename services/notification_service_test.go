package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify_PushFailureDoesNotFailTransition(t *testing.T) {
	env := newTestEnv(t)
	failing := &recordingPusher{fail: true}
	ok := &recordingPusher{}
	env.notifications.AddPusher(failing)
	env.notifications.AddPusher(ok)

	require.NoError(t, env.notifications.Notify(context.Background(), alice.Email, "hello", "/x"))

	assert.Len(t, failing.pushed, 1)
	require.Len(t, ok.pushed, 1)
	assert.Equal(t, alice.Email, ok.pushed[0].ToEmail)
	assert.False(t, ok.pushed[0].ID.IsZero())
	assert.Len(t, env.inbox(t, alice.Email), 1)
}

func TestListNotifications_SelfOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.notifications.Notify(ctx, alice.Email, "first", "/a"))
	require.NoError(t, env.notifications.Notify(ctx, alice.Email, "second", "/a"))

	items, err := env.notifications.List(ctx, alice, "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].Message)

	_, err = env.notifications.List(ctx, bob, alice.Email)
	assert.Equal(t, KindForbidden, KindOf(err))

	items, err = env.notifications.List(ctx, admin, alice.Email)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestListNotifications_EmailCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.notifications.Notify(ctx, "Alice@Example.com", "hi", "/a"))

	items, err := env.notifications.List(ctx, alice, " ALICE@example.com")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	upper := alice
	upper.Email = "ALICE@EXAMPLE.COM"
	items, err = env.notifications.List(ctx, upper, "")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
