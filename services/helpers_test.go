package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/repositories"
	"github.com/microtask/microtask_backend/repositories/memory"
)

var (
	admin = models.Identity{Email: "admin@example.com", Role: models.RoleAdmin}
	buyer = models.Identity{Email: "buyer@example.com", Role: models.RoleBuyer}
	other = models.Identity{Email: "other@example.com", Role: models.RoleBuyer}
	alice = models.Identity{Email: "alice@example.com", Role: models.RoleWorker}
	bob   = models.Identity{Email: "bob@example.com", Role: models.RoleWorker}
)

type testEnv struct {
	stores        repositories.Stores
	users         *UserService
	tasks         *TaskService
	notifications *NotificationService
	submissions   *SubmissionService
	withdrawals   *WithdrawalService
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := quietLogger()
	stores := memory.NewStores()
	locker := NewLocalLocker()

	users := NewUserService(stores.Users, logger)
	tasks := NewTaskService(stores.Tasks, stores.Users, logger)
	notifications := NewNotificationService(stores.Notifications, logger)
	return &testEnv{
		stores:        stores,
		users:         users,
		tasks:         tasks,
		notifications: notifications,
		submissions:   NewSubmissionService(stores.Submissions, tasks, users, notifications, locker, logger),
		withdrawals:   NewWithdrawalService(stores.Withdrawals, users, notifications, locker, logger),
	}
}

// seedUser inserts a user with an exact balance
func (e *testEnv) seedUser(t *testing.T, id models.Identity, coins int64) {
	t.Helper()
	require.NoError(t, e.stores.Users.Create(context.Background(), &models.User{
		Name:  id.Email[:len(id.Email)-len("@example.com")],
		Email: id.Email,
		Role:  id.Role,
		Coins: models.Coins(coins),
	}))
}

func (e *testEnv) seedTask(t *testing.T, owner models.Identity, slots, pay int64) *models.Task {
	t.Helper()
	task, err := e.tasks.CreateTask(context.Background(), owner, models.CreateTaskRequest{
		TaskTitle:       "Label images",
		TaskDetail:      "Tag every cat",
		PayableAmount:   pay,
		RequiredWorkers: slots,
	})
	require.NoError(t, err)
	return task
}

func (e *testEnv) coins(t *testing.T, email string) int64 {
	t.Helper()
	u, err := e.stores.Users.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return int64(u.Coins)
}

func (e *testEnv) inbox(t *testing.T, email string) []models.Notification {
	t.Helper()
	items, err := e.stores.Notifications.ListByRecipient(context.Background(), email)
	require.NoError(t, err)
	return items
}

func (e *testEnv) slots(t *testing.T, task *models.Task) int64 {
	t.Helper()
	got, err := e.stores.Tasks.FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	return got.RequiredWorkers
}

// recordingPusher captures pushes and can be told to fail
type recordingPusher struct {
	mu     sync.Mutex
	pushed []models.Notification
	fail   bool
}

func (p *recordingPusher) Name() string { return "test" }

func (p *recordingPusher) Push(_ context.Context, n models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, n)
	if p.fail {
		return errors.New("push failed")
	}
	return nil
}
