// Package memory implements the repositories store interfaces in process.
// It backs STORE_BACKEND=memory and the service tests. Every store hands out
// copies so callers cannot mutate shared state.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/repositories"
)

// NewStores returns a fresh, empty set of stores
func NewStores() repositories.Stores {
	return repositories.Stores{
		Users:         NewUserStore(),
		Tasks:         NewTaskStore(),
		Submissions:   NewSubmissionStore(),
		Withdrawals:   NewWithdrawalStore(),
		Notifications: NewNotificationStore(),
		Payments:      NewPaymentStore(),
	}
}

type UserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[string]*models.User{}}
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return repositories.ErrDuplicate
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	u := *user
	s.users[user.Email] = &u
	return nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) List(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, u := range s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(filter.Name)) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *UserStore) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, u := range s.users {
		if u.ID == id {
			delete(s.users, email)
			return true, nil
		}
	}
	return false, nil
}

func (s *UserStore) UpdateRole(_ context.Context, email, role string) (bool, error) {
	return s.mutate(email, func(u *models.User) bool {
		u.Role = role
		return true
	}), nil
}

func (s *UserStore) UpdateProfile(_ context.Context, email string, req models.UpdateProfileRequest) (bool, error) {
	return s.mutate(email, func(u *models.User) bool {
		if req.Name != "" {
			u.Name = req.Name
		}
		if req.Photo != "" {
			u.Photo = req.Photo
		}
		if req.FCMToken != "" {
			u.FCMToken = req.FCMToken
		}
		return true
	}), nil
}

func (s *UserStore) SetCoins(_ context.Context, email string, value int64) (bool, error) {
	return s.mutate(email, func(u *models.User) bool {
		u.Coins = models.Coins(value)
		return true
	}), nil
}

func (s *UserStore) AddCoins(_ context.Context, email string, delta int64) (bool, error) {
	return s.mutate(email, func(u *models.User) bool {
		u.Coins += models.Coins(delta)
		return true
	}), nil
}

func (s *UserStore) DebitCoins(_ context.Context, email string, amount int64) (bool, error) {
	return s.mutate(email, func(u *models.User) bool {
		if int64(u.Coins) < amount {
			return false
		}
		u.Coins -= models.Coins(amount)
		return true
	}), nil
}

func (s *UserStore) mutate(email string, fn func(*models.User) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return false
	}
	if !fn(u) {
		return false
	}
	u.UpdatedAt = time.Now()
	return true
}

type TaskStore struct {
	mu    sync.Mutex
	tasks map[primitive.ObjectID]*models.Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: map[primitive.ObjectID]*models.Task{}}
}

func (s *TaskStore) Create(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	t := *task
	s.tasks[t.ID] = &t
	return nil
}

func (s *TaskStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *TaskStore) List(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Task{}
	for _, t := range s.tasks {
		if filter.BuyerEmail != "" && t.BuyerEmail != filter.BuyerEmail {
			continue
		}
		if filter.AvailableOnly && t.RequiredWorkers <= 0 {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *TaskStore) Update(_ context.Context, id primitive.ObjectID, req models.UpdateTaskRequest) (bool, error) {
	return s.mutate(id, func(t *models.Task) bool {
		if req.TaskTitle != "" {
			t.TaskTitle = req.TaskTitle
		}
		if req.TaskDetail != "" {
			t.TaskDetail = req.TaskDetail
		}
		if req.SubmissionInfo != "" {
			t.SubmissionInfo = req.SubmissionInfo
		}
		return true
	}), nil
}

func (s *TaskStore) SetRequiredWorkers(_ context.Context, id primitive.ObjectID, count int64) (bool, error) {
	return s.mutate(id, func(t *models.Task) bool {
		t.RequiredWorkers = count
		return true
	}), nil
}

func (s *TaskStore) ClaimSlot(_ context.Context, id primitive.ObjectID) (bool, error) {
	return s.mutate(id, func(t *models.Task) bool {
		if t.RequiredWorkers <= 0 {
			return false
		}
		t.RequiredWorkers--
		return true
	}), nil
}

func (s *TaskStore) ReleaseSlot(_ context.Context, id primitive.ObjectID) (bool, error) {
	return s.mutate(id, func(t *models.Task) bool {
		t.RequiredWorkers++
		return true
	}), nil
}

func (s *TaskStore) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}
	delete(s.tasks, id)
	return true, nil
}

func (s *TaskStore) mutate(id primitive.ObjectID, fn func(*models.Task) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	return fn(t)
}

type SubmissionStore struct {
	mu   sync.Mutex
	subs map[primitive.ObjectID]*models.Submission
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{subs: map[primitive.ObjectID]*models.Submission{}}
}

func (s *SubmissionStore) Create(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	cp := *sub
	s.subs[cp.ID] = &cp
	return nil
}

func (s *SubmissionStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *SubmissionStore) List(_ context.Context, filter models.SubmissionFilter) ([]models.Submission, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []models.Submission{}
	for _, sub := range s.subs {
		if filter.WorkerEmail != "" && sub.WorkerEmail != filter.WorkerEmail {
			continue
		}
		if filter.BuyerEmail != "" && sub.BuyerEmail != filter.BuyerEmail {
			continue
		}
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		matched = append(matched, *sub)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CurrentDate.After(matched[j].CurrentDate) })

	total := int64(len(matched))
	start := filter.Skip
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

func (s *SubmissionStore) HasLive(_ context.Context, taskID primitive.ObjectID, workerEmail string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.TaskID == taskID && sub.WorkerEmail == workerEmail && sub.Status != models.SubmissionRejected {
			return true, nil
		}
	}
	return false, nil
}

func (s *SubmissionStore) TransitionStatus(_ context.Context, id primitive.ObjectID, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok || sub.Status != from {
		return false, nil
	}
	sub.Status = to
	return true, nil
}

type WithdrawalStore struct {
	mu   sync.Mutex
	reqs map[primitive.ObjectID]*models.WithdrawalRequest
}

func NewWithdrawalStore() *WithdrawalStore {
	return &WithdrawalStore{reqs: map[primitive.ObjectID]*models.WithdrawalRequest{}}
}

func (s *WithdrawalStore) Create(_ context.Context, req *models.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	cp := *req
	s.reqs[cp.ID] = &cp
	return nil
}

func (s *WithdrawalStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.reqs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *WithdrawalStore) List(_ context.Context, filter models.WithdrawalFilter) ([]models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.WithdrawalRequest{}
	for _, req := range s.reqs {
		if filter.WorkerEmail != "" && req.WorkerEmail != filter.WorkerEmail {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WithdrawDate.After(out[j].WithdrawDate) })
	return out, nil
}

func (s *WithdrawalStore) Approve(_ context.Context, id primitive.ObjectID, adminName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.reqs[id]
	if !ok || req.Status != models.WithdrawalPending {
		return false, nil
	}
	now := time.Now()
	req.Status = models.WithdrawalApproved
	req.ApprovedBy = adminName
	req.ProcessedAt = &now
	return true, nil
}

type NotificationStore struct {
	mu    sync.Mutex
	items []models.Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

func (s *NotificationStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	s.items = append(s.items, *n)
	return nil
}

// ListByRecipient returns newest first
func (s *NotificationStore) ListByRecipient(_ context.Context, email string) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Notification{}
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].ToEmail == email {
			out = append(out, s.items[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	return out, nil
}

type PaymentStore struct {
	mu       sync.Mutex
	payments []models.Payment
	txIDs    map[string]struct{}
	intents  map[string]models.PaymentIntentRecord
}

func NewPaymentStore() *PaymentStore {
	return &PaymentStore{
		txIDs:   map[string]struct{}{},
		intents: map[string]models.PaymentIntentRecord{},
	}
}

func (s *PaymentStore) Create(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txIDs[p.TransactionID]; ok {
		return repositories.ErrDuplicate
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.txIDs[p.TransactionID] = struct{}{}
	s.payments = append(s.payments, *p)
	return nil
}

func (s *PaymentStore) ListByEmail(_ context.Context, email string) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Payment{}
	for i := len(s.payments) - 1; i >= 0; i-- {
		if s.payments[i].Email == email {
			out = append(out, s.payments[i])
		}
	}
	return out, nil
}

func (s *PaymentStore) CreateIntent(_ context.Context, intent *models.PaymentIntentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.intents[intent.TransactionID]; ok {
		return repositories.ErrDuplicate
	}
	if intent.ID.IsZero() {
		intent.ID = primitive.NewObjectID()
	}
	s.intents[intent.TransactionID] = *intent
	return nil
}

func (s *PaymentStore) FindIntent(_ context.Context, transactionID string) (*models.PaymentIntentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[transactionID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &intent, nil
}
