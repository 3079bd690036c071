package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/repositories"
	"github.com/microtask/microtask_backend/utils"
)

// TaskService owns task records and their open slot counts.
type TaskService struct {
	tasks repositories.TaskStore
	users repositories.UserStore
	log   *logrus.Entry
}

func NewTaskService(tasks repositories.TaskStore, users repositories.UserStore, logger *logrus.Logger) *TaskService {
	return &TaskService{
		tasks: tasks,
		users: users,
		log:   logger.WithField("service", "tasks"),
	}
}

func (s *TaskService) CreateTask(ctx context.Context, actor models.Identity, req models.CreateTaskRequest) (*models.Task, error) {
	if !actor.HasRole(models.RoleBuyer) {
		return nil, forbidden("only buyers can post tasks")
	}
	if strings.TrimSpace(req.TaskTitle) == "" {
		return nil, validationError("task_title is required")
	}
	if req.PayableAmount <= 0 {
		return nil, validationError("payable_amount must be positive")
	}
	if req.RequiredWorkers < 1 {
		return nil, validationError("required_workers must be at least 1")
	}

	buyerName := ""
	if buyer, err := s.users.FindByEmail(ctx, actor.Email); err == nil {
		buyerName = buyer.Name
	}

	task := &models.Task{
		BuyerEmail:      actor.Email,
		BuyerName:       buyerName,
		TaskTitle:       utils.SanitizeInput(req.TaskTitle),
		TaskDetail:      utils.SanitizeInput(req.TaskDetail),
		PayableAmount:   req.PayableAmount,
		RequiredWorkers: req.RequiredWorkers,
		SubmissionInfo:  utils.SanitizeInput(req.SubmissionInfo),
		TaskImageURL:    req.TaskImageURL,
		CompletionDate:  req.CompletionDate,
		CreatedAt:       time.Now(),
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, internal("failed to create task", err)
	}
	s.log.WithFields(logrus.Fields{"task_id": task.ID.Hex(), "buyer": actor.Email}).Info("task created")
	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, internal("failed to list tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, oid)
}

func (s *TaskService) find(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("task", err)
	}
	return task, nil
}

// UpdateTask edits the text fields. Owner only.
func (s *TaskService) UpdateTask(ctx context.Context, actor models.Identity, id string, req models.UpdateTaskRequest) (*models.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.BuyerEmail != actor.Email {
		return nil, forbidden("only the task owner can edit it")
	}
	req.TaskTitle = utils.SanitizeInput(req.TaskTitle)
	req.TaskDetail = utils.SanitizeInput(req.TaskDetail)
	req.SubmissionInfo = utils.SanitizeInput(req.SubmissionInfo)
	if _, err := s.tasks.Update(ctx, task.ID, req); err != nil {
		return nil, internal("failed to update task", err)
	}
	return s.find(ctx, task.ID)
}

// UpdateRequiredWorkers overwrites the slot count. Owner or Admin.
func (s *TaskService) UpdateRequiredWorkers(ctx context.Context, actor models.Identity, id string, count int64) error {
	if count < 0 {
		return validationError("required_workers cannot be negative")
	}
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task.BuyerEmail != actor.Email && !actor.IsAdmin() {
		return forbidden("only the task owner or an admin can change slots")
	}
	ok, err := s.tasks.SetRequiredWorkers(ctx, task.ID, count)
	if err != nil {
		return internal("failed to update required workers", err)
	}
	if !ok {
		return notFound("task")
	}
	s.log.WithFields(logrus.Fields{"task_id": id, "required_workers": count}).Info("required workers updated")
	return nil
}

// DeleteTask removes a task. Owning buyer or Admin.
func (s *TaskService) DeleteTask(ctx context.Context, actor models.Identity, id string) error {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if !(actor.IsAdmin() || (actor.HasRole(models.RoleBuyer) && task.BuyerEmail == actor.Email)) {
		return forbidden("only the owning buyer or an admin can delete a task")
	}
	ok, err := s.tasks.Delete(ctx, task.ID)
	if err != nil {
		return internal("failed to delete task", err)
	}
	if !ok {
		return notFound("task")
	}
	s.log.WithFields(logrus.Fields{"task_id": id, "by": actor.Email}).Info("task deleted")
	return nil
}

// ClaimSlot takes one open slot, failing with ErrNoSlotsLeft at zero.
func (s *TaskService) ClaimSlot(ctx context.Context, id primitive.ObjectID) error {
	ok, err := s.tasks.ClaimSlot(ctx, id)
	if err != nil {
		return internal("failed to claim slot", err)
	}
	if !ok {
		if _, err := s.find(ctx, id); err != nil {
			return err
		}
		return ErrNoSlotsLeft
	}
	return nil
}

// ReleaseSlot gives a slot back.
func (s *TaskService) ReleaseSlot(ctx context.Context, id primitive.ObjectID) error {
	ok, err := s.tasks.ReleaseSlot(ctx, id)
	if err != nil {
		return internal("failed to release slot", err)
	}
	if !ok {
		return notFound("task")
	}
	return nil
}
