package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/metrics"
	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/repositories"
	"github.com/microtask/microtask_backend/utils"
)

const (
	workerHomeRoute = "/dashboard/worker-home"
	defaultPageSize = 10
	maxPageSize     = 100
)

// SubmissionService runs the pending -> approved | rejected workflow.
type SubmissionService struct {
	submissions   repositories.SubmissionStore
	tasks         *TaskService
	users         *UserService
	notifications *NotificationService
	locker        Locker
	log           *logrus.Entry
}

func NewSubmissionService(
	submissions repositories.SubmissionStore,
	tasks *TaskService,
	users *UserService,
	notifications *NotificationService,
	locker Locker,
	logger *logrus.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissions:   submissions,
		tasks:         tasks,
		users:         users,
		notifications: notifications,
		locker:        locker,
		log:           logger.WithField("service", "submissions"),
	}
}

// CreateSubmission claims a slot on the task and records a pending
// submission. A worker holds at most one live submission per task.
func (s *SubmissionService) CreateSubmission(ctx context.Context, actor models.Identity, req models.CreateSubmissionRequest) (sub *models.Submission, err error) {
	defer func() { metrics.RecordTransition("submission", "create", outcome(err)) }()

	if !actor.HasRole(models.RoleWorker) {
		return nil, forbidden("only workers can submit")
	}
	if strings.TrimSpace(req.SubmissionDetails) == "" {
		return nil, validationError("submission_details is required")
	}
	task, err := s.tasks.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, "submit:"+task.ID.Hex()+":"+actor.Email)
	if err != nil {
		return nil, err
	}
	defer release()

	live, err := s.submissions.HasLive(ctx, task.ID, actor.Email)
	if err != nil {
		return nil, internal("failed to check submissions", err)
	}
	if live {
		return nil, ErrAlreadySubmitted
	}

	worker, err := s.users.FindByEmail(ctx, actor.Email)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.ClaimSlot(ctx, task.ID); err != nil {
		return nil, err
	}

	sub = &models.Submission{
		TaskID:            task.ID,
		TaskTitle:         task.TaskTitle,
		PayableAmount:     task.PayableAmount,
		WorkerEmail:       worker.Email,
		WorkerName:        worker.Name,
		BuyerEmail:        task.BuyerEmail,
		BuyerName:         task.BuyerName,
		SubmissionDetails: utils.SanitizeInput(req.SubmissionDetails),
		CurrentDate:       time.Now(),
		Status:            models.SubmissionPending,
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		if rerr := s.tasks.ReleaseSlot(ctx, task.ID); rerr != nil {
			s.log.WithError(rerr).WithField("task_id", task.ID.Hex()).Error("failed to release slot after insert failure")
		}
		return nil, internal("failed to create submission", err)
	}

	s.log.WithFields(logrus.Fields{
		"submission_id": sub.ID.Hex(),
		"task_id":       task.ID.Hex(),
		"email":         worker.Email,
	}).Info("submission created")
	return sub, nil
}

// ListSubmissions scopes by role: workers see their own, buyers see those on
// their tasks, admins see everything. page is 1-based.
func (s *SubmissionService) ListSubmissions(ctx context.Context, actor models.Identity, status string, page, limit int64) (*models.PageResponse, error) {
	filter := models.SubmissionFilter{Status: status}
	switch actor.Role {
	case models.RoleWorker:
		filter.WorkerEmail = actor.Email
	case models.RoleBuyer:
		filter.BuyerEmail = actor.Email
	case models.RoleAdmin:
	default:
		return nil, forbidden("unknown role")
	}
	if status != "" && status != models.SubmissionPending && status != models.SubmissionApproved && status != models.SubmissionRejected {
		return nil, validationError("unknown status %q", status)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	filter.Skip = (page - 1) * limit
	filter.Limit = limit

	items, total, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, internal("failed to list submissions", err)
	}
	return &models.PageResponse{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// ApproveSubmission marks a pending submission approved, pays the worker and
// notifies them. The status write is guarded by status = pending so a second
// approval can never pay twice.
func (s *SubmissionService) ApproveSubmission(ctx context.Context, actor models.Identity, id string, req models.ApproveSubmissionRequest) (err error) {
	defer func() { metrics.RecordTransition("submission", "approve", outcome(err)) }()

	sub, release, err := s.loadPending(ctx, actor, id)
	if err != nil {
		return err
	}
	defer release()

	if req.Amount != 0 && req.Amount != sub.PayableAmount {
		return validationError("amount %d does not match payable amount %d", req.Amount, sub.PayableAmount)
	}
	if req.WorkerEmail != "" && normalizeEmail(req.WorkerEmail) != sub.WorkerEmail {
		return validationError("workerEmail does not match submission")
	}

	ok, err := s.submissions.TransitionStatus(ctx, sub.ID, models.SubmissionPending, models.SubmissionApproved)
	if err != nil {
		return internal("failed to update submission", err)
	}
	if !ok {
		return ErrAlreadyProcessed
	}

	// TODO: the status is committed before the worker is paid; if the lookup
	// or credit below fails the submission stays approved and unpaid. Needs a
	// reconciliation job that re-credits approved submissions without a payout.
	if _, err := s.users.FindByEmail(ctx, sub.WorkerEmail); err != nil {
		return err
	}
	if err := s.users.Credit(ctx, sub.WorkerEmail, sub.PayableAmount); err != nil {
		return err
	}

	message := fmt.Sprintf("You have earned %d coins from %s for completing %s", sub.PayableAmount, pick(req.BuyerName, sub.BuyerName), pick(req.TaskTitle, sub.TaskTitle))
	if err := s.notifications.Notify(ctx, sub.WorkerEmail, message, workerHomeRoute); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"submission_id": id,
		"email":         sub.WorkerEmail,
		"amount":        sub.PayableAmount,
	}).Info("submission approved")
	return nil
}

// RejectSubmission marks a pending submission rejected, gives its slot back
// to the task and notifies the worker.
func (s *SubmissionService) RejectSubmission(ctx context.Context, actor models.Identity, id string, req models.RejectSubmissionRequest) (err error) {
	defer func() { metrics.RecordTransition("submission", "reject", outcome(err)) }()

	sub, release, err := s.loadPending(ctx, actor, id)
	if err != nil {
		return err
	}
	defer release()

	if req.TaskID != "" && req.TaskID != sub.TaskID.Hex() {
		return validationError("taskId does not match submission")
	}
	if req.WorkerEmail != "" && normalizeEmail(req.WorkerEmail) != sub.WorkerEmail {
		return validationError("workerEmail does not match submission")
	}

	ok, err := s.submissions.TransitionStatus(ctx, sub.ID, models.SubmissionPending, models.SubmissionRejected)
	if err != nil {
		return internal("failed to update submission", err)
	}
	if !ok {
		return ErrAlreadyProcessed
	}

	// The rejection stands even if the task is gone.
	slotErr := s.tasks.ReleaseSlot(ctx, sub.TaskID)
	if slotErr != nil {
		s.log.WithError(slotErr).WithField("task_id", sub.TaskID.Hex()).Warn("could not restore slot")
	}

	message := fmt.Sprintf("Your submission for %s was rejected by %s", pick(req.TaskTitle, sub.TaskTitle), pick(req.BuyerName, sub.BuyerName))
	if err := s.notifications.Notify(ctx, sub.WorkerEmail, message, workerHomeRoute); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"submission_id": id,
		"email":         sub.WorkerEmail,
	}).Info("submission rejected")
	return slotErr
}

// loadPending does the checks shared by approve and reject. On success the
// caller owns the returned lock release.
func (s *SubmissionService) loadPending(ctx context.Context, actor models.Identity, id string) (*models.Submission, func(), error) {
	if !actor.HasRole(models.RoleBuyer, models.RoleAdmin) {
		return nil, nil, forbidden("only buyers or admins can review submissions")
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, nil, err
	}

	release, err := s.locker.Acquire(ctx, "submission:"+id)
	if err != nil {
		return nil, nil, err
	}

	sub, err := s.submissions.FindByID(ctx, oid)
	if err != nil {
		release()
		return nil, nil, storeError("submission", err)
	}
	if !actor.IsAdmin() && sub.BuyerEmail != actor.Email {
		release()
		return nil, nil, forbidden("only the task owner can review this submission")
	}
	if sub.Status != models.SubmissionPending {
		release()
		return nil, nil, ErrAlreadyProcessed
	}
	return sub, release, nil
}

func pick(preferred, fallback string) string {
	if strings.TrimSpace(preferred) != "" {
		return preferred
	}
	return fallback
}
