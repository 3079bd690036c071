package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/metrics"
	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/repositories"
)

const (
	// MinWithdrawalCoins is the smallest withdrawal a worker may request
	MinWithdrawalCoins = 200
	// CoinsPerDollar converts coins to cash on withdrawal
	CoinsPerDollar = 20

	withdrawalsRoute = "/dashboard/worker-home"
)

// WithdrawalService runs the pending -> approved coin cash-out workflow.
type WithdrawalService struct {
	withdrawals   repositories.WithdrawalStore
	users         *UserService
	notifications *NotificationService
	locker        Locker
	log           *logrus.Entry
}

func NewWithdrawalService(
	withdrawals repositories.WithdrawalStore,
	users *UserService,
	notifications *NotificationService,
	locker Locker,
	logger *logrus.Logger,
) *WithdrawalService {
	return &WithdrawalService{
		withdrawals:   withdrawals,
		users:         users,
		notifications: notifications,
		locker:        locker,
		log:           logger.WithField("service", "withdrawals"),
	}
}

// CashAmount converts coins to dollars, rounded to cents.
func CashAmount(coins int64) decimal.Decimal {
	return decimal.NewFromInt(coins).Div(decimal.NewFromInt(CoinsPerDollar)).Round(2)
}

func (s *WithdrawalService) CreateWithdrawal(ctx context.Context, actor models.Identity, req models.CreateWithdrawalRequest) (w *models.WithdrawalRequest, err error) {
	defer func() { metrics.RecordTransition("withdrawal", "create", outcome(err)) }()

	if !actor.HasRole(models.RoleWorker) {
		return nil, forbidden("only workers can withdraw")
	}
	if req.WithdrawalCoin < MinWithdrawalCoins {
		return nil, validationError("minimum withdrawal is %d coins", MinWithdrawalCoins)
	}
	if strings.TrimSpace(req.PaymentSystem) == "" || strings.TrimSpace(req.AccountNumber) == "" {
		return nil, validationError("payment_system and account_number are required")
	}

	worker, err := s.users.FindByEmail(ctx, actor.Email)
	if err != nil {
		return nil, err
	}
	if int64(worker.Coins) < req.WithdrawalCoin {
		return nil, ErrInsufficientFunds
	}

	w = &models.WithdrawalRequest{
		WorkerEmail:      worker.Email,
		WorkerName:       worker.Name,
		WithdrawalCoin:   req.WithdrawalCoin,
		WithdrawalAmount: models.NewMoney(CashAmount(req.WithdrawalCoin)),
		PaymentSystem:    strings.TrimSpace(req.PaymentSystem),
		AccountNumber:    strings.TrimSpace(req.AccountNumber),
		WithdrawDate:     time.Now(),
		Status:           models.WithdrawalPending,
	}
	if err := s.withdrawals.Create(ctx, w); err != nil {
		return nil, internal("failed to create withdrawal", err)
	}
	s.log.WithFields(logrus.Fields{
		"withdrawal_id": w.ID.Hex(),
		"email":         worker.Email,
		"amount":        req.WithdrawalCoin,
	}).Info("withdrawal requested")
	return w, nil
}

// ListWithdrawals returns every request for admins and the caller's own otherwise.
func (s *WithdrawalService) ListWithdrawals(ctx context.Context, actor models.Identity, status string) ([]models.WithdrawalRequest, error) {
	filter := models.WithdrawalFilter{Status: status}
	if !actor.IsAdmin() {
		filter.WorkerEmail = actor.Email
	}
	items, err := s.withdrawals.List(ctx, filter)
	if err != nil {
		return nil, internal("failed to list withdrawals", err)
	}
	return items, nil
}

// ApproveWithdrawal moves a pending request to approved, debits the balance
// owner (req.Email) and notifies req.WorkerEmail. An already approved request
// is refused before any ledger access.
func (s *WithdrawalService) ApproveWithdrawal(ctx context.Context, actor models.Identity, id string, req models.ApproveWithdrawalRequest) (err error) {
	defer func() { metrics.RecordTransition("withdrawal", "approve", outcome(err)) }()

	if !actor.IsAdmin() {
		return forbidden("admin only")
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if req.Amount <= 0 {
		return validationError("amount must be positive")
	}

	release, err := s.locker.Acquire(ctx, "withdrawal:"+id)
	if err != nil {
		return err
	}
	defer release()

	w, err := s.withdrawals.FindByID(ctx, oid)
	if err != nil {
		return storeError("withdrawal request", err)
	}
	if w.Status != models.WithdrawalPending {
		return ErrAlreadyProcessed
	}
	if req.Amount != w.WithdrawalCoin {
		return validationError("amount %d does not match requested %d coins", req.Amount, w.WithdrawalCoin)
	}
	balanceOwner := pick(normalizeEmail(req.Email), w.WorkerEmail)
	recipient := pick(normalizeEmail(req.WorkerEmail), w.WorkerEmail)
	adminName := pick(req.AdminName, actor.Email)

	ok, err := s.withdrawals.Approve(ctx, oid, adminName)
	if err != nil {
		return internal("failed to update withdrawal request", err)
	}
	if !ok {
		return ErrAlreadyProcessed
	}

	// From here on the request stays approved even if the debit is refused.
	user, err := s.users.FindByEmail(ctx, balanceOwner)
	if err != nil {
		return err
	}
	if int64(user.Coins) < req.Amount {
		s.log.WithFields(logrus.Fields{"withdrawal_id": id, "email": balanceOwner}).Warn("withdrawal approved without sufficient coins")
		return ErrInsufficientFunds
	}
	if err := s.users.Debit(ctx, balanceOwner, req.Amount); err != nil {
		return err
	}

	message := fmt.Sprintf("Your withdrawal of %d coins ($%s) via %s was approved by %s", w.WithdrawalCoin, w.WithdrawalAmount.StringFixed(2), w.PaymentSystem, adminName)
	if err := s.notifications.Notify(ctx, recipient, message, withdrawalsRoute); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"withdrawal_id": id,
		"email":         balanceOwner,
		"amount":        req.Amount,
	}).Info("withdrawal approved")
	return nil
}
