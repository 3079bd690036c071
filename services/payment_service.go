package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/metrics"
	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/repositories"
)

const paymentCurrency = "USD"

// coinPackages maps a purchasable coin amount to its price in dollars
var coinPackages = map[int64]decimal.Decimal{
	10:   decimal.NewFromInt(1),
	150:  decimal.NewFromInt(10),
	500:  decimal.NewFromInt(20),
	1000: decimal.NewFromInt(35),
}

// PackagePrice returns the price of a coin package
func PackagePrice(coins int64) (decimal.Decimal, bool) {
	price, ok := coinPackages[coins]
	return price, ok
}

// PackageSizes lists the purchasable coin amounts in ascending order
func PackageSizes() []int64 {
	sizes := make([]int64, 0, len(coinPackages))
	for c := range coinPackages {
		sizes = append(sizes, c)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })
	return sizes
}

// PaymentIntentCreator opens a payment with an external gateway
type PaymentIntentCreator interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (*models.PaymentIntent, error)
}

// PaymentVerifier confirms a gateway transaction completed
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, currency, transactionID string) (bool, error)
}

// PaymentService sells coin packages to buyers.
type PaymentService struct {
	payments repositories.PaymentStore
	users    *UserService
	gateway  PaymentIntentCreator
	verifier PaymentVerifier
	log      *logrus.Entry
}

// NewPaymentService wires the bridge. verifier may be nil, in which case a
// payment is accepted once it matches a recorded intent.
func NewPaymentService(payments repositories.PaymentStore, users *UserService, gateway PaymentIntentCreator, verifier PaymentVerifier, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		payments: payments,
		users:    users,
		gateway:  gateway,
		verifier: verifier,
		log:      logger.WithField("service", "payments"),
	}
}

func (s *PaymentService) CreatePaymentIntent(ctx context.Context, actor models.Identity, coins int64) (*models.PaymentIntent, error) {
	if !actor.HasRole(models.RoleBuyer) {
		return nil, forbidden("only buyers can purchase coins")
	}
	price, ok := PackagePrice(coins)
	if !ok {
		return nil, validationError("no coin package of %d coins", coins)
	}

	if s.gateway == nil {
		return nil, internal("payment gateway not configured", nil)
	}

	amountMinor := price.Shift(2).IntPart()
	intent, err := s.gateway.CreateIntent(ctx, amountMinor, paymentCurrency)
	if err != nil {
		return nil, internal("failed to create payment intent", err)
	}
	record := &models.PaymentIntentRecord{
		TransactionID: intent.TransactionID,
		Email:         normalizeEmail(actor.Email),
		Coins:         coins,
		AmountMinor:   amountMinor,
		Currency:      paymentCurrency,
		CreatedAt:     time.Now(),
	}
	if err := s.payments.CreateIntent(ctx, record); err != nil {
		return nil, storeError("payment intent", err)
	}
	s.log.WithFields(logrus.Fields{
		"email":          actor.Email,
		"coins":          coins,
		"amount_minor":   amountMinor,
		"transaction_id": intent.TransactionID,
	}).Info("payment intent created")
	return intent, nil
}

// CreatePayment records a completed purchase and credits the coins. The
// transaction must belong to an intent this buyer opened for the same
// package, and the price comes from that intent. The history entry goes in
// first so a replayed transaction id never credits twice.
func (s *PaymentService) CreatePayment(ctx context.Context, actor models.Identity, req models.CreatePaymentRequest) (p *models.Payment, err error) {
	defer func() { metrics.RecordTransition("payment", "record", outcome(err)) }()

	if !actor.HasRole(models.RoleBuyer) {
		return nil, forbidden("only buyers can purchase coins")
	}
	txID := strings.TrimSpace(req.TransactionID)
	if txID == "" {
		return nil, validationError("transactionId is required")
	}
	if _, ok := PackagePrice(req.Coins); !ok {
		return nil, validationError("no coin package of %d coins", req.Coins)
	}

	intent, err := s.payments.FindIntent(ctx, txID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, validationError("unknown transaction %s", txID)
	}
	if err != nil {
		return nil, internal("failed to load payment intent", err)
	}
	email := normalizeEmail(actor.Email)
	if intent.Email != email {
		return nil, forbidden("transaction belongs to another buyer")
	}
	if intent.Coins != req.Coins {
		return nil, validationError("transaction %s was opened for %d coins, not %d", txID, intent.Coins, req.Coins)
	}

	if s.verifier != nil {
		paid, err := s.verifier.VerifyPayment(ctx, paymentCurrency, txID)
		if err != nil {
			return nil, internal("failed to verify payment", err)
		}
		if !paid {
			return nil, validationError("payment %s is not completed", txID)
		}
	}

	p = &models.Payment{
		Email:         email,
		Coins:         intent.Coins,
		Price:         models.NewMoney(decimal.New(intent.AmountMinor, -2)),
		TransactionID: txID,
		Date:          time.Now(),
	}
	if err := s.payments.Create(ctx, p); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicatePayment
		}
		return nil, internal("failed to record payment", err)
	}
	if err := s.users.Credit(ctx, email, intent.Coins); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPayments returns purchase history, newest first. Self or Admin.
func (s *PaymentService) ListPayments(ctx context.Context, actor models.Identity, email string) ([]models.Payment, error) {
	email = normalizeEmail(email)
	if email == "" {
		email = normalizeEmail(actor.Email)
	}
	if email != normalizeEmail(actor.Email) && !actor.IsAdmin() {
		return nil, forbidden("cannot read another user's payments")
	}
	items, err := s.payments.ListByEmail(ctx, email)
	if err != nil {
		return nil, internal("failed to list payments", err)
	}
	return items, nil
}
