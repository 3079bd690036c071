package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/microtask/microtask_backend/metrics"
	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/repositories"
	"github.com/microtask/microtask_backend/utils"
)

// UserService owns user records and every coin balance mutation.
type UserService struct {
	users repositories.UserStore
	log   *logrus.Entry
}

func NewUserService(users repositories.UserStore, logger *logrus.Logger) *UserService {
	return &UserService{
		users: users,
		log:   logger.WithField("service", "users"),
	}
}

// CreateUser is public sign-up. Only Worker and Buyer may self-register.
func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if req.Role != models.RoleWorker && req.Role != models.RoleBuyer {
		return nil, validationError("role must be %s or %s", models.RoleWorker, models.RoleBuyer)
	}
	return s.create(ctx, req)
}

// CreateAdmin is reachable only from admin tooling.
func (s *UserService) CreateAdmin(ctx context.Context, name, email string) (*models.User, error) {
	return s.create(ctx, models.CreateUserRequest{Name: name, Email: email, Role: models.RoleAdmin})
}

func (s *UserService) create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return nil, validationError("%s", err.Error())
	}
	now := time.Now()
	user := &models.User{
		Name:      utils.SanitizeInput(req.Name),
		Email:     email,
		Photo:     req.Photo,
		Role:      req.Role,
		Coins:     models.Coins(models.StartingCoins(req.Role)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, internal("failed to create user", err)
	}
	s.log.WithFields(logrus.Fields{"email": email, "role": user.Role}).Info("user created")
	return user, nil
}

// GetUser returns the user with email. Self or Admin only.
func (s *UserService) GetUser(ctx context.Context, actor models.Identity, email string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		email = actor.Email
	}
	if actor.Email != email && !actor.IsAdmin() {
		return nil, forbidden("cannot read another user")
	}
	return s.FindByEmail(ctx, email)
}

// FindByEmail is the unchecked lookup used by other services
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, storeError("user", err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, actor models.Identity, filter models.UserFilter) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, forbidden("admin only")
	}
	if filter.Role != "" && !models.IsValidRole(filter.Role) {
		return nil, validationError("unknown role %q", filter.Role)
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, internal("failed to list users", err)
	}
	return users, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actor models.Identity, id string) error {
	if !actor.IsAdmin() {
		return forbidden("admin only")
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	ok, err := s.users.Delete(ctx, oid)
	if err != nil {
		return internal("failed to delete user", err)
	}
	if !ok {
		return notFound("user")
	}
	s.log.WithField("user_id", id).Info("user deleted")
	return nil
}

// UpdateRole changes a role without touching the balance.
func (s *UserService) UpdateRole(ctx context.Context, actor models.Identity, email, role string) error {
	if !actor.IsAdmin() {
		return forbidden("admin only")
	}
	if !models.IsValidRole(role) {
		return validationError("unknown role %q", role)
	}
	return s.updateRole(ctx, email, role)
}

func (s *UserService) updateRole(ctx context.Context, email, role string) error {
	ok, err := s.users.UpdateRole(ctx, normalizeEmail(email), role)
	if err != nil {
		return internal("failed to update role", err)
	}
	if !ok {
		return notFound("user")
	}
	s.log.WithFields(logrus.Fields{"email": email, "role": role}).Info("role updated")
	return nil
}

// UpdateProfile edits the caller's own profile
func (s *UserService) UpdateProfile(ctx context.Context, actor models.Identity, req models.UpdateProfileRequest) error {
	ok, err := s.users.UpdateProfile(ctx, actor.Email, req)
	if err != nil {
		return internal("failed to update profile", err)
	}
	if !ok {
		return notFound("user")
	}
	return nil
}

// SetCoins overwrites a balance. Admin only; value must be non-negative.
func (s *UserService) SetCoins(ctx context.Context, actor models.Identity, email string, value int64) error {
	if !actor.IsAdmin() {
		return forbidden("admin only")
	}
	if value < 0 {
		return validationError("coins cannot be negative")
	}
	ok, err := s.users.SetCoins(ctx, normalizeEmail(email), value)
	if err != nil {
		return internal("failed to set coins", err)
	}
	if !ok {
		return notFound("user")
	}
	s.log.WithFields(logrus.Fields{"email": email, "coins": value, "by": actor.Email}).Info("coins set")
	return nil
}

// ModifyCoins adds delta to a balance. Admins may apply any delta to anyone;
// everyone else may only spend their own coins.
func (s *UserService) ModifyCoins(ctx context.Context, actor models.Identity, email string, delta int64) error {
	email = normalizeEmail(email)
	if email == "" {
		email = actor.Email
	}
	if delta == 0 {
		return validationError("delta must not be zero")
	}
	if !actor.IsAdmin() {
		if email != actor.Email {
			return forbidden("cannot modify another user's coins")
		}
		if delta > 0 {
			return forbidden("only admins can add coins")
		}
	}
	if delta > 0 {
		return s.Credit(ctx, email, delta)
	}
	return s.Debit(ctx, email, -delta)
}

// Credit adds amount to the balance, treating a missing or malformed one as 0.
func (s *UserService) Credit(ctx context.Context, email string, amount int64) error {
	if amount <= 0 {
		return validationError("amount must be positive")
	}
	ok, err := s.users.AddCoins(ctx, normalizeEmail(email), amount)
	if err != nil {
		return internal("failed to credit coins", err)
	}
	if !ok {
		return notFound("user")
	}
	metrics.RecordCredit(amount)
	s.log.WithFields(logrus.Fields{"email": email, "amount": amount}).Info("coins credited")
	return nil
}

// Debit subtracts amount only while the balance covers it.
func (s *UserService) Debit(ctx context.Context, email string, amount int64) error {
	if amount <= 0 {
		return validationError("amount must be positive")
	}
	email = normalizeEmail(email)
	ok, err := s.users.DebitCoins(ctx, email, amount)
	if err != nil {
		return internal("failed to debit coins", err)
	}
	if !ok {
		if _, err := s.users.FindByEmail(ctx, email); err != nil {
			return storeError("user", err)
		}
		return ErrInsufficientFunds
	}
	metrics.RecordDebit(amount)
	s.log.WithFields(logrus.Fields{"email": email, "amount": amount}).Info("coins debited")
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, validationError("invalid id %q", id)
	}
	return oid, nil
}
