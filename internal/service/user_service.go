package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/quickcart-shop/quickcart-api/internal/clients"
	"github.com/quickcart-shop/quickcart-api/internal/errs"
	"github.com/quickcart-shop/quickcart-api/internal/logging"
	"github.com/quickcart-shop/quickcart-api/internal/models"
	"github.com/quickcart-shop/quickcart-api/internal/repository"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// SignupRequest carries the fields accepted at account creation.
type SignupRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
}

// ProfileUpdateRequest carries the mutable profile fields. Empty fields are
// left unchanged.
type ProfileUpdateRequest struct {
	Email       string `json:"email"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

// UserService manages accounts and credentials.
type UserService struct {
	users    repository.UserRepository
	notifier clients.NotificationSender
	logger   *logging.Logger
}

func NewUserService(users repository.UserRepository, notifier clients.NotificationSender) *UserService {
	return &UserService{
		users:    users,
		notifier: notifier,
		logger:   logging.NewLogger("user-service"),
	}
}

// Signup registers a regular user account.
func (s *UserService) Signup(ctx context.Context, req *SignupRequest) (*models.User, error) {
	return s.register(ctx, req, []string{RoleUser})
}

// CreateAdmin registers an account carrying the admin role.
func (s *UserService) CreateAdmin(ctx context.Context, req *SignupRequest) (*models.User, error) {
	return s.register(ctx, req, []string{RoleUser, RoleAdmin})
}

func (s *UserService) register(ctx context.Context, req *SignupRequest, roles []string) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, errs.NewValidationError("username", "username is required")
	}
	if len(req.Password) < 6 {
		return nil, errs.NewValidationError("password", "password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        strings.TrimSpace(req.Email),
		Address:      req.Address,
		PhoneNumber:  req.PhoneNumber,
		Roles:        roles,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithFields(logging.Fields{
		"user_id":  user.ID.Hex(),
		"username": user.Username,
	}).Info("user registered")

	s.sendWelcomeEmail(user)
	return user, nil
}

// sendWelcomeEmail delivers the welcome mail off the request path. Failures
// are logged and do not affect signup.
func (s *UserService) sendWelcomeEmail(user *models.User) {
	if user.Email == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.notifier.SendEmail(ctx, &clients.SendEmailRequest{
			To:      user.Email,
			Subject: "Welcome to QuickCart",
			Body:    fmt.Sprintf("Hi %s, your QuickCart account is ready.", user.Username),
		})
		if err != nil {
			s.logger.WithFields(logging.Fields{
				"user_id": user.ID.Hex(),
				"error":   err.Error(),
			}).Warn("welcome email failed")
		}
	}()
}

// Authenticate checks a username/password pair and returns the account. The
// error message does not reveal whether the username exists.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err == errs.ErrNotFound {
		return nil, errs.NewValidationError("credentials", "incorrect username or password")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errs.NewValidationError("credentials", "incorrect username or password")
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile applies the non-empty fields of the request to the account.
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, req *ProfileUpdateRequest) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != "" {
		user.Email = strings.TrimSpace(req.Email)
	}
	if req.Address != "" {
		user.Address = req.Address
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.Password != "" {
		if len(req.Password) < 6 {
			return nil, errs.NewValidationError("password", "password must be at least 6 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithFields(logging.Fields{"user_id": id.Hex()}).Info("user deleted")
	return nil
}
