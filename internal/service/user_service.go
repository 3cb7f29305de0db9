package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/dershane_desk/internal/apperrors"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const DefaultAdminUsername = "admin"

type userStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// CreateUserRequest учётная запись сотрудника
type CreateUserRequest struct {
	Username string     `json:"username" validate:"required,min=3,max=64"`
	Password string     `json:"password" validate:"required,min=4"`
	Role     model.Role `json:"role" validate:"required,oneof=admin teacher"`
}

type UserService struct {
	users     userStore
	validator *validator.Validate
	cost      int
	logger    *zap.Logger
}

func NewUserService(users userStore, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:     users,
		validator: validator.New(),
		cost:      bcrypt.DefaultCost,
		logger:    logger,
	}
}

// Authenticate проверяет логин, пароль и роль. Неверные данные - ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, username, password string, role model.Role) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || (role != "" && user.Role != role) {
		return nil, apperrors.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	return user, nil
}

// CreateUser создаёт учётную запись, занятый логин - ErrConflict
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrValidation, "invalid user")
	}

	existing, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, apperrors.Wrap(nil, apperrors.ErrConflict, "username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User created",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)

	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !deleted {
		return apperrors.Wrap(nil, apperrors.ErrNotFound, "user not found")
	}

	s.logger.Info("User deleted", zap.Int64("user_id", id))
	return nil
}

// ChangePassword меняет пароль после проверки текущего
func (s *UserService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if len(newPassword) < 4 {
		return apperrors.Wrap(nil, apperrors.ErrValidation, "password too short")
	}

	user, err := s.Authenticate(ctx, username, oldPassword, "")
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("Password changed", zap.Int64("user_id", user.ID))
	return nil
}

// EnsureDefaultAdmin создаёт admin при первом запуске
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, password string) error {
	existing, err := s.users.GetByUsername(ctx, DefaultAdminUsername)
	if err != nil {
		return fmt.Errorf("check default admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	_, err = s.CreateUser(ctx, CreateUserRequest{
		Username: DefaultAdminUsername,
		Password: password,
		Role:     model.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("seed default admin: %w", err)
	}

	s.logger.Warn("Default admin account created, change its password")
	return nil
}
