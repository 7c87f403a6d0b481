package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"skylark/internal/cache"
	apperrors "skylark/internal/errors"
	"skylark/internal/models"
	"skylark/internal/repository"
)

type UserService struct {
	users  *repository.UserRepository
	valkey *cache.ValkeyClient
}

func NewUserService(users *repository.UserRepository, valkey *cache.ValkeyClient) *UserService {
	return &UserService{users: users, valkey: valkey}
}

// HashPassword returns the hex SHA-256 of the password; the same scheme the
// BasicAuth middleware compares against.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if role != models.RoleCustomer && role != models.RoleAdmin {
		return nil, apperrors.InvalidInputf("unknown role %q", role)
	}
	if req.Age != nil && *req.Age < 0 {
		return nil, apperrors.InvalidInputf("age must not be negative")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: HashPassword(req.Password),
		FirstName:    req.FirstName,
		Surname:      req.Surname,
		Age:          req.Age,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.warmAuthCache(ctx, user)
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFoundf("user %d", id)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *UserService) Update(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFoundf("user %d", id)
	}

	oldHash := user.PasswordHash
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return nil, apperrors.InvalidInputf("password must be at least 8 characters")
		}
		user.PasswordHash = HashPassword(*req.Password)
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.Surname != nil {
		user.Surname = *req.Surname
	}
	if req.Age != nil {
		if *req.Age < 0 {
			return nil, apperrors.InvalidInputf("age must not be negative")
		}
		user.Age = req.Age
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if user.PasswordHash != oldHash && s.valkey != nil {
		if err := s.valkey.InvalidateUserAuth(ctx, user.Email, oldHash); err != nil {
			slog.Warn("Failed to invalidate cached credentials", "userId", user.UserID, "error", err)
		}
		s.warmAuthCache(ctx, user)
	}

	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NotFoundf("user %d", id)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	if s.valkey != nil {
		if err := s.valkey.InvalidateUserAuth(ctx, user.Email, user.PasswordHash); err != nil {
			slog.Warn("Failed to invalidate cached credentials", "userId", id, "error", err)
		}
	}
	return nil
}

func (s *UserService) warmAuthCache(ctx context.Context, user *models.User) {
	if s.valkey == nil {
		return
	}
	if err := s.valkey.SetUserAuth(ctx, user.Email, user.PasswordHash, user.UserID); err != nil {
		slog.Warn("Failed to warm credential cache", "userId", user.UserID, "error", err)
	}
}
