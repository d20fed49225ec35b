package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"tinyfeed/internal/clock"
	"tinyfeed/internal/credential"
	"tinyfeed/internal/domain"
	"tinyfeed/internal/repository"
)

// UserService describes user lifecycle operations.
type UserService interface {
	// RegisterOrAuthenticate signs up an unknown username or logs in a known
	// one. Callers cannot tell which happened.
	RegisterOrAuthenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	users  repository.UserRepository
	hasher credential.Hasher
	clock  clock.Clock
	logger *logrus.Logger
}

func NewUserService(users repository.UserRepository, hasher credential.Hasher, clk clock.Clock, logger *logrus.Logger) UserService {
	if logger == nil {
		logger = logrus.New()
	}
	return &userService{
		users:  users,
		hasher: hasher,
		clock:  clk,
		logger: logger,
	}
}

func (s *userService) RegisterOrAuthenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalidInput("please set both username and password")
	}
	if len(password) > credential.MaxPasswordBytes {
		return nil, invalidInput(fmt.Sprintf("password must be at most %d bytes", credential.MaxPasswordBytes))
	}

	user, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return s.authenticate(user, password)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storeFailure("lookup user", err)
	}

	user, err = s.register(ctx, username, password)
	if errors.Is(err, repository.ErrAlreadyExists) {
		// lost a signup race for this name; the winner's credential decides
		existing, lookupErr := s.users.GetByUsername(ctx, username)
		if lookupErr != nil {
			return nil, storeFailure("lookup user", lookupErr)
		}
		return s.authenticate(existing, password)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) register(ctx context.Context, username, password string) (*domain.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.clock.NowUTC(),
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, err
		}
		return nil, storeFailure("create user", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user registered")
	return sanitizeUser(user), nil
}

func (s *userService) authenticate(user *domain.User, password string) (*domain.User, error) {
	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("check credential for user %d: %w", user.ID, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupFailure("get user", err)
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
}
