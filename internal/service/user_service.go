package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"surveillance-service/internal/identity"
	"surveillance-service/internal/model"
)

// UserStore is the persistence surface UserService needs. Satisfied by
// repository.UserRepository.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

const counterUser = "user"

type UserService struct {
	users     UserStore
	sequences SequenceAllocator
	log       zerolog.Logger
}

func NewUserService(users UserStore, sequences SequenceAllocator, log zerolog.Logger) *UserService {
	return &UserService{
		users:     users,
		sequences: sequences,
		log:       log,
	}
}

type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || input.Name == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: email, name and password are required", ErrValidation)
	}

	role := input.Role
	if role == "" {
		role = "operator"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	seq, err := s.sequences.Next(ctx, counterUser)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	user := &model.User{
		ID:             identity.Format(identity.KindUser, seq),
		SequenceNumber: seq,
		Email:          email,
		Name:           input.Name,
		PasswordHash:   string(hash),
		Role:           role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentity, user.Email)
		}
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user created")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}
