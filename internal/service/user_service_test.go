package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"surveillance-service/internal/model"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]model.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) List(ctx context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, user)
	}
	return out, nil
}

func newTestUserService(store *fakeUserStore) *UserService {
	return NewUserService(store, newFakeAllocator(), zerolog.Nop())
}

func TestUserCreateDefaultsAndIdentity(t *testing.T) {
	svc := newTestUserService(newFakeUserStore())

	user, err := svc.Create(context.Background(), CreateUserInput{
		Email:    " Ops@Example.COM ",
		Name:     "Ops Team",
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if user.ID != "user_01" {
		t.Errorf("expected id user_01, got %q", user.ID)
	}
	if user.Email != "ops@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.Role != "operator" {
		t.Errorf("expected default role operator, got %q", user.Role)
	}
	if user.PasswordHash == "s3cret" || user.PasswordHash == "" {
		t.Error("password must be stored as a hash")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestUserCreateMissingFields(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestUserService(store)

	_, err := svc.Create(context.Background(), CreateUserInput{Email: "a@b.c", Name: "A"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing password, got %v", err)
	}
	if len(store.users) != 0 {
		t.Error("invalid input must not persist a user")
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	svc := newTestUserService(newFakeUserStore())

	input := CreateUserInput{Email: "dup@example.com", Name: "One", Password: "pw"}
	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("first create: %v", err)
	}

	input.Name = "Two"
	if _, err := svc.Create(context.Background(), input); !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestUserGetNotFound(t *testing.T) {
	svc := newTestUserService(newFakeUserStore())

	if _, err := svc.Get(context.Background(), "user_99"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
