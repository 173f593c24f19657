package user

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ashwinyue/fastagent/internal/config"
	"github.com/ashwinyue/fastagent/internal/model"
)

// mockRepository Mock 用户仓库
type mockRepository struct {
	users  map[uint]*model.User
	nextID uint
}

func newMockRepo() *mockRepository {
	return &mockRepository{users: make(map[uint]*model.User), nextID: 1}
}

func (m *mockRepository) Create(user *model.User) error {
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return nil
}

func (m *mockRepository) GetByID(id uint) (*model.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRepository) GetByUsername(username string) (*model.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRepository) GetByEmail(email string) (*model.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRepository) Update(user *model.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockRepository) Delete(id uint) error {
	delete(m.users, id)
	return nil
}

func (m *mockRepository) List(offset, limit int) ([]*model.User, error) {
	result := make([]*model.User, 0, len(m.users))
	for _, user := range m.users {
		result = append(result, user)
	}
	return result, nil
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		req     *RegisterRequest
		setup   func(*mockRepository)
		wantErr error
	}{
		{
			name: "register new user",
			req:  &RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret123"},
		},
		{
			name: "duplicate username",
			req:  &RegisterRequest{Username: "alice", Email: "new@example.com", Password: "secret123"},
			setup: func(repo *mockRepository) {
				repo.Create(&model.User{Username: "alice", Email: "alice@example.com"})
			},
			wantErr: ErrUsernameTaken,
		},
		{
			name: "duplicate email",
			req:  &RegisterRequest{Username: "bob", Email: "alice@example.com", Password: "secret123"},
			setup: func(repo *mockRepository) {
				repo.Create(&model.User{Username: "alice", Email: "alice@example.com"})
			},
			wantErr: ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			if tt.setup != nil {
				tt.setup(repo)
			}
			svc := NewService(repo)

			user, err := svc.Register(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Register() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			if user.ID == 0 {
				t.Errorf("user should get an id")
			}
			if !user.IsActive || user.IsAdmin {
				t.Errorf("new user should be active non-admin: %+v", user)
			}
			// 密码以 bcrypt 哈希存储
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.req.Password)); err != nil {
				t.Errorf("password hash mismatch: %v", err)
			}
		})
	}
}

func TestUpdate_AdminFieldGuard(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, &RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	wantAdmin := true

	// 普通用户修改自己的 is_admin 被忽略
	updated, err := svc.Update(ctx, user.ID, &UpdateRequest{IsAdmin: &wantAdmin}, false)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.IsAdmin {
		t.Errorf("non-admin update must not grant admin")
	}

	// 管理员路径可以授予
	updated, err = svc.Update(ctx, user.ID, &UpdateRequest{IsAdmin: &wantAdmin}, true)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.IsAdmin {
		t.Errorf("admin update should grant admin")
	}
}

func TestUpdate_UniquenessAndPassword(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	alice, _ := svc.Register(ctx, &RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret123"})
	if _, err := svc.Register(ctx, &RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	taken := "bob"
	if _, err := svc.Update(ctx, alice.ID, &UpdateRequest{Username: &taken}, false); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}

	// 改密码重新哈希
	newPass := "newpass456"
	updated, err := svc.Update(ctx, alice.ID, &UpdateRequest{Password: &newPass}, false)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte(newPass)); err != nil {
		t.Errorf("password not rehashed: %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	admin, _ := svc.Register(ctx, &RegisterRequest{Username: "admin", Email: "a@example.com", Password: "secret123"})
	other, _ := svc.Register(ctx, &RegisterRequest{Username: "other", Email: "o@example.com", Password: "secret123"})

	if err := svc.Delete(ctx, admin.ID, admin.ID); !errors.Is(err, ErrCannotDeleteSelf) {
		t.Errorf("expected ErrCannotDeleteSelf, got %v", err)
	}
	if err := svc.Delete(ctx, 999, admin.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, other.ID, admin.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, other.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("user should be gone, got %v", err)
	}
}

func TestEnsureInitialAdmin(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	cfg := &config.Config{Admin: config.AdminConfig{
		Username: "admin",
		Password: "admin123",
		Email:    "admin@example.com",
	}}

	if err := svc.EnsureInitialAdmin(ctx, cfg); err != nil {
		t.Fatalf("EnsureInitialAdmin: %v", err)
	}

	admin, err := repo.GetByUsername("admin")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if !admin.IsAdmin || !admin.IsActive {
		t.Errorf("admin flags wrong: %+v", admin)
	}

	// 幂等：重复调用不再创建
	if err := svc.EnsureInitialAdmin(ctx, cfg); err != nil {
		t.Fatalf("EnsureInitialAdmin (again): %v", err)
	}
	users, _ := repo.List(0, 100)
	if len(users) != 1 {
		t.Errorf("expected 1 user, got %d", len(users))
	}
}
