package testhelpers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/recipe-site/backend/internal/models"
)

// TestPassword is the password of every user made by CreateUser.
const TestPassword = "correct-horse-battery"

// CreateUser inserts a user (without a profile) with TestPassword.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func CreateCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("failed to create category %s: %v", name, err)
	}
	return c
}

func CreateIngredient(t *testing.T, db *gorm.DB, name string) *models.Ingredient {
	t.Helper()
	i := &models.Ingredient{Name: name}
	if err := db.Create(i).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return i
}

// CountRows returns the number of rows in model's table.
func CountRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}

// MemoryBlobStore is an in-memory storage.BlobStore. Set FailPut to make
// uploads fail.
type MemoryBlobStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	FailPut bool
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{Objects: map[string][]byte{}}
}

func (m *MemoryBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut {
		return "", errors.New("blob store unavailable")
	}
	m.Objects[key] = append([]byte(nil), data...)
	return "/media/" + key, nil
}

func (m *MemoryBlobStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	return nil
}

// Has reports whether key is stored.
func (m *MemoryBlobStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[key]
	return ok
}

func (m *MemoryBlobStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Objects)
}

// PNG is a minimal valid PNG image.
var PNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}
