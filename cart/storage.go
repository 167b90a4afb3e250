package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/velora-store/velora-backend-go/models"
)

// Namespace prefixes every persisted cart key, matching the fixed
// "cart-storage" entry the storefront client writes.
const Namespace = "cart-storage"

var ErrCartNotFound = errors.New("cart not found")

// Storage is the persistence boundary for session carts. A store loads
// its contents once and rewrites them after every mutation.
type Storage interface {
	Load(ctx context.Context, session string) (models.Cart, error)
	Save(ctx context.Context, session string, cart models.Cart) error
	Delete(ctx context.Context, session string) error
}

// MemoryStorage keeps carts in process memory. Used in tests and as a
// fallback when no Redis address is configured.
type MemoryStorage struct {
	mu    sync.RWMutex
	carts map[string]models.Cart
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{carts: make(map[string]models.Cart)}
}

func (m *MemoryStorage) Load(_ context.Context, session string) (models.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cart, ok := m.carts[session]
	if !ok {
		return models.Cart{}, ErrCartNotFound
	}
	return cart, nil
}

func (m *MemoryStorage) Save(_ context.Context, session string, cart models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[session] = cart
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, session)
	return nil
}
