package cart

import (
	"context"
	"errors"

	"github.com/velora-store/velora-backend-go/models"
)

// Store is the cart state container for one shopping session. All
// mutations recompute the derived total and rewrite the persisted cart
// through the Storage boundary; TotalPrice is never set directly.
type Store struct {
	session string
	storage Storage
	items   []models.CartItem
	total   float64
}

// Load rebuilds a session's cart from storage. A missing cart is not an
// error: shoppers start empty.
func Load(ctx context.Context, storage Storage, session string) (*Store, error) {
	s := &Store{session: session, storage: storage}

	saved, err := storage.Load(ctx, session)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return s, nil
		}
		return nil, err
	}

	s.items = saved.Items
	s.total = totalOf(saved.Items)
	return s, nil
}

// Items returns a copy of the current line items.
func (s *Store) Items() []models.CartItem {
	items := make([]models.CartItem, len(s.items))
	copy(items, s.items)
	return items
}

func (s *Store) TotalPrice() float64 {
	return s.total
}

// AddItem merges into an existing line with the same (productId, size)
// key, otherwise appends. A non-positive incoming quantity counts as 1.
func (s *Store) AddItem(ctx context.Context, item models.CartItem) error {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	merged := false
	for i := range s.items {
		if s.items[i].Matches(item.ProductID, item.SelectedSize) {
			s.items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, item)
	}

	return s.persist(ctx)
}

// RemoveItem drops the matching line. Removing an absent item is a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID, size string) error {
	for i := range s.items {
		if s.items[i].Matches(productID, size) {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return s.persist(ctx)
}

// SetQuantity replaces the line's quantity, clamped to a minimum of 1.
// Unknown identity keys are left untouched.
func (s *Store) SetQuantity(ctx context.Context, productID, size string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	for i := range s.items {
		if s.items[i].Matches(productID, size) {
			s.items[i].Quantity = quantity
			break
		}
	}
	return s.persist(ctx)
}

// Clear empties the cart. Callers must invoke this only after the
// payment gateway reports a terminal success; any other outcome keeps
// the cart intact so the shopper can retry.
func (s *Store) Clear(ctx context.Context) error {
	s.items = nil
	s.total = 0
	return s.storage.Delete(ctx, s.session)
}

func (s *Store) persist(ctx context.Context) error {
	s.total = totalOf(s.items)
	return s.storage.Save(ctx, s.session, models.Cart{
		Items:      s.items,
		TotalPrice: s.total,
	})
}

func totalOf(items []models.CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
