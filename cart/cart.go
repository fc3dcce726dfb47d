// Package cart holds each user's in-progress selection. The cart is owned by
// this process, not the database: it only turns into durable rows at checkout.
package cart

import (
	"encoding/json"
	"log"
	"os"
	"sync"

	"autoparts-store/models"
)

type Item struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
	Quantity  int     `json:"quantity"`
}

// Store maps user ids to their cart lines. All mutations go through the
// write lock; totals are derived on every read, never cached.
type Store struct {
	mu    sync.RWMutex
	carts map[string][]Item

	// snapshotPath, when set, makes the store save after every mutation and
	// load once at construction. Empty means volatile carts.
	snapshotPath string
}

func NewStore(snapshotPath string) *Store {
	s := &Store{
		carts:        make(map[string][]Item),
		snapshotPath: snapshotPath,
	}
	s.load()
	return s
}

// AddToCart merges by product id: an existing line gains quantity 1, a new
// product is appended with quantity 1.
func (s *Store) AddToCart(userID string, p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	for i := range items {
		if items[i].ProductID == p.ID {
			items[i].Quantity++
			s.saveLocked()
			return
		}
	}
	s.carts[userID] = append(items, Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		Quantity:  1,
	})
	s.saveLocked()
}

// RemoveFromCart drops the whole line for the product. Removing a product
// that is not in the cart is a no-op.
func (s *Store) RemoveFromCart(userID, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			s.carts[userID] = append(items[:i], items[i+1:]...)
			s.saveLocked()
			return
		}
	}
}

func (s *Store) ClearCart(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	s.saveLocked()
}

// Items returns a copy of the user's cart lines in insertion order.
func (s *Store) Items(userID string) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.carts[userID]
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// TotalAmount is the sum of price x quantity over the user's lines,
// recomputed on every call.
func (s *Store) TotalAmount(userID string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, it := range s.carts[userID] {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

func (s *Store) saveLocked() {
	if s.snapshotPath == "" {
		return
	}
	data, err := json.Marshal(s.carts)
	if err != nil {
		log.Printf("cart snapshot marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(s.snapshotPath, data, 0o600); err != nil {
		log.Printf("cart snapshot write failed: %v", err)
	}
}

func (s *Store) load() {
	if s.snapshotPath == "" {
		return
	}
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("cart snapshot read failed: %v", err)
		}
		return
	}
	if err := json.Unmarshal(data, &s.carts); err != nil {
		log.Printf("cart snapshot decode failed: %v", err)
		s.carts = make(map[string][]Item)
	}
}
