package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"autoparts-store/models"
)

// MemoryStore is an in-memory implementation of the repositories, used by
// tests and local runs without a database.
type MemoryStore struct {
	mu sync.RWMutex

	users      map[string]User // by id
	categories map[string]models.Category
	products   map[string]models.Product
	orders     map[string]models.Order
	orderItems map[string]models.OrderItem
	payments   map[string]models.Payment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]User),
		categories: make(map[string]models.Category),
		products:   make(map[string]models.Product),
		orders:     make(map[string]models.Order),
		orderItems: make(map[string]models.OrderItem),
		payments:   make(map[string]models.Payment),
	}
}

var (
	_ UserRepository    = (*MemoryStore)(nil)
	_ CatalogRepository = (*MemoryStore)(nil)
	_ OrderRepository   = (*MemoryStore)(nil)
)

// ----- users -----

func (m *MemoryStore) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := u.Profile
	return &cp, nil
}

// ----- catalog -----

func (m *MemoryStore) ListCategories(_ context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *MemoryStore) CreateCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = *c
	return nil
}

func (m *MemoryStore) ListProducts(_ context.Context, f ProductFilter) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Product, 0)
	for _, p := range m.products {
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.NameContains != "" &&
			!strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.NameContains)) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *MemoryStore) GetProduct(_ context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (m *MemoryStore) CreateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) UpdateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return ErrNotFound
	}
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	for _, it := range m.orderItems {
		if it.ProductID == id {
			return ErrForeignKey
		}
	}
	delete(m.products, id)
	return nil
}

func (m *MemoryStore) DeleteOrderItemsByProduct(_ context.Context, productID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, it := range m.orderItems {
		if it.ProductID == productID {
			delete(m.orderItems, id)
			n++
		}
	}
	return n, nil
}

// ----- orders -----

func (m *MemoryStore) CreateOrder(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.IdempotencyKey != "" {
		for _, existing := range m.orders {
			if existing.IdempotencyKey == o.IdempotencyKey {
				return ErrDuplicate
			}
		}
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *MemoryStore) DeleteOrder(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

func (m *MemoryStore) GetOrder(_ context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	return &cp, nil
}

func (m *MemoryStore) GetOrderByKey(_ context.Context, key string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if o.IdempotencyKey == key {
			cp := o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListOrdersByUser(_ context.Context, userID string) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Order, 0)
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ListAllOrders(_ context.Context) ([]models.AdminOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.AdminOrder, 0, len(m.orders))
	for _, o := range m.orders {
		a := models.AdminOrder{Order: o}
		if u, ok := m.users[o.UserID]; ok {
			a.CustomerName = u.FullName
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) CreateOrderItem(_ context.Context, it *models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[it.OrderID]; !ok {
		return ErrForeignKey
	}
	if _, ok := m.products[it.ProductID]; !ok {
		return ErrForeignKey
	}
	m.orderItems[it.ID] = *it
	return nil
}

func (m *MemoryStore) ListOrderItems(_ context.Context, orderID string) ([]models.OrderItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.OrderItem, 0)
	for _, it := range m.orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *MemoryStore) DeleteOrderItemsByOrder(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, it := range m.orderItems {
		if it.OrderID == orderID {
			delete(m.orderItems, id)
		}
	}
	return nil
}

func (m *MemoryStore) CreatePayment(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[p.OrderID]; !ok {
		return ErrForeignKey
	}
	m.payments[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetPaymentByOrder(_ context.Context, orderID string) (*models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.OrderID == orderID {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) DeletePaymentsByOrder(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.payments {
		if p.OrderID == orderID {
			delete(m.payments, id)
		}
	}
	return nil
}

func (m *MemoryStore) SetOrderStatus(_ context.Context, orderID string, status models.OrderStatus) (models.OrderStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return "", ErrNotFound
	}
	old := o.Status
	o.Status = status
	m.orders[orderID] = o
	return old, nil
}

func (m *MemoryStore) Review(_ context.Context, orderID string, ps models.PaymentStatus, os models.OrderStatus) (models.OrderStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return "", ErrNotFound
	}
	for id, p := range m.payments {
		if p.OrderID == orderID {
			p.Status = ps
			m.payments[id] = p
		}
	}
	old := o.Status
	o.Status = os
	m.orders[orderID] = o
	return old, nil
}
